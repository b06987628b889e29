package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/repositories"
	"alfredoptarigan/skill-evaluator/internal/services"
)

type ResultHandler struct {
	evaluator services.EvaluatorService
	worker    services.Worker
}

func NewResultHandler(evaluator services.EvaluatorService, worker services.Worker) *ResultHandler {
	return &ResultHandler{evaluator: evaluator, worker: worker}
}

// HandleGetResult handles GET /api/v1/evaluations/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid evaluation ID format")
	}
	user := currentUser(c)

	response := models.ResultResponse{ID: evalID.String()}

	job, tracked := h.worker.Job(evalID)
	if tracked {
		if job.UserID != user.ID {
			return fiber.NewError(fiber.StatusNotFound, "Evaluation not found")
		}
		response.Status = string(job.Status)
		if job.Status == models.StatusFailed && job.ErrorMessage != "" {
			response.ErrorMessage = &job.ErrorMessage
		}
		if job.Status != models.StatusCompleted {
			return c.JSON(response)
		}
	}

	// Completed jobs and records written by the web forms live in the history store.
	rec, err := h.evaluator.Record(c.UserContext(), evalID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Evaluation not found")
	}
	if err != nil {
		return err
	}
	if rec.UserID != user.ID {
		return fiber.NewError(fiber.StatusNotFound, "Evaluation not found")
	}

	response.Status = string(models.StatusCompleted)
	response.Result = rec
	return c.JSON(response)
}

// HandleHistory handles GET /api/v1/history
func (h *ResultHandler) HandleHistory(c *fiber.Ctx) error {
	history, err := h.evaluator.History(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	if history == nil {
		history = []models.EvaluationRecord{}
	}
	return c.JSON(models.HistoryResponse{Count: len(history), History: history})
}
