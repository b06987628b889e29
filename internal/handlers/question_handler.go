package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/services"
)

type QuestionHandler struct {
	evaluator services.EvaluatorService
	log       *zap.Logger
}

func NewQuestionHandler(evaluator services.EvaluatorService, log *zap.Logger) *QuestionHandler {
	return &QuestionHandler{evaluator: evaluator, log: logger.OrNop(log)}
}

// HandleGenerate handles POST /api/generate-questions. Accepts form or JSON bodies.
func (h *QuestionHandler) HandleGenerate(c *fiber.Ctx) error {
	req := models.QuestionRequest{
		DifficultyLevel:   services.DefaultDifficulty,
		NumberOfQuestions: services.DefaultQuestionCount,
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}

	set, err := h.evaluator.GenerateQuestions(c.UserContext(), req)
	if err != nil {
		return clientError(h.log, err, "Question generation failed")
	}
	return c.JSON(set)
}
