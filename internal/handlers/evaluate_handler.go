package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/services"
)

type EvaluationHandler struct {
	evaluator   services.EvaluatorService
	worker      services.Worker
	maxFileSize int64
	log         *zap.Logger
}

func NewEvaluationHandler(
	evaluator services.EvaluatorService,
	worker services.Worker,
	maxFileSize int64,
	log *zap.Logger,
) *EvaluationHandler {
	return &EvaluationHandler{
		evaluator:   evaluator,
		worker:      worker,
		maxFileSize: maxFileSize,
		log:         logger.OrNop(log),
	}
}

// HandleResumePage handles POST /evaluate/resume and renders the results page.
func (h *EvaluationHandler) HandleResumePage(c *fiber.Ctx) error {
	meta := recordMeta(c)

	sub, err := h.prepareResume(c, meta)
	if err != nil {
		return err
	}

	rec, err := h.evaluator.EvaluateResume(c.UserContext(), meta, sub)
	if err != nil {
		return clientError(h.log, err, "Evaluation failed")
	}

	return c.Render("resume_results", pageData(c, "Resume Results", fiber.Map{
		"record":          rec,
		"evaluation":      rec.Result,
		"resume_text":     rec.ResumeText,
		"job_description": rec.JobDescription,
	}), "layout")
}

// HandleInterviewPage handles POST /evaluate/interview and renders the results page.
func (h *EvaluationHandler) HandleInterviewPage(c *fiber.Ctx) error {
	var sub models.InterviewSubmission
	if err := c.BodyParser(&sub); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	rec, err := h.evaluator.EvaluateInterview(c.UserContext(), recordMeta(c), sub)
	if err != nil {
		return clientError(h.log, err, "Evaluation failed")
	}

	return c.Render("interview_results", pageData(c, "Interview Results", fiber.Map{
		"record":     rec,
		"evaluation": rec.Result,
		"question":   rec.Question,
		"answer":     rec.Answer,
	}), "layout")
}

// HandleSubmitResume handles POST /api/v1/evaluations/resume. The upload is parsed
// before queueing so bad files are rejected immediately.
func (h *EvaluationHandler) HandleSubmitResume(c *fiber.Ctx) error {
	meta := recordMeta(c)

	sub, err := h.prepareResume(c, meta)
	if err != nil {
		return err
	}

	return h.enqueue(c, &models.EvaluationJob{
		UserID:    meta.UserID,
		SessionID: meta.SessionID,
		Mode:      models.ModeResume,
		Resume:    &sub,
	})
}

// HandleSubmitInterview handles POST /api/v1/evaluations/interview
func (h *EvaluationHandler) HandleSubmitInterview(c *fiber.Ctx) error {
	var sub models.InterviewSubmission
	if err := c.BodyParser(&sub); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(sub.Question) == "" || strings.TrimSpace(sub.Answer) == "" {
		return fiber.NewError(fiber.StatusBadRequest, services.ErrInterviewFields.Error())
	}

	meta := recordMeta(c)
	return h.enqueue(c, &models.EvaluationJob{
		UserID:    meta.UserID,
		SessionID: meta.SessionID,
		Mode:      models.ModeInterview,
		Interview: &sub,
	})
}

func (h *EvaluationHandler) prepareResume(c *fiber.Ctx, meta services.RecordMeta) (models.ResumeSubmission, error) {
	filename, content, err := readUpload(c, resumeField, h.maxFileSize)
	if err != nil {
		return models.ResumeSubmission{}, err
	}

	sub, err := h.evaluator.PrepareResume(meta, filename, content, c.FormValue("job_description"))
	if err != nil {
		return models.ResumeSubmission{}, clientError(h.log, err, "Failed to process resume")
	}
	return sub, nil
}

func (h *EvaluationHandler) enqueue(c *fiber.Ctx, job *models.EvaluationJob) error {
	if err := h.worker.Submit(job); err != nil {
		if job.Resume != nil {
			h.evaluator.DiscardUpload(job.Resume.InputRef)
		}
		if errors.Is(err, services.ErrQueueFull) || errors.Is(err, services.ErrWorkerStopped) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return err
	}

	// Return job ID immediately
	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		ID:     job.ID.String(),
		Status: string(models.StatusQueued),
	})
}

func recordMeta(c *fiber.Ctx) services.RecordMeta {
	meta := services.RecordMeta{SessionID: c.Cookies(CookieSession)}
	if user := currentUser(c); user != nil {
		meta.UserID = user.ID
	}
	return meta
}
