package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/services"
)

type PageHandler struct {
	evaluator services.EvaluatorService
	secure    bool
	log       *zap.Logger
}

func NewPageHandler(evaluator services.EvaluatorService, secureCookies bool, log *zap.Logger) *PageHandler {
	return &PageHandler{evaluator: evaluator, secure: secureCookies, log: logger.OrNop(log)}
}

// pageData is the context every page template receives.
func pageData(c *fiber.Ctx, title string, extra fiber.Map) fiber.Map {
	data := fiber.Map{
		"page_title":   title,
		"current_year": time.Now().Year(),
		"modes":        services.Modes(),
		"user":         currentUser(c).Public(),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// HandleIndex handles GET /
func (h *PageHandler) HandleIndex(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return c.Redirect("/login", fiber.StatusFound)
	}
	if c.Cookies(CookieSession) == "" {
		return c.Redirect("/new-session", fiber.StatusFound)
	}
	return c.Render("mode_select", pageData(c, "Resume & Interview Skills Evaluator", nil), "layout")
}

// HandleNewSession handles GET /new-session
func (h *PageHandler) HandleNewSession(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     CookieSession,
		Value:    services.NewSessionID(),
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/", fiber.StatusFound)
}

func (h *PageHandler) HandleResumeForm(c *fiber.Ctx) error {
	return h.renderForm(c, models.ModeResume, "resume_form", "Resume Evaluator")
}

func (h *PageHandler) HandleInterviewForm(c *fiber.Ctx) error {
	return h.renderForm(c, models.ModeInterview, "interview_form", "Interview Evaluator")
}

func (h *PageHandler) renderForm(c *fiber.Ctx, mode models.Mode, view, title string) error {
	cfg, err := services.GetModeConfig(mode)
	if err != nil {
		return err
	}
	return c.Render(view, pageData(c, title, fiber.Map{"mode": cfg}), "layout")
}

// HandleHistory handles GET /history. A failing store shows an empty history.
func (h *PageHandler) HandleHistory(c *fiber.Ctx) error {
	user := currentUser(c)

	history, err := h.evaluator.History(c.UserContext(), user.ID)
	if err != nil {
		h.log.Warn("⚠️ Error fetching history", zap.String("user_id", user.ID), zap.Error(err))
		history = nil
	}

	return c.Render("history", pageData(c, "Evaluation History", fiber.Map{"history": history}), "layout")
}
