package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/services"
)

type AuthHandler struct {
	auth   services.AuthService
	tokens *services.TokenManager
	secure bool
	log    *zap.Logger
}

func NewAuthHandler(auth services.AuthService, tokens *services.TokenManager, secureCookies bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, secure: secureCookies, log: logger.OrNop(log)}
}

func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	return c.Render("login", pageData(c, "Login", nil), "layout")
}

// HandleLogin handles POST /login
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	email := c.FormValue("email")

	user, err := h.auth.Login(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		return h.renderFormError(c, "login", "Login", err, "An error occurred during login", fiber.Map{"email": email})
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) HandleRegisterPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	return c.Render("register", pageData(c, "Register", nil), "layout")
}

// HandleRegister handles POST /register
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	user, err := h.auth.Register(c.UserContext(), in)
	if err != nil {
		return h.renderFormError(c, "register", "Register", err, "An error occurred during registration",
			fiber.Map{"name": in.Name, "email": in.Email})
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleLogout handles GET /logout
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     CookieAuth,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secure,
	})
	return c.Redirect("/login", fiber.StatusFound)
}

// HandleIssueToken handles POST /api/v1/auth/token
func (h *AuthHandler) HandleIssueToken(c *fiber.Ctx) error {
	var req models.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}

	user, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return err
	}

	token, err := h.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return err
	}

	return c.JSON(models.TokenResponse{
		Token:     token,
		ExpiresIn: int64(h.tokens.MaxAge().Seconds()),
		User:      user.Public(),
	})
}

func (h *AuthHandler) startSession(c *fiber.Ctx, user *models.User) error {
	token, err := h.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieAuth,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokens.MaxAge()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	h.log.Info("🔑 User logged in", zap.String("user_id", user.ID))
	return nil
}

// renderFormError shows validation messages on the form itself; other failures get a generic message.
func (h *AuthHandler) renderFormError(c *fiber.Ctx, view, title string, err error, generic string, values fiber.Map) error {
	message := generic
	var fe *services.FormError
	if errors.As(err, &fe) {
		message = fe.Message
	} else {
		h.log.Error("❌ "+title+" failed", zap.Error(err))
	}

	values["error"] = message
	return c.Render(view, pageData(c, title, values), "layout")
}
