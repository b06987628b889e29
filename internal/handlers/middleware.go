package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/repositories"
	"alfredoptarigan/skill-evaluator/internal/services"
)

const (
	CookieAuth    = "auth_token"
	CookieSession = "session_id"

	localUser = "user"
)

// AuthMiddleware resolves the logged-in user from the auth cookie or a Bearer token.
type AuthMiddleware struct {
	auth   services.AuthService
	tokens *services.TokenManager
	log    *zap.Logger
}

func NewAuthMiddleware(auth services.AuthService, tokens *services.TokenManager, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, tokens: tokens, log: logger.OrNop(log)}
}

// LoadUser never rejects a request; it only sets the current user when the token is valid.
func (m *AuthMiddleware) LoadUser(c *fiber.Ctx) error {
	token := c.Cookies(CookieAuth)
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	if token == "" {
		return c.Next()
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		m.log.Debug("🔒 Ignoring invalid auth token", zap.Error(err))
		return c.Next()
	}

	user, err := m.auth.GetUser(c.UserContext(), claims.UserID)
	switch {
	case err == nil:
		c.Locals(localUser, user)
	case !errors.Is(err, repositories.ErrNotFound):
		m.log.Warn("⚠️ Failed to load user", zap.String("user_id", claims.UserID), zap.Error(err))
	}
	return c.Next()
}

// RequirePageUser redirects anonymous visitors to the login page.
func (m *AuthMiddleware) RequirePageUser(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return c.Redirect("/login", fiber.StatusFound)
	}
	return c.Next()
}

func (m *AuthMiddleware) RequireAPIUser(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}
	return c.Next()
}

// RequireSession rejects evaluation requests without a valid practice-session cookie.
func RequireSession(c *fiber.Ctx) error {
	if err := services.ValidateSessionID(c.Cookies(CookieSession)); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	return c.Next()
}

// RateLimiter limits requests per client IP with a sliding window.
func RateLimiter(max int, expiration time.Duration) fiber.Handler {
	if max <= 0 {
		max = 20
	}
	if expiration <= 0 {
		expiration = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.")
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}
