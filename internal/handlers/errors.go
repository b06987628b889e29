package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/services"
)

const unexpectedError = "An unexpected error occurred."

// ErrorHandler renders error.html for pages and a JSON body for /api routes.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	log = logger.OrNop(log)

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		detail := unexpectedError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			detail = e.Message
		} else {
			log.Error("❌ Unhandled error", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		}

		if isAPI(c) {
			return c.Status(code).JSON(fiber.Map{"error": detail, "code": code})
		}

		title := fmt.Sprintf("Error: %d", code)
		if code == fiber.StatusInternalServerError {
			title = "Server Error"
		}
		if rerr := c.Status(code).Render("error", pageData(c, title, fiber.Map{
			"status_code": code,
			"detail":      detail,
		}), "layout"); rerr != nil {
			log.Error("❌ Failed to render error page", zap.Error(rerr))
			return c.Status(code).SendString(detail)
		}
		return nil
	}
}

// clientError turns validation failures from the services into 400s. Anything else is
// logged and reported as a generic failure.
func clientError(log *zap.Logger, err error, fallback string) error {
	var fe *services.FormError
	switch {
	case errors.As(err, &fe):
		return fiber.NewError(fiber.StatusBadRequest, fe.Message)
	case services.IsClientError(err):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	log.Error("❌ "+fallback, zap.Error(err))
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}
