package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/skill-evaluator/internal/services"
)

const resumeField = "resume_file"

// readUpload returns the name and bytes of a multipart file field.
func readUpload(c *fiber.Ctx, field string, maxFileSize int64) (string, []byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, services.ErrNoFile.Error())
	}

	if maxFileSize > 0 && file.Size > maxFileSize {
		return "", nil, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("File too large. Max size: %d MB", maxFileSize/(1024*1024)))
	}

	f, err := file.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return file.Filename, content, nil
}
