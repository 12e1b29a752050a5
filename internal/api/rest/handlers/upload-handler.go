package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/degreepass/verification_service/internal/interfaces"
	pkgutils "github.com/degreepass/verification_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UploadResponse struct {
	URL string `json:"url"`
}

type UploadHandler struct {
	uploader interfaces.Uploader
}

func NewUploadHandler(uploader interfaces.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// POST /api/uploads/document
// form-data: file=<pdf or image>
//
// Returns the durable URL the student pastes into the request form.
func (h *UploadHandler) UploadDocument(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "file is required"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowed[ext] {
		return c.Status(400).JSON(fiber.Map{"message": "only pdf/jpg/jpeg/png/webp allowed"})
	}

	const maxSize = 10 * 1024 * 1024 //10MB
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{"message": "file too large (max 10MB)"})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "cannot open uploaded file"})
	}
	defer f.Close()

	b, err := pkgutils.ReadAllLimit(f, maxSize)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	publicID := fmt.Sprintf("doc_%s%s", uuid.NewString(), ext)
	url, err := h.uploader.UploadBytes(ctx, "degreepass/documents", publicID, b)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": fmt.Sprintf("upload failed: %v", err)})
	}

	return c.JSON(UploadResponse{URL: url})
}
