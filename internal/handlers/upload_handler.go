package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	uploadService *services.UploadService
	maxPhotoBytes int64
}

func NewUploadHandler(uploadService *services.UploadService, maxPhotoBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxPhotoBytes: maxPhotoBytes}
}

// Upload handles POST /upload with fields name and image.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	data, err := readPhoto(c, dto.FieldImage, h.maxPhotoBytes)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	url, err := h.uploadService.Upload(c.UserContext(), c.FormValue(dto.FieldName), data)
	if err != nil {
		if errors.Is(err, services.ErrInvalidImage) || errors.Is(err, services.ErrNameRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return err
	}

	return c.JSON(dto.UploadResponse{Status: "success", PhotoURL: url})
}
