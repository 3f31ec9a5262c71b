package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService   *services.AuthService
	maxPhotoBytes int64
}

func NewAuthHandler(authService *services.AuthService, maxPhotoBytes int64) *AuthHandler {
	return &AuthHandler{authService: authService, maxPhotoBytes: maxPhotoBytes}
}

// Register handles POST /api/auth/register (multipart/form-data).
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	photo, err := readPhoto(c, dto.FieldProfilePhoto, h.maxPhotoBytes)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	resp, err := h.authService.Register(c.UserContext(), &services.RegisterInput{
		Username: c.FormValue(dto.FieldUsername),
		Email:    c.FormValue(dto.FieldEmail),
		Password: c.FormValue(dto.FieldPassword),
		Photo:    photo,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidImage),
			errors.Is(err, services.ErrPhotoRequired),
			errors.Is(err, services.ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(resp)
}

// UpdatePhoto handles PUT /api/user/:username.
func (h *AuthHandler) UpdatePhoto(c *fiber.Ctx) error {
	subject, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	photo, err := readPhoto(c, dto.FieldProfilePhoto, h.maxPhotoBytes)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	if _, err := h.authService.UpdatePhoto(c.UserContext(), subject, c.Params("username"), photo); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		case errors.Is(err, services.ErrInvalidImage), errors.Is(err, services.ErrPhotoRequired):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return err
	}

	return c.JSON(dto.UpdateResponse{Message: "Profile updated successfully"})
}

var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// readPhoto loads a multipart image part. The part is accepted when either its
// content type or its filename extension names a supported image.
func readPhoto(c *fiber.Ctx, field string, limit int64) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, errors.New("Profile photo is required")
	}
	if limit > 0 && file.Size > limit {
		return nil, errors.New("Image is too large")
	}
	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !photoTypes[contentType] && !photoExts[ext] {
		return nil, errors.New("Invalid image format. Only JPEG, PNG, and WebP are allowed")
	}
	return readPart(file)
}

func readPart(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, errors.New("Failed to read image")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.New("Failed to read image")
	}
	return data, nil
}
