package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/database"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	photos storage.PhotoStore
}

func NewHealthHandler(photos storage.PhotoStore) *HealthHandler {
	return &HealthHandler{photos: photos}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Storage:   h.photos.Name(),
	})
}
