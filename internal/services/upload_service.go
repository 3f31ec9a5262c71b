package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/storage"
)

// UploadService backs the standalone /upload endpoint: a named photo with no
// account attached.
type UploadService struct {
	photos storage.PhotoStore
}

func NewUploadService(photos storage.PhotoStore) *UploadService {
	return &UploadService{photos: photos}
}

func (s *UploadService) Upload(ctx context.Context, name string, data []byte) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	ext, err := PhotoExtension(data)
	if err != nil {
		return "", err
	}
	url, err := s.photos.Save(ctx, name, data, ext)
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	return url, nil
}
