package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Name() string { return "cloudinary" }

func (s *CloudinaryStore) Save(ctx context.Context, prefix string, data []byte, ext string) (string, error) {
	name := objectName(prefix, ext)
	name = strings.TrimSuffix(name, path.Ext(name))
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:   s.folder,
		PublicID: name,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.SecureURL == "" {
		if result.Error.Message != "" {
			return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
		}
		return "", fmt.Errorf("cloudinary upload: no url returned")
	}
	return result.SecureURL, nil
}

// Delete destroys the asset behind a delivery URL of the form
// .../upload/v123/<folder>/<id>.jpg.
func (s *CloudinaryStore) Delete(ctx context.Context, url string) error {
	publicID, ok := publicIDFromURL(url, s.folder)
	if !ok {
		return ErrNotOwned
	}
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	return nil
}

func publicIDFromURL(url, folder string) (string, bool) {
	marker := "/" + strings.Trim(folder, "/") + "/"
	i := strings.LastIndex(url, marker)
	if folder == "" || i < 0 {
		return "", false
	}
	file := url[i+len(marker):]
	if file == "" || strings.Contains(file, "/") {
		return "", false
	}
	return strings.Trim(folder, "/") + "/" + strings.TrimSuffix(file, path.Ext(file)), true
}
