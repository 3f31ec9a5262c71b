package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrNotOwned = errors.New("photo url does not belong to this store")

// PhotoStore keeps uploaded profile photos and hands back a public URL.
type PhotoStore interface {
	Save(ctx context.Context, prefix string, data []byte, ext string) (string, error)
	Delete(ctx context.Context, url string) error
	Name() string
}

// LocalStore writes photos under Dir; the server exposes Dir at URLPath.
type LocalStore struct {
	Dir     string
	BaseURL string
	URLPath string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		Dir:     dir,
		BaseURL: strings.TrimRight(baseURL, "/"),
		URLPath: "/uploads",
	}, nil
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Save(ctx context.Context, prefix string, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filename := objectName(prefix, ext)
	if err := os.WriteFile(filepath.Join(s.Dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return s.BaseURL + path.Join(s.URLPath, filename), nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	prefix := s.BaseURL + s.URLPath + "/"
	if !strings.HasPrefix(url, prefix) {
		return ErrNotOwned
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ErrNotOwned
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// objectName is <prefix>_<8 hex>.<ext>, prefix trimmed to something path safe.
func objectName(prefix, ext string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, prefix)
	if len(clean) > 32 {
		clean = clean[:32]
	}
	if clean == "" {
		clean = "photo"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_%s.%s", clean, uuid.New().String()[:8], ext)
}
