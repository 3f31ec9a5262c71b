package imagesource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

const (
	MsgPermissionRequired = "Camera permission required"
	MsgCaptureFailed      = "Failed to capture image"
	MsgLocationFailed     = "Failed to create image file"
)

var ErrUnknownEmoji = errors.New("emoji is not in the picker set")

// PermissionDeniedError is returned when the camera permission is refused.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string { return e.Reason }

// CaptureFailedError covers a failed capture and a failed temp location.
type CaptureFailedError struct {
	Reason string
	Err    error
}

func (e *CaptureFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *CaptureFailedError) Unwrap() error { return e.Err }

// Permissions gates the camera path.
type Permissions interface {
	Granted(ctx context.Context) bool
	Request(ctx context.Context) (bool, error)
}

// Locations hands out fresh writable image locations for captures.
type Locations interface {
	NewLocation() (*Location, error)
}

// Camera runs the platform capture flow into loc.
type Camera interface {
	Capture(ctx context.Context, loc *Location) (bool, error)
}

// Gallery runs the platform picker. A nil reference means the user cancelled.
type Gallery interface {
	Pick(ctx context.Context) (*Reference, error)
}

// Sink receives the outcome of every path. The profile form implements it.
type Sink interface {
	OnImageResolved(ref *Reference)
	OnPermissionDenied(reason string)
	OnCaptureFailed(reason string)
	CloseImagePicker()
}

// Location is a writable file reserved for one capture.
type Location struct {
	Path string
}

// Discard removes the file behind the location. Missing files are fine.
func (l *Location) Discard() error {
	if l == nil || l.Path == "" {
		return nil
	}
	if err := os.Remove(l.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Location) hasContent() bool {
	info, err := os.Stat(l.Path)
	return err == nil && info.Size() > 0
}

type Provider struct {
	permissions Permissions
	locations   Locations
	camera      Camera
	gallery     Gallery
	sink        Sink
	logger      *slog.Logger
}

type ProviderDeps struct {
	Permissions Permissions
	Locations   Locations
	Camera      Camera
	Gallery     Gallery
	Logger      *slog.Logger
}

func NewProvider(deps ProviderDeps, sink Sink) *Provider {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		permissions: deps.Permissions,
		locations:   deps.Locations,
		camera:      deps.Camera,
		gallery:     deps.Gallery,
		sink:        sink,
		logger:      logger,
	}
}

// FromCamera asks for the camera permission when needed, captures into a
// fresh location and resolves it. Failures are reported to the sink and
// returned; the temp location is discarded on every failed capture.
func (p *Provider) FromCamera(ctx context.Context) error {
	if p.camera == nil || p.permissions == nil || p.locations == nil {
		return p.captureFailed(MsgCaptureFailed, errors.New("camera is not available"), nil)
	}

	if !p.permissions.Granted(ctx) {
		granted, err := p.permissions.Request(ctx)
		if err != nil {
			p.logger.Warn("camera permission request failed", "error", err)
		}
		if !granted {
			p.sink.OnPermissionDenied(MsgPermissionRequired)
			p.sink.CloseImagePicker()
			return &PermissionDeniedError{Reason: MsgPermissionRequired}
		}
	}

	loc, err := p.locations.NewLocation()
	if err != nil || loc == nil {
		return p.captureFailed(MsgLocationFailed, err, nil)
	}

	ok, err := p.camera.Capture(ctx, loc)
	if err != nil || !ok || !loc.hasContent() {
		return p.captureFailed(MsgCaptureFailed, err, loc)
	}

	p.logger.Debug("camera capture resolved", "path", loc.Path)
	p.sink.OnImageResolved(FileReference(loc.Path))
	return nil
}

func (p *Provider) captureFailed(reason string, cause error, loc *Location) error {
	if loc != nil {
		if err := loc.Discard(); err != nil {
			p.logger.Warn("failed to discard capture location", "path", loc.Path, "error", err)
		}
	}
	p.sink.OnCaptureFailed(reason)
	p.sink.CloseImagePicker()
	return &CaptureFailedError{Reason: reason, Err: cause}
}

// FromGallery resolves the picked image. Cancelling only closes the picker.
func (p *Provider) FromGallery(ctx context.Context) error {
	if p.gallery == nil {
		p.sink.CloseImagePicker()
		return errors.New("gallery is not available")
	}
	ref, err := p.gallery.Pick(ctx)
	if err != nil {
		p.logger.Warn("gallery pick failed", "error", err)
		p.sink.CloseImagePicker()
		return fmt.Errorf("gallery pick: %w", err)
	}
	if ref == nil {
		p.sink.CloseImagePicker()
		return nil
	}
	p.sink.OnImageResolved(ref)
	return nil
}

// FromEmoji resolves an emoji reference; the bitmap is rendered at encode time.
func (p *Provider) FromEmoji(glyph string) error {
	if !IsEmoji(glyph) {
		return ErrUnknownEmoji
	}
	p.sink.OnImageResolved(EmojiReference(glyph))
	return nil
}

// Cancel is the explicit dismissal of the picker sheet.
func (p *Provider) Cancel() {
	p.sink.CloseImagePicker()
}
