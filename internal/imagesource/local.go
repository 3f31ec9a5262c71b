package imagesource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Prompter asks the person at the terminal a question and returns the answer.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// DirLocations reserves JPEG_yyyyMMdd_HHmmss_*.jpg files under Dir.
type DirLocations struct {
	Dir string
	Now func() time.Time
}

func (d *DirLocations) NewLocation() (*Location, error) {
	if err := os.MkdirAll(d.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create pictures dir: %w", err)
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	pattern := "JPEG_" + now().Format("20060102_150405") + "_*.jpg"
	f, err := os.CreateTemp(d.Dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}
	return &Location{Path: f.Name()}, nil
}

// CommandCamera captures by running an external program, e.g.
// "fswebcam --no-banner {path}". The literal {path} is replaced with the
// location; without it the path is appended as the last argument.
type CommandCamera struct {
	Command string
	Timeout time.Duration
}

func (c *CommandCamera) Capture(ctx context.Context, loc *Location) (bool, error) {
	fields := strings.Fields(c.Command)
	if len(fields) == 0 {
		return false, errors.New("no capture command configured")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	substituted := false
	args := make([]string, 0, len(fields))
	for _, f := range fields[1:] {
		if strings.Contains(f, "{path}") {
			f = strings.ReplaceAll(f, "{path}", loc.Path)
			substituted = true
		}
		args = append(args, f)
	}
	if !substituted {
		args = append(args, loc.Path)
	}

	out, err := exec.CommandContext(ctx, fields[0], args...).CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("capture command: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return true, nil
}

var pickableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// PromptGallery asks for an image path. A blank answer cancels the pick.
type PromptGallery struct {
	Prompter Prompter
}

func (g *PromptGallery) Pick(ctx context.Context) (*Reference, error) {
	answer, err := g.Prompter.Prompt(ctx, "Image path (blank to cancel): ")
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(answer)
	if path == "" {
		return nil, nil
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !pickableExtensions[strings.ToLower(filepath.Ext(path))] {
		return nil, fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return FileReference(path), nil
}

// PromptPermissions asks once; a grant is remembered for the session.
type PromptPermissions struct {
	Prompter Prompter

	mu      sync.Mutex
	granted bool
}

func (p *PromptPermissions) Granted(_ context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted
}

func (p *PromptPermissions) Request(ctx context.Context) (bool, error) {
	answer, err := p.Prompter.Prompt(ctx, "Allow camera access? [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		p.mu.Lock()
		p.granted = true
		p.mu.Unlock()
		return true, nil
	default:
		return false, nil
	}
}

// StaticPermissions is a fixed answer, used when the host is preconfigured.
type StaticPermissions bool

func (s StaticPermissions) Granted(context.Context) bool { return bool(s) }

func (s StaticPermissions) Request(context.Context) (bool, error) { return bool(s), nil }
