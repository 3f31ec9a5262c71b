package imagesource

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Kind tells where the bytes behind a Reference come from.
type Kind int

const (
	KindFile Kind = iota + 1
	KindEmoji
)

// Reference is an opaque handle to image bytes that are not loaded yet.
// File references point at a camera capture or a gallery pick on disk;
// emoji references carry the glyph and are rendered at encode time.
type Reference struct {
	Kind  Kind
	Path  string
	Glyph string
}

func FileReference(path string) *Reference {
	return &Reference{Kind: KindFile, Path: path}
}

func EmojiReference(glyph string) *Reference {
	return &Reference{Kind: KindEmoji, Glyph: glyph}
}

// String renders the reference as a URI, the form it is cached in.
func (r *Reference) String() string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case KindFile:
		abs, err := filepath.Abs(r.Path)
		if err != nil {
			abs = r.Path
		}
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		return u.String()
	case KindEmoji:
		return "emoji:" + r.Glyph
	default:
		return ""
	}
}

// ParseReference is the inverse of String. Unknown input yields nil.
func ParseReference(s string) *Reference {
	switch {
	case strings.HasPrefix(s, "emoji:"):
		glyph := strings.TrimPrefix(s, "emoji:")
		if glyph == "" {
			return nil
		}
		return EmojiReference(glyph)
	case strings.HasPrefix(s, "file://"):
		u, err := url.Parse(s)
		if err != nil || u.Path == "" {
			return nil
		}
		return FileReference(filepath.FromSlash(u.Path))
	default:
		return nil
	}
}
