package imageenc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/imagesource"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultQuality matches the aggressive compression the mobile client
	// applied before upload.
	DefaultQuality      = 10
	DefaultMaxDimension = 512
	DefaultEmojiSize    = 256
)

var (
	ErrNoImage              = errors.New("no image selected")
	ErrUnsupportedReference = errors.New("unsupported image reference")
)

// Encoder turns an image reference into JPEG bytes ready for upload.
type Encoder struct {
	Quality      int
	MaxDimension int
	EmojiSize    int
	// Face draws emoji glyphs. Nil falls back to the bundled Go font, which
	// only yields the coloured tile for most emoji.
	Face font.Face
}

func New() *Encoder {
	return &Encoder{
		Quality:      DefaultQuality,
		MaxDimension: DefaultMaxDimension,
		EmojiSize:    DefaultEmojiSize,
	}
}

func (e *Encoder) Encode(ctx context.Context, ref *imagesource.Reference) ([]byte, error) {
	if ref == nil {
		return nil, ErrNoImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		img image.Image
		err error
	)
	switch ref.Kind {
	case imagesource.KindFile:
		img, err = decodeFile(ref.Path)
	case imagesource.KindEmoji:
		img, err = e.renderEmoji(ref.Glyph)
	default:
		return nil, ErrUnsupportedReference
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.compress(e.fit(img))
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// fit flattens onto white and shrinks the longest side to MaxDimension.
func (e *Encoder) fit(src image.Image) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	limit := e.MaxDimension
	if limit <= 0 {
		limit = DefaultMaxDimension
	}
	if w > limit || h > limit {
		if w >= h {
			h = max(1, h*limit/w)
			w = limit
		} else {
			w = max(1, w*limit/h)
			h = limit
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func (e *Encoder) compress(img image.Image) ([]byte, error) {
	q := e.Quality
	if q < 1 || q > 100 {
		q = DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
