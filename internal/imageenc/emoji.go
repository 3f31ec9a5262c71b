package imageenc

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"os"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fallbackOnce sync.Once
	fallbackFont *opentype.Font
	fallbackErr  error
)

// LoadFace reads a TrueType/OpenType font for emoji rendering.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return parseFace(data, size)
}

func parseFace(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return newFace(f, size)
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

func (e *Encoder) face(size int) (font.Face, error) {
	if e.Face != nil {
		return e.Face, nil
	}
	// The parsed font is shared; faces hold per-size glyph buffers and are
	// built per render.
	fallbackOnce.Do(func() {
		fallbackFont, fallbackErr = opentype.Parse(goregular.TTF)
	})
	if fallbackErr != nil {
		return nil, fmt.Errorf("parse fallback font: %w", fallbackErr)
	}
	return newFace(fallbackFont, float64(size)*0.6)
}

func (e *Encoder) renderEmoji(glyph string) (image.Image, error) {
	if glyph == "" {
		return nil, ErrNoImage
	}
	size := e.EmojiSize
	if size <= 0 {
		size = DefaultEmojiSize
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(tileColor(glyph)), image.Point{}, draw.Src)

	face, err := e.face(size)
	if err != nil {
		return nil, err
	}
	if !canDraw(face, glyph) {
		return img, nil
	}

	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.White), Face: face}
	m := face.Metrics()
	width := d.MeasureString(glyph)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(size) - width) / 2,
		Y: (fixed.I(size) + m.Ascent - m.Descent) / 2,
	}
	d.DrawString(glyph)
	return img, nil
}

// canDraw ignores variation selectors and joiners, which have no glyph.
func canDraw(face font.Face, s string) bool {
	for _, r := range s {
		if r == 0xFE0F || r == 0x200D {
			continue
		}
		if _, ok := face.GlyphAdvance(r); !ok {
			return false
		}
	}
	return true
}

// tileColor derives a stable, mid-saturation background from the glyph.
func tileColor(glyph string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(glyph))
	sum := h.Sum32()
	return color.RGBA{
		R: uint8(64 + sum&0x7f),
		G: uint8(64 + (sum>>8)&0x7f),
		B: uint8(64 + (sum>>16)&0x7f),
		A: 0xff,
	}
}
