// Package overlays renders the still images composited over exported reels.
package overlays

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Fallback frame size when the source dimensions are unknown.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

var (
	background = color.RGBA{A: 166} // black at 65%
	foreground = image.White

	boldOnce sync.Once
	bold     *opentype.Font
	boldErr  error
)

// Size falls back to the default frame when either dimension is unset.
func Size(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return width, height
}

// FontSize is 4% of the frame height, never below 16px.
func FontSize(height int) int {
	return max(16, int(math.Round(float64(height)*0.04)))
}

// Margin is the inset of the counter from the top-left corner.
func Margin(width int) int {
	return int(math.Round(float64(width) * 0.02))
}

// Style is the geometry of one counter pill.
type Style struct {
	FontSize int
	PadX     int
	PadY     int
	Radius   int
}

// StyleFor derives the pill geometry from the frame height.
func StyleFor(height int) Style {
	fs := FontSize(height)
	return Style{
		FontSize: fs,
		PadX:     int(math.Round(float64(fs) * 0.6)),
		PadY:     int(math.Round(float64(fs) * 0.35)),
		Radius:   int(math.Round(float64(fs) * 0.25)),
	}
}

func boldFont() (*opentype.Font, error) {
	boldOnce.Do(func() {
		bold, boldErr = opentype.Parse(gobold.TTF)
	})
	return bold, boldErr
}

// Counter renders "i/n" as a PNG pill sized for a width x height frame.
func Counter(i, n, width, height int) ([]byte, error) {
	if i < 1 || i > n {
		return nil, fmt.Errorf("counter %d out of range 1..%d", i, n)
	}
	_, height = Size(width, height)

	img, err := Pill(fmt.Sprintf("%d/%d", i, n), StyleFor(height))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode counter: %w", err)
	}
	return buf.Bytes(), nil
}

// Pill draws text centred on a translucent rounded rectangle.
func Pill(text string, s Style) (*image.RGBA, error) {
	f, err := boldFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(s.FontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	textWidth := font.MeasureString(face, text).Ceil()
	w := textWidth + 2*s.PadX
	h := s.FontSize + 2*s.PadY

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRounded(img, s.Radius, background)

	m := face.Metrics()
	baseline := (h + m.Ascent.Ceil() - m.Descent.Ceil()) / 2
	d := &font.Drawer{
		Dst:  img,
		Src:  foreground,
		Face: face,
		Dot:  fixed.P((w-textWidth)/2, baseline),
	}
	d.DrawString(text)
	return img, nil
}

// fillRounded paints every pixel whose centre lies inside the rounded
// rectangle covering img.
func fillRounded(img *image.RGBA, radius int, c color.RGBA) {
	b := img.Bounds()
	r := float64(radius)
	minX, maxX := float64(b.Min.X)+r, float64(b.Max.X)-r
	minY, maxY := float64(b.Min.Y)+r, float64(b.Max.Y)-r

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			dx := px - math.Max(minX, math.Min(px, maxX))
			dy := py - math.Max(minY, math.Min(py, maxY))
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}
