package detect

import (
	"context"
	"image"
	"image/draw"
	"time"

	"github.com/nfnt/resize"
)

// FrameSource hands out decoded frames. Frame may block; callers bound it
// with a context deadline.
type FrameSource interface {
	Frame(ctx context.Context, at time.Duration) (*image.RGBA, error)
	Duration() time.Duration
	Dimensions() (width, height int)
}

// normalize scales a frame to the analysis size unless it already matches.
func normalize(img *image.RGBA, width, height int) *image.RGBA {
	b := img.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() == width && b.Dy() == height) {
		return img
	}

	scaled := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	return toRGBA(scaled)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
