package detect

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// Thumbnail defaults.
const (
	ThumbnailWidth   = 320
	ThumbnailHeight  = 180
	ThumbnailQuality = 80
)

// EncodeThumbnail scales img to width x height and encodes it as JPEG.
func EncodeThumbnail(img image.Image, width, height int) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		img = resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
