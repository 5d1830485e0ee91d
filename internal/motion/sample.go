package motion

import (
	"image"
	"math"
)

const (
	regionStride = 2
	// frameStride steps over the flattened RGBA buffer, so it counts bytes.
	frameStride = 40
)

// Sample returns one motion magnitude per region between prev and cur: the
// mean of |dR|+|dG|+|dB| over 3 for every second pixel on both axes. With no
// regions a single whole-frame value is returned, sampled coarsely across the
// flattened pixel buffer. Frames must share the same bounds.
func Sample(prev, cur *image.RGBA, regions []Region) []float64 {
	if len(regions) == 0 {
		return []float64{sampleFrame(prev, cur)}
	}

	out := make([]float64, len(regions))
	for i, r := range regions {
		out[i] = sampleRegion(prev, cur, r)
	}
	return out
}

func sampleRegion(prev, cur *image.RGBA, r Region) float64 {
	b := cur.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	startX := int(math.Floor(r.X * w))
	startY := int(math.Floor(r.Y * h))
	endX := min(int(math.Floor((r.X+r.Width)*w)), b.Dx())
	endY := min(int(math.Floor((r.Y+r.Height)*h)), b.Dy())

	var sum float64
	var count int
	for y := startY; y < endY; y += regionStride {
		for x := startX; x < endX; x += regionStride {
			i := cur.PixOffset(b.Min.X+x, b.Min.Y+y)
			j := prev.PixOffset(b.Min.X+x, b.Min.Y+y)
			sum += pixelDiff(prev.Pix[j:j+3], cur.Pix[i:i+3])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func sampleFrame(prev, cur *image.RGBA) float64 {
	n := min(len(prev.Pix), len(cur.Pix))

	var sum float64
	var count int
	for i := 0; i+2 < n; i += frameStride {
		sum += pixelDiff(prev.Pix[i:i+3], cur.Pix[i:i+3])
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func pixelDiff(a, b []uint8) float64 {
	r := absDiff(a[0], b[0])
	g := absDiff(a[1], b[1])
	bl := absDiff(a[2], b[2])
	return float64(r+g+bl) / 3
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
