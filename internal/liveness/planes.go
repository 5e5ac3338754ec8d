package liveness

import (
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/presenca/internal/imaging"
)

// planes holds the 8-bit channel views every signal reads from.
type planes struct {
	width, height int
	gray          []float64 // luminance, row-major
	saturation    []float64
	value         []float64
	channels      []float64 // every R, G and B sample
}

func newPlanes(img image.Image) *planes {
	n := imaging.ToNRGBA(img)
	w, h := n.Rect.Dx(), n.Rect.Dy()

	p := &planes{
		width:      w,
		height:     h,
		gray:       make([]float64, w*h),
		saturation: make([]float64, w*h),
		value:      make([]float64, w*h),
		channels:   make([]float64, 0, 3*w*h),
	}

	for y := 0; y < h; y++ {
		row := n.Pix[y*n.Stride : y*n.Stride+4*w]
		for x := 0; x < w; x++ {
			r := float64(row[4*x])
			g := float64(row[4*x+1])
			b := float64(row[4*x+2])
			i := y*w + x

			p.gray[i] = math.Round(0.299*r + 0.587*g + 0.114*b)

			v := math.Max(r, math.Max(g, b))
			lo := math.Min(r, math.Min(g, b))
			p.value[i] = v
			if v > 0 {
				p.saturation[i] = math.Round(255 * (v - lo) / v)
			}

			p.channels = append(p.channels, b, g, r)
		}
	}

	return p
}
