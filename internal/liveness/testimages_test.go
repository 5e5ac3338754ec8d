package liveness

import (
	"image"
	"image/color"
	"math/rand"
)

// noiseCrop is a textured, colourful crop that clears every signal.
func noiseCrop(seed int64, w, h int) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(20 + r.Intn(216)),
				G: uint8(20 + r.Intn(216)),
				B: uint8(20 + r.Intn(216)),
				A: 255,
			})
		}
	}
	return img
}

// flatCrop is a uniform skin tone, like a print held up to the camera.
func flatCrop(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 190, G: 160, B: 140, A: 255})
		}
	}
	return img
}

// smoothCrop is a colourful linear gradient with no fine texture.
func smoothCrop(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(3 * x), G: uint8(3 * y), B: 128, A: 255})
		}
	}
	return img
}

// lowContrastCrop mixes neutral and tinted pixels at two brightness levels:
// saturation and value both spread by ~20 while the overall sample spread
// stays near 23, under the contrast limit.
func lowContrastCrop(seed int64, w, h int) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := uint8(130)
			if r.Intn(2) == 1 {
				c = 170
			}
			px := color.NRGBA{R: c, G: c, B: c, A: 255}
			if r.Intn(2) == 1 {
				px.G, px.B = c-24, c-24
			}
			img.SetNRGBA(x, y, px)
		}
	}
	return img
}

// stripeCrop is a large high-contrast grating, like a screen's pixel grid.
func stripeCrop(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40)
			if x%2 == 0 {
				v = 250
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}
