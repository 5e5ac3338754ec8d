package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Decode parses a jpeg, png or webp payload.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", domain.ErrInvalidImage.WithError(fmt.Errorf("empty image"))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", domain.ErrInvalidImage.WithError(err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", domain.ErrInvalidImage.WithError(fmt.Errorf("degenerate image %dx%d", b.Dx(), b.Dy()))
	}

	return img, format, nil
}

// Dimensions reads only the header of a jpeg, png or webp payload.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, domain.ErrInvalidImage.WithError(err)
	}
	return cfg.Width, cfg.Height, nil
}

// ToNRGBA returns img as a non-premultiplied 8-bit image rooted at (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}
