package imaging

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// DefaultCropMargin expands a face box by 10% of its width on every side.
const DefaultCropMargin = 0.10

// FaceCrop derives the analysis rectangle for a detected face: the box is
// truncated to whole pixels, grown by marginFraction*width on all four sides
// and clamped to bounds.
func FaceCrop(box domain.BoundingBox, bounds image.Rectangle, marginFraction float64) (image.Rectangle, error) {
	left := int(math.Trunc(box.Left))
	top := int(math.Trunc(box.Top))
	right := int(math.Trunc(box.Right))
	bottom := int(math.Trunc(box.Bottom))

	margin := int(math.Trunc(marginFraction * float64(right-left)))

	rect := image.Rect(
		bounds.Min.X+max(0, left-margin),
		bounds.Min.Y+max(0, top-margin),
		bounds.Min.X+min(bounds.Dx(), right+margin),
		bounds.Min.Y+min(bounds.Dy(), bottom+margin),
	)

	// image.Rect canonicalizes inverted input, so check the clamped edges directly.
	if max(0, left-margin) >= min(bounds.Dx(), right+margin) ||
		max(0, top-margin) >= min(bounds.Dy(), bottom+margin) {
		return image.Rectangle{}, domain.ErrInvalidInput.WithError(
			fmt.Errorf("degenerate face crop for box %+v in %dx%d image", box, bounds.Dx(), bounds.Dy()))
	}

	return rect, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the region r of img without copying when the image supports it.
func Crop(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, r.Min, xdraw.Src)
	return dst
}
