package domain

import "math"

// Embedding is the fixed-length identity vector produced by the extractor.
type Embedding []float64

// Norm returns the Euclidean length of the vector.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// BoundingBox is a face rectangle in source image pixel space.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (b BoundingBox) Width() float64 {
	return b.Right - b.Left
}

func (b BoundingBox) Height() float64 {
	return b.Bottom - b.Top
}

// Area is zero for inverted boxes.
func (b BoundingBox) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// DetectedFace is one face reported by the extractor for an image.
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Embedding   Embedding   `json:"embedding"`
}

// EnrollmentResult is the accepted reference for a later verification.
type EnrollmentResult struct {
	Embedding   Embedding   `json:"embedding"`
	BoundingBox BoundingBox `json:"face_location"`
	FaceRatio   float64     `json:"face_ratio"`
}

// Identity is an enrolled subject supplied by the caller for batch recognition.
type Identity struct {
	ID        string    `json:"id"`
	Embedding Embedding `json:"embedding"`
}
