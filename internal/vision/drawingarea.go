package vision

import (
	"image"

	"github.com/agingrasc/design3-vision/internal/detect"
	"github.com/agingrasc/design3-vision/internal/world"
)

// DrawingAreaDetector finds the green drawing-area frame with a colour mask.
// It needs no native dependencies.
type DrawingAreaDetector struct {
	Range        HSVRange
	MedianRadius float64
	// MinArea is the smallest outer quad area accepted, in pixels.
	MinArea float64
}

// NewDrawingAreaDetector returns a detector tuned for the green frame.
func NewDrawingAreaDetector() *DrawingAreaDetector {
	return &DrawingAreaDetector{Range: GreenRange, MedianRadius: 1, MinArea: 2000}
}

// Name implements detect.Named.
func (d *DrawingAreaDetector) Name() string { return "drawing-area" }

// Detect implements detect.Detector. The outer square is the largest green
// region; the inner square is the largest hole inside it, or the outer square
// itself when the region is solid.
func (d *DrawingAreaDetector) Detect(img image.Image) (world.Element, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, detect.NotFound(d.Name(), "empty image")
	}
	mask := Threshold(img, d.Range, d.MedianRadius)
	frame, ok := Largest(mask.Components(true, false))
	if !ok {
		return nil, detect.NotFound(d.Name(), "no green pixels")
	}
	outer, ok := world.NewRectangle(frame.ExtremeQuad())
	if !ok || outer.Area() < d.MinArea {
		return nil, detect.NotFound(d.Name(), "green region too small")
	}

	// Only holes enclosed by the frame qualify; other green shapes in the
	// scene may enclose background regions of their own.
	var holes []Component
	for _, c := range mask.Components(false, true) {
		if outer.Contains(c.Centroid()) {
			holes = append(holes, c)
		}
	}
	inner := outer
	if hole, ok := Largest(holes); ok {
		if r, ok := world.NewRectangle(hole.ExtremeQuad()); ok && r.Area() > 0 {
			inner = r
		}
	}
	return &world.DrawingArea{Inner: inner, Outer: outer}, nil
}
