package testutil

import (
	"image"

	"github.com/agingrasc/design3-vision/internal/detect"
	"github.com/agingrasc/design3-vision/internal/world"
)

// ScriptedDetector returns Frames[i] on its i-th call. A nil entry is
// reported as not found; once the script runs out the last entry repeats.
type ScriptedDetector struct {
	Label  string
	Frames []world.Element
	Calls  int
}

// Name implements detect.Named.
func (d *ScriptedDetector) Name() string { return d.Label }

// Detect implements detect.Detector.
func (d *ScriptedDetector) Detect(image.Image) (world.Element, error) {
	i := d.Calls
	d.Calls++
	if len(d.Frames) == 0 {
		return nil, detect.NotFound(d.Label, "empty script")
	}
	if i >= len(d.Frames) {
		i = len(d.Frames) - 1
	}
	if d.Frames[i] == nil {
		return nil, detect.NotFound(d.Label, "not in frame %d", i)
	}
	return d.Frames[i], nil
}

// FailingDetector never finds anything.
type FailingDetector struct {
	Label string
	Calls int
}

// Name implements detect.Named.
func (d *FailingDetector) Name() string { return d.Label }

// Detect implements detect.Detector.
func (d *FailingDetector) Detect(image.Image) (world.Element, error) {
	d.Calls++
	return nil, detect.NotFound(d.Label, "always fails")
}
