package detect

import (
	"image"

	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/world"
)

// DetectOnce memoizes the first successful detection of a physically static
// element. Until ResetDetection is called the wrapped detector is not invoked
// again. DetectOnce is owned by the frame loop and is not safe for concurrent
// use.
type DetectOnce struct {
	inner       Detector
	hasDetected bool
	cached      world.Element
}

// NewDetectOnce wraps d.
func NewDetectOnce(d Detector) *DetectOnce {
	return &DetectOnce{inner: d}
}

// Detect returns the cached element, or delegates until the first success.
// A failure leaves the proxy untouched so the next frame retries.
func (p *DetectOnce) Detect(img image.Image) (world.Element, error) {
	if p.hasDetected {
		return p.cached, nil
	}
	e, err := p.inner.Detect(img)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &NotFoundError{Detector: NameOf(p.inner), Reason: "detector returned no element"}
	}
	p.cached = e
	p.hasDetected = true
	monitoring.Logf("[detect] %s locked: %s", NameOf(p.inner), world.Describe(e))
	return e, nil
}

// ResetDetection forgets the cached element.
func (p *DetectOnce) ResetDetection() {
	p.hasDetected = false
	p.cached = nil
}

// Cached returns the memoized element, if any.
func (p *DetectOnce) Cached() (world.Element, bool) {
	return p.cached, p.hasDetected
}

// Name implements Named.
func (p *DetectOnce) Name() string {
	return "once(" + NameOf(p.inner) + ")"
}
