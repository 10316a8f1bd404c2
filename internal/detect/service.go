package detect

import (
	"errors"
	"fmt"
	"image"
	"reflect"

	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/world"
)

// ErrDuplicateDetectorRegistration is returned when the same detector value
// is registered twice.
var ErrDuplicateDetectorRegistration = errors.New("detector already registered")

// Service runs every registered detector over a frame. A failing detector is
// isolated: its error is logged and recorded, and the others still run.
// Service is driven by the frame loop and is not safe for concurrent use.
type Service struct {
	detectors []Detector
	failures  []*NotFoundError
}

// NewService returns an empty Service.
func NewService() *Service {
	return &Service{}
}

// Register adds d. Registration is identity based, so two distinct values of
// the same detector type are both accepted.
func (s *Service) Register(d Detector) error {
	if d == nil {
		return errors.New("cannot register nil detector")
	}
	if !reflect.TypeOf(d).Comparable() {
		return fmt.Errorf("detector %s has a non-comparable type and cannot be registered", NameOf(d))
	}
	for _, existing := range s.detectors {
		if existing == d {
			return fmt.Errorf("%w: %s", ErrDuplicateDetectorRegistration, NameOf(d))
		}
	}
	s.detectors = append(s.detectors, d)
	return nil
}

// Detectors returns the registered detectors in registration order.
func (s *Service) Detectors() []Detector {
	return append([]Detector(nil), s.detectors...)
}

// DetectAll invokes every detector once, in registration order, and returns
// the elements of those that succeeded.
func (s *Service) DetectAll(img image.Image) []world.Element {
	s.failures = s.failures[:0]
	elements := make([]world.Element, 0, len(s.detectors))
	for _, d := range s.detectors {
		e, err := s.run(d, img)
		if err != nil {
			nf := asNotFound(NameOf(d), err)
			s.failures = append(s.failures, nf)
			monitoring.Logf("[detect] %v", nf)
			continue
		}
		if e == nil {
			nf := &NotFoundError{Detector: NameOf(d), Reason: "detector returned no element"}
			s.failures = append(s.failures, nf)
			monitoring.Logf("[detect] %v", nf)
			continue
		}
		elements = append(elements, e)
	}
	return elements
}

// run calls d, turning a panic into an error so one detector cannot take
// down the frame.
func (s *Service) run(d Detector, img image.Image) (e world.Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Detect(img)
}

// Failures returns the failures of the last DetectAll pass.
func (s *Service) Failures() []*NotFoundError {
	return append([]*NotFoundError(nil), s.failures...)
}

// ResetDetection resets every registered DetectOnce proxy and returns how
// many were reset.
func (s *Service) ResetDetection() int {
	n := 0
	for _, d := range s.detectors {
		if p, ok := d.(*DetectOnce); ok {
			p.ResetDetection()
			n++
		}
	}
	return n
}

// ResetKind resets the DetectOnce proxies whose cached element is of kind k.
func (s *Service) ResetKind(k world.Kind) int {
	n := 0
	for _, d := range s.detectors {
		p, ok := d.(*DetectOnce)
		if !ok {
			continue
		}
		if e, cached := p.Cached(); cached && e.Kind() == k {
			p.ResetDetection()
			n++
		}
	}
	return n
}
