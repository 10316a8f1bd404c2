// Package detect defines the detector contract and the orchestration that
// runs every registered detector over a frame.
package detect

import (
	"errors"
	"fmt"
	"image"

	"github.com/agingrasc/design3-vision/internal/world"
)

// Detector finds one world element in an image. Every failure, including
// malformed input, is reported as a *NotFoundError. Detectors must not mutate
// shared state.
type Detector interface {
	Detect(img image.Image) (world.Element, error)
}

// Named is implemented by detectors that want a readable name in logs.
type Named interface {
	Name() string
}

// NameOf returns the name of d, falling back to its type.
func NameOf(d Detector) string {
	if n, ok := d.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", d)
}

// NotFoundError reports that a detector could not find its element.
type NotFoundError struct {
	Detector string
	Reason   string
	Err      error
}

func (e *NotFoundError) Error() string {
	msg := e.Detector + ": not found"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// NotFound returns a *NotFoundError for detector with a formatted reason.
func NotFound(detector, format string, args ...any) error {
	return &NotFoundError{Detector: detector, Reason: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// asNotFound folds any detector failure into the NotFound class.
func asNotFound(name string, err error) *NotFoundError {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	return &NotFoundError{Detector: name, Reason: "unexpected failure", Err: err}
}
