// Package opencv implements the detectors, the chessboard calibration
// collaborators and camera capture on top of OpenCV (gocv). The OpenCV code
// is only compiled with the gocv build tag; without it every constructor
// returns ErrUnavailable.
package opencv

import "errors"

// ErrUnavailable is returned when the binary was built without the gocv tag.
var ErrUnavailable = errors.New("opencv support not compiled in (build with -tags gocv)")

// Detector tuning.
const (
	// MinTableArea is the smallest table rectangle accepted, in pixels.
	MinTableArea = 200000

	robotMarkerMinDistance = 12
	robotMarkerMinRadius   = 5
	robotMarkerMaxRadius   = 30

	obstacleMinDistance = 20
	obstacleMinRadius   = 30
	obstacleMaxRadius   = 42
)

// CaptureSettings configures a camera device.
type CaptureSettings struct {
	Device int
	Width  int
	Height int
	FPS    int
}

// DefaultCaptureSettings matches the overhead camera of the playing field.
func DefaultCaptureSettings() CaptureSettings {
	return CaptureSettings{Device: 0, Width: 1280, Height: 800, FPS: 15}
}
