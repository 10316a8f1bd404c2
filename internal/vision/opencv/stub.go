//go:build !gocv

package opencv

import (
	"image"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/detect"
	"github.com/agingrasc/design3-vision/internal/world"
)

// Available reports whether OpenCV support is compiled in.
const Available = false

type ChessboardFinder struct{}

func NewChessboardFinder() (*ChessboardFinder, error) { return nil, ErrUnavailable }

func (f *ChessboardFinder) FindCorners(image.Image, camera.TargetShape) ([]r2.Vec, error) {
	return nil, ErrUnavailable
}

func (f *ChessboardFinder) RefineCorners(image.Image, []r2.Vec) ([]r2.Vec, error) {
	return nil, ErrUnavailable
}

type Solver struct{}

func NewSolver() (*Solver, error) { return nil, ErrUnavailable }

func (s *Solver) Calibrate(camera.Correspondences) (camera.Solution, error) {
	return camera.Solution{}, ErrUnavailable
}

type Undistorter struct{}

func NewUndistorter() (*Undistorter, error) { return nil, ErrUnavailable }

func (u *Undistorter) Undistort(image.Image, mat.Matrix, []float64) (image.Image, error) {
	return nil, ErrUnavailable
}

type unavailableDetector struct{ name string }

func (d *unavailableDetector) Name() string { return d.name }

func (d *unavailableDetector) Detect(image.Image) (world.Element, error) {
	return nil, &detect.NotFoundError{Detector: d.name, Err: ErrUnavailable}
}

type TableDetector struct{ unavailableDetector }

func NewTableDetector() (*TableDetector, error) { return nil, ErrUnavailable }

type RobotDetector struct{ unavailableDetector }

func NewRobotDetector() (*RobotDetector, error) { return nil, ErrUnavailable }

type ObstacleDetector struct{ unavailableDetector }

func NewObstacleDetector() (*ObstacleDetector, error) { return nil, ErrUnavailable }

type Capture struct{}

func OpenCapture(CaptureSettings) (*Capture, error) { return nil, ErrUnavailable }

func (c *Capture) Grab() (image.Image, error) { return nil, ErrUnavailable }

func (c *Capture) Close() error { return nil }
