//go:build gocv

package opencv

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/agingrasc/design3-vision/internal/camera"
)

// Available reports whether OpenCV support is compiled in.
const Available = true

// ChessboardFinder locates chessboard corners with OpenCV.
type ChessboardFinder struct{}

// NewChessboardFinder returns a camera.CornerFinder.
func NewChessboardFinder() (*ChessboardFinder, error) {
	return &ChessboardFinder{}, nil
}

// FindCorners implements camera.CornerFinder.
func (f *ChessboardFinder) FindCorners(img image.Image, shape camera.TargetShape) ([]r2.Vec, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	corners := gocv.NewMat()
	defer corners.Close()
	pattern := image.Pt(shape.Columns, shape.Rows)
	if !gocv.FindChessboardCorners(gray, pattern, &corners, gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage) {
		return nil, fmt.Errorf("%w: no %dx%d board", camera.ErrCalibrationTargetNotFound, shape.Columns, shape.Rows)
	}
	return cornersFromMat(corners), nil
}

// RefineCorners implements camera.CornerFinder with sub-pixel refinement.
func (f *ChessboardFinder) RefineCorners(img image.Image, corners []r2.Vec) ([]r2.Vec, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	pts := make([]gocv.Point2f, len(corners))
	for i, c := range corners {
		pts[i] = gocv.Point2f{X: float32(c.X), Y: float32(c.Y)}
	}
	vec := gocv.NewPoint2fVectorFromPoints(pts)
	defer vec.Close()
	m := gocv.NewMatFromPoint2fVector(vec, true)
	defer m.Close()

	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, 30, 0.001)
	gocv.CornerSubPix(gray, &m, image.Pt(11, 11), image.Pt(-1, -1), criteria)
	return cornersFromMat(m), nil
}

// Solver runs OpenCV's Zhang calibration.
type Solver struct{}

// NewSolver returns a camera.Solver.
func NewSolver() (*Solver, error) {
	return &Solver{}, nil
}

// Calibrate implements camera.Solver.
func (s *Solver) Calibrate(c camera.Correspondences) (camera.Solution, error) {
	if len(c.ObjectPoints) == 0 || len(c.ObjectPoints) != len(c.ImagePoints) {
		return camera.Solution{}, errors.New("calibration needs matching object and image point sets")
	}

	objects := gocv.NewPoints3fVector()
	defer objects.Close()
	images := gocv.NewPoints2fVector()
	defer images.Close()
	for i := range c.ObjectPoints {
		obj := make([]gocv.Point3f, len(c.ObjectPoints[i]))
		for j, p := range c.ObjectPoints[i] {
			obj[j] = gocv.NewPoint3f(float32(p.X), float32(p.Y), float32(p.Z))
		}
		ov := gocv.NewPoint3fVectorFromPoints(obj)
		objects.Append(ov)
		ov.Close()

		img := make([]gocv.Point2f, len(c.ImagePoints[i]))
		for j, p := range c.ImagePoints[i] {
			img[j] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
		}
		iv := gocv.NewPoint2fVectorFromPoints(img)
		images.Append(iv)
		iv.Close()
	}

	K := gocv.NewMat()
	defer K.Close()
	dist := gocv.NewMat()
	defer dist.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	rms := gocv.CalibrateCamera(objects, images, c.ImageSize, &K, &dist, &rvecs, &tvecs, 0)

	sol := camera.Solution{
		Intrinsic: mat.NewDense(3, 3, nil),
		RMS:       rms,
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sol.Intrinsic.Set(i, j, K.GetDoubleAt(i, j))
		}
	}
	for i := 0; i < dist.Cols()*dist.Rows(); i++ {
		sol.Distortion = append(sol.Distortion, dist.GetDoubleAt(0, i))
	}
	for i := 0; i < len(c.ObjectPoints); i++ {
		r := rvecs.GetVecdAt(i, 0)
		t := tvecs.GetVecdAt(i, 0)
		if len(r) < 3 || len(t) < 3 {
			return camera.Solution{}, fmt.Errorf("calibration returned no pose for frame %d", i)
		}
		sol.RotationVectors = append(sol.RotationVectors, r3.Vec{X: r[0], Y: r[1], Z: r[2]})
		sol.TranslationVectors = append(sol.TranslationVectors, r3.Vec{X: t[0], Y: t[1], Z: t[2]})
	}
	return sol, nil
}

// Undistorter removes lens distortion with OpenCV.
type Undistorter struct{}

// NewUndistorter returns a camera.Undistorter.
func NewUndistorter() (*Undistorter, error) {
	return &Undistorter{}, nil
}

// Undistort implements camera.Undistorter.
func (u *Undistorter) Undistort(img image.Image, intrinsic mat.Matrix, distortion []float64) (image.Image, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	K := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer K.Close()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			K.SetDoubleAt(i, j, intrinsic.At(i, j))
		}
	}
	D := gocv.NewMatWithSize(1, len(distortion), gocv.MatTypeCV64F)
	defer D.Close()
	for i, d := range distortion {
		D.SetDoubleAt(0, i, d)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Undistort(src, &dst, K, D, K)
	return dst.ToImage()
}

func grayMat(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.Mat{}, errors.New("nil image")
	}
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer rgb.Close()
	gray := gocv.NewMat()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)
	return gray, nil
}

func cornersFromMat(m gocv.Mat) []r2.Vec {
	out := make([]r2.Vec, 0, m.Rows())
	for i := 0; i < m.Rows(); i++ {
		v := m.GetVecfAt(i, 0)
		out = append(out, r2.Vec{X: float64(v[0]), Y: float64(v[1])})
	}
	return out
}
