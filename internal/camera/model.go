// Package camera implements the projective camera model used to move between
// pixel space and the 3-D frame of the calibration chessboard, and the
// calibration session that produces it.
//
// Target-frame coordinates are expressed in chessboard squares. The target Z
// axis points away from the camera, so points above the table have negative Z.
package camera

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Model is an immutable pinhole camera model. It is safe to share between
// goroutines; every accessor returns a copy.
type Model struct {
	id           int
	intrinsic    [3][3]float64
	extrinsic    [3][4]float64
	cameraMatrix [3][4]float64
	rotation     [3][3]float64
	translation  r3.Vec
	distortion   []float64
	targetOrigin r2.Vec
}

// Parameters are the inputs of NewModel. CameraMatrix is stored as given and
// is never recomputed from Intrinsic and Extrinsic, so a loaded model
// reproduces its persisted matrices exactly.
type Parameters struct {
	ID           int
	Intrinsic    mat.Matrix // 3x3
	Extrinsic    mat.Matrix // 3x4
	CameraMatrix mat.Matrix // 3x4
	Rotation     mat.Matrix // 3x3
	Translation  r3.Vec
	Distortion   []float64
	TargetOrigin r2.Vec
}

// NewModel validates p and builds a Model.
func NewModel(p Parameters) (*Model, error) {
	m := &Model{
		id:           p.ID,
		translation:  p.Translation,
		targetOrigin: p.TargetOrigin,
		distortion:   append([]float64(nil), p.Distortion...),
	}
	if err := copy3x3(&m.intrinsic, p.Intrinsic, "intrinsic"); err != nil {
		return nil, err
	}
	if err := copy3x4(&m.extrinsic, p.Extrinsic, "extrinsic"); err != nil {
		return nil, err
	}
	if err := copy3x4(&m.cameraMatrix, p.CameraMatrix, "camera matrix"); err != nil {
		return nil, err
	}
	if err := copy3x3(&m.rotation, p.Rotation, "rotation"); err != nil {
		return nil, err
	}
	for _, row := range m.cameraMatrix {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: camera matrix is not finite", ErrInvalidModel)
			}
		}
	}
	return m, nil
}

// ID returns the model identifier used by repositories.
func (m *Model) ID() int { return m.id }

// Intrinsic returns a copy of the 3x3 intrinsic matrix.
func (m *Model) Intrinsic() *mat.Dense { return dense3x3(m.intrinsic) }

// Extrinsic returns a copy of the 3x4 [R|t] matrix.
func (m *Model) Extrinsic() *mat.Dense { return dense3x4(m.extrinsic) }

// CameraMatrix returns a copy of the 3x4 projection matrix.
func (m *Model) CameraMatrix() *mat.Dense { return dense3x4(m.cameraMatrix) }

// Rotation returns a copy of the 3x3 rotation matrix.
func (m *Model) Rotation() *mat.Dense { return dense3x3(m.rotation) }

// Translation returns the camera translation vector.
func (m *Model) Translation() r3.Vec { return m.translation }

// Distortion returns a copy of the lens distortion coefficients.
func (m *Model) Distortion() []float64 { return append([]float64(nil), m.distortion...) }

// TargetOrigin returns the pixel of the chessboard origin corner in the
// reference calibration image.
func (m *Model) TargetOrigin() r2.Vec { return m.targetOrigin }

// WithID returns a copy of m carrying a different identifier.
func (m *Model) WithID(id int) *Model {
	c := *m
	c.distortion = m.Distortion()
	c.id = id
	return &c
}

func copy3x3(dst *[3][3]float64, src mat.Matrix, name string) error {
	if src == nil {
		return fmt.Errorf("%w: missing %s", ErrInvalidModel, name)
	}
	if r, c := src.Dims(); r != 3 || c != 3 {
		return fmt.Errorf("%w: %s must be 3x3, got %dx%d", ErrInvalidModel, name, r, c)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst[i][j] = src.At(i, j)
		}
	}
	return nil
}

func copy3x4(dst *[3][4]float64, src mat.Matrix, name string) error {
	if src == nil {
		return fmt.Errorf("%w: missing %s", ErrInvalidModel, name)
	}
	if r, c := src.Dims(); r != 3 || c != 4 {
		return fmt.Errorf("%w: %s must be 3x4, got %dx%d", ErrInvalidModel, name, r, c)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			dst[i][j] = src.At(i, j)
		}
	}
	return nil
}

func dense3x3(a [3][3]float64) *mat.Dense {
	data := make([]float64, 0, 9)
	for _, row := range a {
		data = append(data, row[:]...)
	}
	return mat.NewDense(3, 3, data)
}

func dense3x4(a [3][4]float64) *mat.Dense {
	data := make([]float64, 0, 12)
	for _, row := range a {
		data = append(data, row[:]...)
	}
	return mat.NewDense(3, 4, data)
}
