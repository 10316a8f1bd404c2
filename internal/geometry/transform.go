// Package geometry holds the planar homogeneous transforms that move points
// between the calibration target frame and the table (world) frame.
//
// Transforms are 3x3 row-major matrices acting on column vectors [x y 1]ᵀ.
// Builder methods left-multiply, so
//
//	Identity().Rotate(a).Translate(x, y)
//
// rotates first and translates second.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrSingularTransform is returned when a transform has no inverse.
	ErrSingularTransform = errors.New("transform is singular")
	// ErrPointAtInfinity is returned when de-homogenizing a point whose
	// homogeneous coordinate is zero.
	ErrPointAtInfinity = errors.New("homogeneous point at infinity")
)

// HomogeneousTolerance is the magnitude under which a homogeneous scale
// factor is treated as zero.
const HomogeneousTolerance = 1e-12

// Transform is an immutable 3x3 homogeneous 2-D transform stored row-major.
type Transform [9]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// FromRows builds a transform from nested row-major values, as persisted in
// JSON documents.
func FromRows(rows [][]float64) (Transform, error) {
	if len(rows) != 3 {
		return Transform{}, fmt.Errorf("transform needs 3 rows, got %d", len(rows))
	}
	var t Transform
	for i, row := range rows {
		if len(row) != 3 {
			return Transform{}, fmt.Errorf("transform row %d needs 3 columns, got %d", i, len(row))
		}
		copy(t[i*3:], row)
	}
	return t, nil
}

// Rows returns the transform as nested row-major values.
func (t Transform) Rows() [][]float64 {
	return [][]float64{
		{t[0], t[1], t[2]},
		{t[3], t[4], t[5]},
		{t[6], t[7], t[8]},
	}
}

// At returns the element at row i, column j.
func (t Transform) At(i, j int) float64 {
	return t[i*3+j]
}

// Rotate applies a counter-clockwise rotation of deg degrees after t.
func (t Transform) Rotate(deg float64) Transform {
	rad := deg * math.Pi / 180.0
	c, s := math.Cos(rad), math.Sin(rad)
	return Transform{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}.Mul(t)
}

// Translate applies a translation by (x, y) after t.
func (t Transform) Translate(x, y float64) Transform {
	return Transform{
		1, 0, x,
		0, 1, y,
		0, 0, 1,
	}.Mul(t)
}

// Scale applies a uniform scale after t.
func (t Transform) Scale(f float64) Transform {
	return Transform{
		f, 0, 0,
		0, f, 0,
		0, 0, 1,
	}.Mul(t)
}

// Mul returns the product t·u, i.e. u applied first.
func (t Transform) Mul(u Transform) Transform {
	var out mat.Dense
	out.Mul(t.dense(), u.dense())
	return fromDense(&out)
}

// Inverse returns t⁻¹.
func (t Transform) Inverse() (Transform, error) {
	d := t.dense()
	if math.Abs(mat.Det(d)) < HomogeneousTolerance {
		return Transform{}, ErrSingularTransform
	}
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return Transform{}, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}
	return fromDense(&inv), nil
}

// ApplyHomogeneous returns t·[x y 1]ᵀ without de-homogenizing.
func (t Transform) ApplyHomogeneous(p r2.Vec) (x, y, w float64) {
	x = t[0]*p.X + t[1]*p.Y + t[2]
	y = t[3]*p.X + t[4]*p.Y + t[5]
	w = t[6]*p.X + t[7]*p.Y + t[8]
	return
}

// Apply maps p through t and divides by the homogeneous coordinate.
func (t Transform) Apply(p r2.Vec) (r2.Vec, error) {
	x, y, w := t.ApplyHomogeneous(p)
	if math.Abs(w) < HomogeneousTolerance {
		return r2.Vec{}, ErrPointAtInfinity
	}
	return r2.Vec{X: x / w, Y: y / w}, nil
}

// IsRigid reports whether t is a proper rotation plus translation within tol.
func (t Transform) IsRigid(tol float64) bool {
	det := t[0]*t[4] - t[1]*t[3]
	if math.Abs(det-1) > tol {
		return false
	}
	return t[6] == 0 && t[7] == 0 && math.Abs(t[8]-1) <= tol
}

func (t Transform) dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, t[:])
	return mat.NewDense(3, 3, data)
}

func fromDense(m *mat.Dense) Transform {
	var t Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i*3+j] = m.At(i, j)
		}
	}
	return t
}
