package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestTransform_RotateThenTranslate(t *testing.T) {
	t.Parallel()

	tr := Identity().Rotate(90).Translate(10, 5)

	p, err := tr.Apply(r2.Vec{X: 1, Y: 0})
	require.NoError(t, err)
	// (1,0) rotated 90° is (0,1), then shifted.
	assert.InDelta(t, 10.0, p.X, 1e-12)
	assert.InDelta(t, 6.0, p.Y, 1e-12)
}

func TestTransform_InverseUndoesRigidMotion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		angle float64
		x, y  float64
	}{
		{"identity", 0, 0, 0},
		{"pure translation", 0, -3.5, 12},
		{"quarter turn", 90, 1, 1},
		{"oblique", 37.5, 4.2, -8.1},
		{"near half turn", 179.9, 0.5, 0.25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			forward := Identity().Rotate(tt.angle).Translate(tt.x, tt.y)
			inverse, err := forward.Inverse()
			require.NoError(t, err)
			assert.True(t, inverse.IsRigid(1e-9))

			for _, p := range []r2.Vec{{X: 0, Y: 0}, {X: 3, Y: -2}, {X: -7.5, Y: 11}} {
				q, err := forward.Apply(p)
				require.NoError(t, err)
				back, err := inverse.Apply(q)
				require.NoError(t, err)
				assert.InDelta(t, p.X, back.X, 1e-9)
				assert.InDelta(t, p.Y, back.Y, 1e-9)
			}
		})
	}
}

func TestTransform_Scale(t *testing.T) {
	t.Parallel()

	p, err := Identity().Translate(1, 1).Scale(44).Apply(r2.Vec{X: 1, Y: 2})
	require.NoError(t, err)
	assert.InDelta(t, 88.0, p.X, 1e-12)
	assert.InDelta(t, 132.0, p.Y, 1e-12)
}

func TestTransform_InverseSingular(t *testing.T) {
	t.Parallel()

	_, err := Identity().Scale(0).Inverse()
	assert.ErrorIs(t, err, ErrSingularTransform)
}

func TestTransform_ApplyAtInfinity(t *testing.T) {
	t.Parallel()

	projective := Transform{
		1, 0, 0,
		0, 1, 0,
		1, 0, 0,
	}
	_, err := projective.Apply(r2.Vec{X: 0, Y: 4})
	assert.ErrorIs(t, err, ErrPointAtInfinity)

	p, err := projective.Apply(r2.Vec{X: 2, Y: 4})
	require.NoError(t, err)
	assert.Equal(t, r2.Vec{X: 1, Y: 2}, p)
}

func TestTransform_RowsRoundTrip(t *testing.T) {
	t.Parallel()

	tr := Identity().Rotate(12).Translate(3, 4)
	back, err := FromRows(tr.Rows())
	require.NoError(t, err)
	assert.Equal(t, tr, back)

	_, err = FromRows([][]float64{{1, 0, 0}, {0, 1}})
	assert.Error(t, err)
}

func TestUnsignedAngle(t *testing.T) {
	t.Parallel()

	ref := r2.Vec{X: 5, Y: 0}

	angle, err := UnsignedAngle(ref, r2.Vec{X: 0, Y: 3})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, angle, 1e-12)

	// Mirror images about the reference axis are indistinguishable.
	up, err := UnsignedAngle(ref, r2.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	down, err := UnsignedAngle(ref, r2.Vec{X: 1, Y: -1})
	require.NoError(t, err)
	assert.InDelta(t, up, down, 1e-12)
	assert.InDelta(t, 45.0, RadToDeg(up), 1e-9)

	// Parallel vectors must not produce NaN from rounding.
	angle, err = UnsignedAngle(ref, r2.Vec{X: 1e-3, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, angle)

	_, err = UnsignedAngle(ref, r2.Vec{})
	assert.ErrorIs(t, err, ErrZeroLengthVector)
}

func TestDistance(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 5.0, Distance(r2.Vec{X: 1, Y: 1}, r2.Vec{X: 4, Y: 5}), 1e-12)
}
