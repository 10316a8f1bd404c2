package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// overheadCamera is a camera about 20 squares above a board, tilted slightly.
func overheadCamera(t *testing.T) *Model {
	t.Helper()
	K := mat.NewDense(3, 3, []float64{
		800, 0, 640,
		0, 800, 480,
		0, 0, 1,
	})
	m, err := Compose(1, K,
		r3.Vec{X: 0.08, Y: -0.05, Z: 0.02},
		r3.Vec{X: -4, Y: -3, Z: 20},
		[]float64{0.1, -0.2, 0, 0, 0.05},
		r2.Vec{X: 320, Y: 240},
	)
	require.NoError(t, err)
	return m
}

func TestTargetToImage_PrincipalPoint(t *testing.T) {
	t.Parallel()
	K := mat.NewDense(3, 3, []float64{
		500, 0, 320,
		0, 500, 240,
		0, 0, 1,
	})
	m, err := Compose(0, K, r3.Vec{}, r3.Vec{Z: 10}, nil, r2.Vec{})
	require.NoError(t, err)

	p, err := m.TargetToImage(0, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 320, p.X, 1e-9)
	assert.InDelta(t, 240, p.Y, 1e-9)

	// one square right at depth 10 moves 50 pixels
	p, err = m.TargetToImage(1, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 370, p.X, 1e-9)

	// points above the board (negative Z) are closer and spread further
	p, err = m.TargetToImage(1, 0, -5)
	require.NoError(t, err)
	assert.InDelta(t, 420, p.X, 1e-9)
}

func TestTargetToImage_BehindCamera(t *testing.T) {
	t.Parallel()
	K := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	m, err := Compose(0, K, r3.Vec{}, r3.Vec{Z: 10}, nil, r2.Vec{})
	require.NoError(t, err)

	_, err = m.TargetToImage(0, 0, -10)
	assert.ErrorIs(t, err, ErrDegenerateProjection)
	_, err = m.TargetToImage(0, 0, -15)
	assert.ErrorIs(t, err, ErrDegenerateProjection)
}

func TestImageToTarget_RoundTrip(t *testing.T) {
	t.Parallel()
	m := overheadCamera(t)

	tests := []struct {
		name    string
		x, y, z float64
	}{
		{"origin", 0, 0, 0},
		{"board corner", 8, 5, 0},
		{"fractional", 3.25, 1.75, 0},
		{"negative quadrant", -2, -1.5, 0},
		{"robot marker height", 6, 4, -3.5},
		{"obstacle marker height", 2, 7, -9.1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			px, err := m.TargetToImage(tt.x, tt.y, tt.z)
			require.NoError(t, err)

			p, err := m.ImageToTarget(px.X, px.Y, tt.z)
			require.NoError(t, err)
			assert.InDelta(t, tt.x, p.X, 1e-6)
			assert.InDelta(t, tt.y, p.Y, 1e-6)
			assert.InDelta(t, tt.z, p.Z, 1e-9)
		})
	}
}

func TestImageToTarget_PixelRoundTrip(t *testing.T) {
	t.Parallel()
	m := overheadCamera(t)
	for _, px := range []r2.Vec{{X: 0, Y: 0}, {X: 640, Y: 480}, {X: 1279, Y: 959}, {X: 100.5, Y: 800.25}} {
		p, err := m.ImageToTarget(px.X, px.Y, 0)
		require.NoError(t, err)
		back, err := m.TargetToImage(p.X, p.Y, p.Z)
		require.NoError(t, err)
		assert.InDelta(t, px.X, back.X, 1e-6)
		assert.InDelta(t, px.Y, back.Y, 1e-6)
	}
}

func TestImageToTarget_Degenerate(t *testing.T) {
	t.Parallel()
	id3 := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	P := mat.NewDense(3, 4, []float64{
		1, 0, 0, 0,
		2, 0, 0, 0,
		0, 0, 0, 1,
	})
	m, err := NewModel(Parameters{
		Intrinsic:    id3,
		Extrinsic:    P,
		CameraMatrix: P,
		Rotation:     id3,
	})
	require.NoError(t, err)

	_, err = m.ImageToTarget(0, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateProjection))
}

func TestImageToTarget_ParallelRay(t *testing.T) {
	t.Parallel()
	// camera looking along the board plane: every ray is parallel to Z=const
	K := mat.NewDense(3, 3, []float64{500, 0, 320, 0, 500, 240, 0, 0, 1})
	m, err := Compose(0, K, r3.Vec{X: math.Pi / 2}, r3.Vec{Z: 10}, nil, r2.Vec{})
	require.NoError(t, err)

	_, err = m.ImageToTarget(320, 240, 0)
	assert.ErrorIs(t, err, ErrDegenerateProjection)
}

func TestNewModel_Validation(t *testing.T) {
	t.Parallel()
	id3 := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	P := mat.NewDense(3, 4, nil)

	_, err := NewModel(Parameters{Intrinsic: id3, Extrinsic: P, CameraMatrix: P})
	assert.ErrorIs(t, err, ErrInvalidModel, "missing rotation")

	_, err = NewModel(Parameters{Intrinsic: P, Extrinsic: P, CameraMatrix: P, Rotation: id3})
	assert.ErrorIs(t, err, ErrInvalidModel, "wrong intrinsic shape")

	bad := mat.NewDense(3, 4, []float64{math.NaN(), 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1})
	_, err = NewModel(Parameters{Intrinsic: id3, Extrinsic: P, CameraMatrix: bad, Rotation: id3})
	assert.ErrorIs(t, err, ErrInvalidModel, "non-finite camera matrix")
}

func TestModel_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()
	m := overheadCamera(t)

	P := m.CameraMatrix()
	P.Set(0, 0, 0)
	assert.NotEqual(t, 0.0, m.CameraMatrix().At(0, 0))

	d := m.Distortion()
	d[0] = 42
	assert.Equal(t, 0.1, m.Distortion()[0])

	other := m.WithID(7)
	assert.Equal(t, 7, other.ID())
	assert.Equal(t, 1, m.ID())
}

func TestCompose_CameraMatrixIsKTimesExtrinsic(t *testing.T) {
	t.Parallel()
	m := overheadCamera(t)

	var want mat.Dense
	want.Mul(m.Intrinsic(), m.Extrinsic())
	assert.True(t, mat.EqualApprox(&want, m.CameraMatrix(), 1e-12))

	E := m.Extrinsic()
	tv := m.Translation()
	assert.Equal(t, []float64{tv.X, tv.Y, tv.Z}, []float64{E.At(0, 3), E.At(1, 3), E.At(2, 3)})
}

func TestRodrigues(t *testing.T) {
	t.Parallel()

	t.Run("zero vector is identity", func(t *testing.T) {
		R := Rodrigues(r3.Vec{})
		assert.True(t, mat.EqualApprox(R, mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 1e-15))
	})

	t.Run("quarter turn about z", func(t *testing.T) {
		R := Rodrigues(r3.Vec{Z: math.Pi / 2})
		want := mat.NewDense(3, 3, []float64{
			0, -1, 0,
			1, 0, 0,
			0, 0, 1,
		})
		assert.True(t, mat.EqualApprox(R, want, 1e-12))
	})

	t.Run("orthonormal with unit determinant", func(t *testing.T) {
		R := Rodrigues(r3.Vec{X: 0.3, Y: -1.1, Z: 0.7})
		var RtR mat.Dense
		RtR.Mul(R.T(), R)
		assert.True(t, mat.EqualApprox(&RtR, mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 1e-12))
		assert.InDelta(t, 1, mat.Det(R), 1e-12)
	})
}
