package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/agingrasc/design3-vision/internal/monitoring"
)

// boardMarker flags an image as showing the chessboard.
var boardMarker = color.Gray{Y: 255}

func boardImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(0, 0, boardMarker)
	return img
}

func blankImage(w, h int) image.Image {
	return image.NewGray(image.Rect(0, 0, w, h))
}

// fakeFinder reports a board when pixel (0,0) carries boardMarker. Corners
// are laid out on a regular grid offset by the image width so tests can tell
// which image a corner set came from.
type fakeFinder struct {
	calls     atomic.Int32
	refineErr error
}

func (f *fakeFinder) FindCorners(img image.Image, shape TargetShape) ([]r2.Vec, error) {
	f.calls.Add(1)
	if img.At(0, 0) != boardMarker {
		return nil, errors.New("board not visible")
	}
	w := float64(img.Bounds().Dx())
	out := make([]r2.Vec, 0, shape.Corners())
	for j := 0; j < shape.Rows; j++ {
		for i := 0; i < shape.Columns; i++ {
			out = append(out, r2.Vec{X: w + float64(i)*10, Y: float64(j) * 10})
		}
	}
	return out, nil
}

func (f *fakeFinder) RefineCorners(_ image.Image, corners []r2.Vec) ([]r2.Vec, error) {
	if f.refineErr != nil {
		return nil, f.refineErr
	}
	return corners, nil
}

type fakeSolver struct {
	got Correspondences
	err error
}

func (s *fakeSolver) Calibrate(c Correspondences) (Solution, error) {
	s.got = c
	if s.err != nil {
		return Solution{}, s.err
	}
	n := len(c.ImagePoints)
	sol := Solution{
		Intrinsic:  mat.NewDense(3, 3, []float64{700, 0, 320, 0, 700, 240, 0, 0, 1}),
		Distortion: []float64{0.01, 0, 0, 0, 0},
		RMS:        0.42,
	}
	for i := 0; i < n; i++ {
		sol.RotationVectors = append(sol.RotationVectors, r3.Vec{Z: float64(i) * 0.1})
		sol.TranslationVectors = append(sol.TranslationVectors, r3.Vec{X: float64(i), Z: 15})
	}
	return sol, nil
}

func newTestCalibration(t *testing.T, opts ...Option) (*Calibration, *fakeFinder, *fakeSolver) {
	t.Helper()
	finder, solver := &fakeFinder{}, &fakeSolver{}
	c, err := NewCalibration(TargetShape{Columns: 9, Rows: 6}, finder, solver, opts...)
	require.NoError(t, err)
	return c, finder, solver
}

func TestTargetShape_ObjectPoints(t *testing.T) {
	t.Parallel()
	pts := TargetShape{Columns: 3, Rows: 2}.ObjectPoints()
	assert.Equal(t, []r3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0},
		{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1},
	}, pts)
}

func TestNewCalibration_Validation(t *testing.T) {
	t.Parallel()
	_, err := NewCalibration(TargetShape{Columns: 1, Rows: 6}, &fakeFinder{}, &fakeSolver{})
	assert.Error(t, err)
	_, err = NewCalibration(TargetShape{Columns: 9, Rows: 6}, nil, &fakeSolver{})
	assert.Error(t, err)

	c, _, _ := newTestCalibration(t)
	assert.NotEmpty(t, c.SessionID())
	c2, _, _ := newTestCalibration(t)
	assert.NotEqual(t, c.SessionID(), c2.SessionID())
}

func TestCollectTargetImage_Monotonic(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestCalibration(t)

	require.NoError(t, c.CollectTargetImage(boardImage(640, 480)))
	assert.Equal(t, 1, c.AcceptedFrames())

	err := c.CollectTargetImage(blankImage(640, 480))
	assert.ErrorIs(t, err, ErrCalibrationTargetNotFound)
	assert.Equal(t, 1, c.AcceptedFrames(), "failed collect must not change the session")

	require.NoError(t, c.CollectTargetImage(boardImage(640, 480)))
	assert.Equal(t, 2, c.AcceptedFrames())
	assert.Len(t, c.targetPoints, 2)
	assert.Len(t, c.imagePoints, 2)
}

func TestCollectTargetImage_RefineFailure(t *testing.T) {
	t.Parallel()
	c, finder, _ := newTestCalibration(t)
	finder.refineErr = errors.New("refinement diverged")

	err := c.CollectTargetImage(boardImage(640, 480))
	assert.ErrorIs(t, err, ErrCalibrationTargetNotFound)
	assert.Equal(t, 0, c.AcceptedFrames())
}

func TestCollectTargetImage_SizeMismatch(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestCalibration(t)
	require.NoError(t, c.CollectTargetImage(boardImage(640, 480)))

	err := c.CollectTargetImage(boardImage(320, 240))
	assert.ErrorIs(t, err, ErrImageSizeMismatch)
	assert.Equal(t, 1, c.AcceptedFrames())
}

func TestFinalize_NoCorrespondences(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestCalibration(t)
	require.Error(t, c.CollectTargetImage(blankImage(640, 480)))

	_, err := c.Finalize()
	assert.ErrorIs(t, err, ErrNoCorrespondencesCollected)
}

func TestFinalize_UsesReferenceFrame(t *testing.T) {
	t.Parallel()
	c, _, solver := newTestCalibration(t, WithModelID(4))
	for i := 0; i < 3; i++ {
		require.NoError(t, c.CollectTargetImage(boardImage(640, 480)))
	}

	m, err := c.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 4, m.ID())
	assert.Equal(t, image.Pt(640, 480), solver.got.ImageSize)
	assert.Len(t, solver.got.ObjectPoints, 3)

	// extrinsic of the first accepted frame
	assert.Equal(t, r3.Vec{X: 0, Z: 15}, m.Translation())
	assert.True(t, mat.EqualApprox(m.Rotation(), mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 1e-15))
	assert.Equal(t, r2.Vec{X: 640, Y: 0}, m.TargetOrigin())

	assert.Equal(t, 0.42, c.RMS())
	assert.Equal(t, QualityGood, c.Quality())
}

func TestFinalize_OnlyOnce(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestCalibration(t)
	require.NoError(t, c.CollectTargetImage(boardImage(640, 480)))
	_, err := c.Finalize()
	require.NoError(t, err)

	_, err = c.Finalize()
	assert.ErrorIs(t, err, ErrCalibrationFinalized)
	assert.ErrorIs(t, c.CollectTargetImage(boardImage(640, 480)), ErrCalibrationFinalized)
	_, err = c.CollectTargetImages(context.Background(), nil, 1)
	assert.ErrorIs(t, err, ErrCalibrationFinalized)
}

func TestFinalize_SolverFailureKeepsSession(t *testing.T) {
	t.Parallel()
	c, _, solver := newTestCalibration(t)
	require.NoError(t, c.CollectTargetImage(boardImage(640, 480)))

	solver.err = errors.New("ill-conditioned")
	_, err := c.Finalize()
	require.Error(t, err)

	solver.err = nil
	_, err = c.Finalize()
	assert.NoError(t, err)
}

func TestCollectTargetImages_Batch(t *testing.T) {
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	c, finder, _ := newTestCalibration(t)
	images := []image.Image{
		boardImage(640, 480),
		blankImage(640, 480),
		boardImage(640, 480),
		boardImage(320, 240), // size mismatch
		blankImage(640, 480),
		boardImage(640, 480),
	}

	report, err := c.CollectTargetImages(context.Background(), images, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Accepted)
	require.Len(t, report.Rejected, 3)
	for i, want := range []struct {
		index int
		err   error
	}{
		{1, ErrCalibrationTargetNotFound},
		{3, ErrImageSizeMismatch},
		{4, ErrCalibrationTargetNotFound},
	} {
		assert.Equal(t, want.index, report.Rejected[i].Index)
		assert.ErrorIs(t, report.Rejected[i].Err, want.err)
	}
	assert.Equal(t, 3, c.AcceptedFrames())
	assert.EqualValues(t, len(images), finder.calls.Load())
}

func TestCollectTargetImages_Cancelled(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestCalibration(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CollectTargetImages(ctx, []image.Image{boardImage(640, 480)}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.AcceptedFrames())
}

func TestGradeReprojectionError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rms  float64
		want Quality
	}{
		{0, QualityUnknown},
		{0.1, QualityExcellent},
		{0.3, QualityGood},
		{0.59, QualityGood},
		{0.6, QualityFair},
		{1.0, QualityPoor},
		{4.2, QualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeReprojectionError(tt.rms), "rms %v", tt.rms)
	}
	assert.False(t, QualityPoor.Usable())
	assert.True(t, QualityFair.Usable())
	assert.Contains(t, QualityExcellent.String(), "excellent")
}
