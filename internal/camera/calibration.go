package camera

import (
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// TargetShape is the number of inner corners of the calibration chessboard
// along each axis.
type TargetShape struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// Corners returns the number of inner corners on the board.
func (s TargetShape) Corners() int { return s.Columns * s.Rows }

// ObjectPoints returns the board corners in the target frame, one square per
// unit, row by row: (i, j, 0) for j in rows and i in columns.
func (s TargetShape) ObjectPoints() []r3.Vec {
	pts := make([]r3.Vec, 0, s.Corners())
	for j := 0; j < s.Rows; j++ {
		for i := 0; i < s.Columns; i++ {
			pts = append(pts, r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	return pts
}

// CornerFinder locates chessboard corners in an image. FindCorners must
// return an error when the full board is not visible.
type CornerFinder interface {
	FindCorners(img image.Image, shape TargetShape) ([]r2.Vec, error)
	RefineCorners(img image.Image, corners []r2.Vec) ([]r2.Vec, error)
}

// Correspondences are the inputs of a calibration solve: one entry per
// accepted image in both lists.
type Correspondences struct {
	ObjectPoints [][]r3.Vec
	ImagePoints  [][]r2.Vec
	ImageSize    image.Point
}

// Solution is the output of a calibration solve: shared intrinsics and one
// extrinsic pose per accepted image.
type Solution struct {
	Intrinsic          *mat.Dense
	Distortion         []float64
	RotationVectors    []r3.Vec
	TranslationVectors []r3.Vec
	// RMS is the root mean square reprojection error in pixels.
	RMS float64
}

// Solver fits a camera model to correspondences (Zhang's method).
type Solver interface {
	Calibrate(c Correspondences) (Solution, error)
}

// Option configures a Calibration.
type Option func(*Calibration)

// WithModelID sets the id given to the produced Model.
func WithModelID(id int) Option {
	return func(c *Calibration) { c.modelID = id }
}

// Calibration accumulates chessboard observations and produces a Model once.
// It is not safe for concurrent use.
type Calibration struct {
	sessionID string
	shape     TargetShape
	finder    CornerFinder
	solver    Solver
	modelID   int

	imageSize      image.Point
	imagePoints    [][]r2.Vec
	targetPoints   [][]r3.Vec
	referenceFrame int

	finalized bool
	rms       float64
}

// NewCalibration starts a calibration session for boards of the given shape.
func NewCalibration(shape TargetShape, finder CornerFinder, solver Solver, opts ...Option) (*Calibration, error) {
	if shape.Columns < 2 || shape.Rows < 2 {
		return nil, fmt.Errorf("target shape needs at least 2x2 inner corners, got %dx%d", shape.Columns, shape.Rows)
	}
	if finder == nil || solver == nil {
		return nil, errors.New("calibration needs a corner finder and a solver")
	}
	c := &Calibration{
		sessionID: uuid.New().String(),
		shape:     shape,
		finder:    finder,
		solver:    solver,
		modelID:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SessionID identifies this calibration run.
func (c *Calibration) SessionID() string { return c.sessionID }

// Shape returns the target shape of the session.
func (c *Calibration) Shape() TargetShape { return c.shape }

// AcceptedFrames returns the number of images accepted so far.
func (c *Calibration) AcceptedFrames() int { return len(c.imagePoints) }

// RMS returns the reprojection error of the finalized solve, or 0 before Finalize.
func (c *Calibration) RMS() float64 { return c.rms }

// Quality grades the reprojection error of the finalized solve.
func (c *Calibration) Quality() Quality { return GradeReprojectionError(c.rms) }

// CollectTargetImage looks for the chessboard in img and records its
// correspondences. When the board is not found the error wraps
// ErrCalibrationTargetNotFound and the session is unchanged.
func (c *Calibration) CollectTargetImage(img image.Image) error {
	if c.finalized {
		return ErrCalibrationFinalized
	}
	corners, err := c.locate(img)
	if err != nil {
		return err
	}
	return c.record(img.Bounds().Size(), corners)
}

// locate finds and refines the board corners. It touches no session state so
// it may run on worker goroutines.
func (c *Calibration) locate(img image.Image) ([]r2.Vec, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrCalibrationTargetNotFound)
	}
	corners, err := c.finder.FindCorners(img, c.shape)
	if err != nil {
		return nil, targetNotFound(err)
	}
	if len(corners) != c.shape.Corners() {
		return nil, fmt.Errorf("%w: found %d of %d corners", ErrCalibrationTargetNotFound, len(corners), c.shape.Corners())
	}
	refined, err := c.finder.RefineCorners(img, corners)
	if err != nil {
		return nil, targetNotFound(err)
	}
	if len(refined) != len(corners) {
		return nil, fmt.Errorf("%w: refinement returned %d of %d corners", ErrCalibrationTargetNotFound, len(refined), len(corners))
	}
	return refined, nil
}

// record appends one accepted image. Both correspondence lists grow together
// or not at all.
func (c *Calibration) record(size image.Point, corners []r2.Vec) error {
	if len(c.imagePoints) > 0 && size != c.imageSize {
		return fmt.Errorf("%w: got %v, session uses %v", ErrImageSizeMismatch, size, c.imageSize)
	}
	if len(c.imagePoints) == 0 {
		c.imageSize = size
		c.referenceFrame = 0
	}
	c.imagePoints = append(c.imagePoints, append([]r2.Vec(nil), corners...))
	c.targetPoints = append(c.targetPoints, c.shape.ObjectPoints())
	return nil
}

// Finalize solves the calibration and returns the session's Model. The
// extrinsic pose of the reference (first accepted) image is used: every
// accepted image was taken by the same fixed camera, so any one of them
// defines the camera-to-target relationship. The session cannot be used
// afterwards.
func (c *Calibration) Finalize() (*Model, error) {
	if c.finalized {
		return nil, ErrCalibrationFinalized
	}
	if len(c.imagePoints) == 0 {
		return nil, ErrNoCorrespondencesCollected
	}

	solution, err := c.solver.Calibrate(Correspondences{
		ObjectPoints: c.targetPoints,
		ImagePoints:  c.imagePoints,
		ImageSize:    c.imageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("calibration solve failed: %w", err)
	}
	frames := len(c.imagePoints)
	if len(solution.RotationVectors) != frames || len(solution.TranslationVectors) != frames {
		return nil, fmt.Errorf("calibration solver returned %d rotations and %d translations for %d frames",
			len(solution.RotationVectors), len(solution.TranslationVectors), frames)
	}

	ref := c.referenceFrame
	model, err := Compose(
		c.modelID,
		solution.Intrinsic,
		solution.RotationVectors[ref],
		solution.TranslationVectors[ref],
		solution.Distortion,
		c.imagePoints[ref][0],
	)
	if err != nil {
		return nil, err
	}

	c.finalized = true
	c.rms = solution.RMS
	c.imagePoints, c.targetPoints = nil, nil
	return model, nil
}

func targetNotFound(err error) error {
	if errors.Is(err, ErrCalibrationTargetNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCalibrationTargetNotFound, err)
}
