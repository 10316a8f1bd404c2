// Package translate turns detected image elements into a metric description
// of the table: it derives the World frame from the table rectangle and
// back-projects the robot and obstacles into it.
package translate

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/geometry"
	"github.com/agingrasc/design3-vision/internal/world"
)

// Defaults for a 44 mm chessboard and the competition markers. Heights are
// in target squares above the table.
const (
	DefaultSquareSizeMM   = 44.0
	DefaultRobotHeight    = 6.0
	DefaultObstacleHeight = 10.0
)

// referenceAxis is the target-frame direction the table edge angle is
// measured against.
var referenceAxis = r2.Vec{X: 5, Y: 0}

// ErrNoWorld is returned when world coordinates are requested before any
// table was detected.
var ErrNoWorld = errors.New("no world: table never detected")

// Option configures a Translator.
type Option func(*Translator)

// WithSquareSize sets the physical side of one calibration square.
func WithSquareSize(mm float64) Option {
	return func(t *Translator) { t.squareSizeMM = mm }
}

// WithMarkerHeights sets the robot and obstacle marker heights in squares.
func WithMarkerHeights(robot, obstacle float64) Option {
	return func(t *Translator) {
		t.robotHeight = robot
		t.obstacleHeight = obstacle
	}
}

// Translator maps detected elements to world coordinates. It keeps the most
// recent World so frames without a table still get positions. It is owned
// by the frame loop and is not safe for concurrent use.
type Translator struct {
	camera         *camera.Model
	squareSizeMM   float64
	robotHeight    float64
	obstacleHeight float64

	world *world.World
}

// New returns a Translator for model.
func New(model *camera.Model, opts ...Option) *Translator {
	t := &Translator{
		camera:         model,
		squareSizeMM:   DefaultSquareSizeMM,
		robotHeight:    DefaultRobotHeight,
		obstacleHeight: DefaultObstacleHeight,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// World returns the last derived World, or nil.
func (t *Translator) World() *world.World {
	if t.world == nil {
		return nil
	}
	w := *t.world
	return &w
}

// ResetWorld forgets the last World.
func (t *Translator) ResetWorld() { t.world = nil }

// Translate builds the frame state from elements. The elements are copied
// before being annotated, so cached detector results are never modified.
// A geometry failure on one element is recorded in State.Errors and the
// remaining elements are still translated.
func (t *Translator) Translate(elements []world.Element) *world.State {
	state := &world.State{Elements: make([]world.Element, 0, len(elements))}

	// The table is handled first so that elements listed before it in the
	// frame use this frame's World.
	for _, e := range elements {
		table, ok := e.(*world.Table)
		if !ok {
			continue
		}
		w, err := t.worldFromTable(table)
		if err != nil {
			state.Errors = append(state.Errors, fmt.Errorf("table: %w", err))
			continue
		}
		t.world = w
	}
	state.World = t.World()

	for _, e := range elements {
		if e == nil {
			continue
		}
		c := e.Clone()
		switch v := c.(type) {
		case *world.Table:
			state.Table = v
		case *world.Robot:
			if err := t.placeRobot(v); err != nil {
				state.Errors = append(state.Errors, fmt.Errorf("robot: %w", err))
			}
			state.Robot = v
		case world.Obstacles:
			for i := range v {
				if err := t.placeObstacle(&v[i]); err != nil {
					state.Errors = append(state.Errors, fmt.Errorf("obstacle %d: %w", i, err))
				}
			}
			state.Obstacles = v
		case *world.DrawingArea:
			if err := t.placeDrawingArea(v); err != nil {
				state.Errors = append(state.Errors, fmt.Errorf("drawing area: %w", err))
			}
			state.DrawingArea = v
		default:
			state.Errors = append(state.Errors, fmt.Errorf("unsupported element %T", e))
			continue
		}
		state.Elements = append(state.Elements, c)
	}
	return state
}

// worldFromTable derives the World frame from the table corners.
func (t *Translator) worldFromTable(table *world.Table) (*world.World, error) {
	var corners [4]r2.Vec
	for i, px := range table.Rectangle.Corners {
		p, err := t.camera.ImageToTarget(px.X, px.Y, 0)
		if err != nil {
			return nil, fmt.Errorf("corner %d: %w", i, err)
		}
		corners[i] = r2.Vec{X: p.X, Y: p.Y}
	}

	sides := make([]float64, 4)
	for i := range corners {
		sides[i] = geometry.Distance(corners[i], corners[(i+1)%4]) * t.squareSizeMM
	}
	sort.Float64s(sides)

	origin := corners[0]
	angle, err := geometry.UnsignedAngle(referenceAxis, r2.Sub(corners[1], origin))
	if err != nil {
		return nil, fmt.Errorf("table edge: %w", err)
	}

	worldToTarget := geometry.Identity().Rotate(geometry.RadToDeg(angle)).Translate(origin.X, origin.Y)
	targetToWorld, err := worldToTarget.Inverse()
	if err != nil {
		return nil, err
	}

	return &world.World{
		WidthMM:       sides[0],
		LengthMM:      sides[3],
		OriginPixel:   table.Rectangle.Corners[0],
		TargetToWorld: targetToWorld,
	}, nil
}

// locate back-projects a marker seen at pixel px and height h (squares) and
// returns its target-frame position and its pixel at table height.
func (t *Translator) locate(px r2.Vec, h float64) (target, corrected r2.Vec, err error) {
	p, err := t.camera.ImageToTarget(px.X, px.Y, -h)
	if err != nil {
		return r2.Vec{}, r2.Vec{}, err
	}
	corrected, err = t.camera.TargetToImage(p.X, p.Y, 0)
	if err != nil {
		return r2.Vec{}, r2.Vec{}, err
	}
	return r2.Vec{X: p.X, Y: p.Y}, corrected, nil
}

// toWorld maps a target-frame point to world millimetres. It returns nil
// without error while no World exists.
func (t *Translator) toWorld(target r2.Vec) (*r2.Vec, error) {
	if t.world == nil {
		return nil, nil
	}
	p, err := t.world.TargetToWorld.Apply(target)
	if err != nil {
		return nil, err
	}
	mm := r2.Scale(t.squareSizeMM, p)
	return &mm, nil
}

func (t *Translator) placeRobot(r *world.Robot) error {
	target, corrected, err := t.locate(r.ImagePosition, t.robotHeight)
	if err != nil {
		return err
	}
	r.CorrectedPosition = &corrected
	r.WorldPosition, err = t.toWorld(target)
	return err
}

func (t *Translator) placeObstacle(o *world.Obstacle) error {
	target, corrected, err := t.locate(o.ImagePosition, t.obstacleHeight)
	if err != nil {
		return err
	}
	o.CorrectedPosition = &corrected
	o.WorldPosition, err = t.toWorld(target)
	return err
}

// placeDrawingArea measures the inner square and, when a World exists,
// expresses its corners in world millimetres. The area is painted on the
// table so it is back-projected at height 0.
func (t *Translator) placeDrawingArea(d *world.DrawingArea) error {
	var target [4]r2.Vec
	for i, px := range d.Inner.Corners {
		p, err := t.camera.ImageToTarget(px.X, px.Y, 0)
		if err != nil {
			return fmt.Errorf("corner %d: %w", i, err)
		}
		target[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	var perimeter float64
	for i := range target {
		perimeter += geometry.Distance(target[i], target[(i+1)%4])
	}
	d.InnerDimensionMM = perimeter / 4 * t.squareSizeMM

	if t.world == nil {
		return nil
	}
	corners := make([]r2.Vec, 0, 4)
	for _, p := range target {
		w, err := t.toWorld(p)
		if err != nil {
			return err
		}
		corners = append(corners, *w)
	}
	d.WorldCorners = corners
	return nil
}

// ImageToWorld maps pixel px of a point h squares above the table to
// world millimetres.
func (t *Translator) ImageToWorld(px r2.Vec, h float64) (r2.Vec, error) {
	if t.world == nil {
		return r2.Vec{}, ErrNoWorld
	}
	target, _, err := t.locate(px, h)
	if err != nil {
		return r2.Vec{}, err
	}
	w, err := t.toWorld(target)
	if err != nil {
		return r2.Vec{}, err
	}
	return *w, nil
}

// ProjectPath maps world millimetre points back to table-height image
// pixels, e.g. to draw a planned path over the camera image.
func (t *Translator) ProjectPath(points []r2.Vec) ([]r2.Vec, error) {
	if t.world == nil {
		return nil, ErrNoWorld
	}
	worldToTarget, err := t.world.TargetToWorld.Inverse()
	if err != nil {
		return nil, err
	}
	out := make([]r2.Vec, 0, len(points))
	for i, p := range points {
		target, err := worldToTarget.Apply(r2.Scale(1/t.squareSizeMM, p))
		if err != nil {
			return nil, fmt.Errorf("path point %d: %w", i, err)
		}
		px, err := t.camera.TargetToImage(target.X, target.Y, 0)
		if err != nil {
			return nil, fmt.Errorf("path point %d: %w", i, err)
		}
		out = append(out, px)
	}
	return out, nil
}
