// Package world holds the per-frame scene description produced by the
// detectors and completed by the image-to-world translator.
package world

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind identifies a world element variant.
type Kind string

const (
	KindTable       Kind = "table"
	KindDrawingArea Kind = "drawing_area"
	KindRobot       Kind = "robot"
	KindObstacles   Kind = "obstacles"
)


// Element is one detected scene element. The set of variants is closed:
// *Table, *DrawingArea, *Robot and Obstacles.
type Element interface {
	Kind() Kind
	// Clone returns a deep copy so callers can annotate an element without
	// touching a cached original.
	Clone() Element
	element()
}

// Table is the playing surface rectangle as seen in the image.
type Table struct {
	Rectangle Rectangle
}

func (*Table) Kind() Kind { return KindTable }
func (*Table) element()   {}

// Clone implements Element.
func (t *Table) Clone() Element {
	c := *t
	return &c
}

// DrawingArea is the green frame the robot draws in: an inner and an outer
// square outline.
type DrawingArea struct {
	Inner Rectangle
	Outer Rectangle
	// InnerDimensionMM is the side of the inner square in millimetres. It is
	// zero until the area has been translated into a World.
	InnerDimensionMM float64
	// WorldCorners holds the inner square corners in world millimetres, nil
	// until translated.
	WorldCorners []r2.Vec
}

func (*DrawingArea) Kind() Kind { return KindDrawingArea }
func (*DrawingArea) element()   {}

// Clone implements Element.
func (d *DrawingArea) Clone() Element {
	c := *d
	c.WorldCorners = append([]r2.Vec(nil), d.WorldCorners...)
	return &c
}

// Robot is the robot marker: its image centroid and a heading segment from
// Orientation[0] (tail) to Orientation[1] (head).
type Robot struct {
	ImagePosition r2.Vec
	Orientation   [2]r2.Vec
	// AngleDeg is the heading in image space, counter-clockwise from the
	// image x axis, in (-180, 180].
	AngleDeg float64

	// CorrectedPosition is the marker projected down to table height. Nil
	// until translated.
	CorrectedPosition *r2.Vec
	// WorldPosition is in world millimetres. Nil while no World exists.
	WorldPosition *r2.Vec
}

// NewRobot builds a Robot and derives its heading from the orientation
// segment. Image y grows downwards, so it is negated.
func NewRobot(position, tail, head r2.Vec) *Robot {
	dx, dy := head.X-tail.X, tail.Y-head.Y
	return &Robot{
		ImagePosition: position,
		Orientation:   [2]r2.Vec{tail, head},
		AngleDeg:      math.Atan2(dy, dx) * 180 / math.Pi,
	}
}

func (*Robot) Kind() Kind { return KindRobot }
func (*Robot) element()   {}

// Clone implements Element.
func (r *Robot) Clone() Element {
	c := *r
	c.CorrectedPosition = clonePoint(r.CorrectedPosition)
	c.WorldPosition = clonePoint(r.WorldPosition)
	return &c
}

// Positioned reports whether the robot has world coordinates.
func (r *Robot) Positioned() bool { return r.WorldPosition != nil }

// ObstacleShape is the marker drawn on top of an obstacle.
type ObstacleShape string

const (
	ShapeUnknown  ObstacleShape = ""
	ShapeCircle   ObstacleShape = "circle"
	ShapeTriangle ObstacleShape = "triangle"
)

// ObstacleOrientation is the side a triangle marker points to.
type ObstacleOrientation string

const (
	OrientationNone  ObstacleOrientation = ""
	OrientationLeft  ObstacleOrientation = "left"
	OrientationRight ObstacleOrientation = "right"
)

// Obstacle is one cylindrical obstacle seen from above.
type Obstacle struct {
	ImagePosition r2.Vec
	Radius        float64
	Shape         ObstacleShape
	Contour       []r2.Vec
	Orientation   ObstacleOrientation

	CorrectedPosition *r2.Vec
	WorldPosition     *r2.Vec
}

// Positioned reports whether the obstacle has world coordinates.
func (o *Obstacle) Positioned() bool { return o.WorldPosition != nil }

func (o Obstacle) clone() Obstacle {
	o.Contour = append([]r2.Vec(nil), o.Contour...)
	o.CorrectedPosition = clonePoint(o.CorrectedPosition)
	o.WorldPosition = clonePoint(o.WorldPosition)
	return o
}

// Obstacles is every obstacle found in one frame. The obstacle detector
// reports them as a single element.
type Obstacles []Obstacle

func (Obstacles) Kind() Kind { return KindObstacles }
func (Obstacles) element()   {}

// Clone implements Element.
func (o Obstacles) Clone() Element {
	out := make(Obstacles, len(o))
	for i := range o {
		out[i] = o[i].clone()
	}
	return out
}

// Describe returns a short human-readable summary of e.
func Describe(e Element) string {
	switch v := e.(type) {
	case *Table:
		return fmt.Sprintf("table %v", v.Rectangle.Corners)
	case *DrawingArea:
		return fmt.Sprintf("drawing area inner=%v", v.Inner.Corners)
	case *Robot:
		return fmt.Sprintf("robot at (%.1f, %.1f) heading %.1f°", v.ImagePosition.X, v.ImagePosition.Y, v.AngleDeg)
	case Obstacles:
		return fmt.Sprintf("%d obstacles", len(v))
	default:
		return fmt.Sprintf("unknown element %T", e)
	}
}

func clonePoint(p *r2.Vec) *r2.Vec {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
