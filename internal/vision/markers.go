// Package vision holds the image-space geometry shared by the detectors:
// marker clustering, polygon selection and colour masks.
package vision

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/geometry"
	"github.com/agingrasc/design3-vision/internal/world"
)

// RobotMarkerCount is the number of circular markers on top of the robot.
const RobotMarkerCount = 3

var (
	// ErrMissingMarkers is returned when fewer than RobotMarkerCount
	// markers were found.
	ErrMissingMarkers = errors.New("missing robot markers")
	// ErrNoOrientation is returned when a triangle does not point left or right.
	ErrNoOrientation = errors.New("triangle orientation not found")
)

// RobotFromMarkers builds the robot from its marker centres. The robot is at
// the centre of the markers; its heading points from there to the leading
// marker, the one farthest on average from the others.
func RobotFromMarkers(markers []r2.Vec) (*world.Robot, error) {
	if len(markers) < RobotMarkerCount {
		return nil, fmt.Errorf("%w: found %d of %d", ErrMissingMarkers, len(markers), RobotMarkerCount)
	}
	center := EnclosingCenter(markers)
	lead := LeadingMarker(markers)
	return world.NewRobot(center, center, lead), nil
}

// LeadingMarker returns the marker with the largest mean distance to the
// other markers.
func LeadingMarker(markers []r2.Vec) r2.Vec {
	best, bestMean := markers[0], -1.0
	for i, m := range markers {
		var sum float64
		for j, o := range markers {
			if i != j {
				sum += geometry.Distance(m, o)
			}
		}
		if mean := sum / float64(len(markers)-1); mean > bestMean {
			best, bestMean = m, mean
		}
	}
	return best
}

// EnclosingCenter returns the centre of the smallest circle through the
// two farthest points of pts, moved to the circumcentre when a third point
// falls outside it.
func EnclosingCenter(pts []r2.Vec) r2.Vec {
	if len(pts) == 1 {
		return pts[0]
	}
	var a, b r2.Vec
	far := -1.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := geometry.Distance(pts[i], pts[j]); d > far {
				far, a, b = d, pts[i], pts[j]
			}
		}
	}
	center := r2.Scale(0.5, r2.Add(a, b))
	radius := far / 2
	for _, p := range pts {
		if geometry.Distance(p, center) > radius+1e-9 {
			if c, ok := circumcenter(a, b, p); ok {
				center = c
				radius = geometry.Distance(a, c)
			}
		}
	}
	return center
}

func circumcenter(a, b, c r2.Vec) (r2.Vec, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return r2.Vec{}, false
	}
	a2, b2, c2 := r2.Dot(a, a), r2.Dot(b, b), r2.Dot(c, c)
	return r2.Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

// TriangleOrientation tells which way a triangle marker points. The tip is
// the vertex opposite the shortest side; a tip above both base vertices
// (smaller image y) points left, below both points right.
func TriangleOrientation(tri [3]r2.Vec) (world.ObstacleOrientation, error) {
	sides := [3]float64{
		geometry.Distance(tri[0], tri[1]),
		geometry.Distance(tri[0], tri[2]),
		geometry.Distance(tri[1], tri[2]),
	}
	var tip, b1, b2 r2.Vec
	switch {
	case sides[0] <= sides[1] && sides[0] <= sides[2]:
		tip, b1, b2 = tri[2], tri[0], tri[1]
	case sides[1] <= sides[2]:
		tip, b1, b2 = tri[1], tri[0], tri[2]
	default:
		tip, b1, b2 = tri[0], tri[1], tri[2]
	}
	switch {
	case tip.Y < b1.Y && tip.Y < b2.Y:
		return world.OrientationLeft, nil
	case tip.Y > b1.Y && tip.Y > b2.Y:
		return world.OrientationRight, nil
	default:
		return world.OrientationNone, ErrNoOrientation
	}
}

// LargestQuad returns the largest four-sided polygon of at least minArea.
func LargestQuad(polygons [][]r2.Vec, minArea float64) (world.Rectangle, bool) {
	var quads []world.Rectangle
	for _, p := range polygons {
		r, ok := world.NewRectangle(p)
		if ok && r.Area() >= minArea {
			quads = append(quads, r)
		}
	}
	if len(quads) == 0 {
		return world.Rectangle{}, false
	}
	sort.Slice(quads, func(i, j int) bool { return quads[i].Area() > quads[j].Area() })
	return quads[0], true
}
