package world

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rectangle is a quadrilateral given by its four corners in contour order.
type Rectangle struct {
	Corners [4]r2.Vec
}

// NewRectangle builds a Rectangle from exactly four points.
func NewRectangle(points []r2.Vec) (Rectangle, bool) {
	var r Rectangle
	if len(points) != 4 {
		return r, false
	}
	copy(r.Corners[:], points)
	return r, true
}

// Center returns the mean of the corners.
func (r Rectangle) Center() r2.Vec {
	var c r2.Vec
	for _, p := range r.Corners {
		c = r2.Add(c, p)
	}
	return r2.Scale(0.25, c)
}

// Area returns the enclosed area (shoelace formula).
func (r Rectangle) Area() float64 {
	var s float64
	for i := range r.Corners {
		a, b := r.Corners[i], r.Corners[(i+1)%4]
		s += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(s) / 2
}

// Contains reports whether p lies inside the quadrilateral or on its edge.
// The corners must describe a convex shape, in either winding.
func (r Rectangle) Contains(p r2.Vec) bool {
	var pos, neg bool
	for i := range r.Corners {
		a, b := r.Corners[i], r.Corners[(i+1)%4]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		switch {
		case cross > 0:
			pos = true
		case cross < 0:
			neg = true
		}
	}
	return !(pos && neg)
}

// Sides returns the four edge lengths in contour order.
func (r Rectangle) Sides() [4]float64 {
	var out [4]float64
	for i := range r.Corners {
		out[i] = r2.Norm(r2.Sub(r.Corners[(i+1)%4], r.Corners[i]))
	}
	return out
}
