package world

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/geometry"
)

// World is the table frame in millimetres. Its dimensions and transform are
// always derived together from one Table detection.
type World struct {
	WidthMM     float64
	LengthMM    float64
	OriginPixel r2.Vec
	// TargetToWorld maps target-frame (X, Y) in squares to the table frame,
	// still in squares.
	TargetToWorld geometry.Transform
}

// State is everything known about one frame after translation.
type State struct {
	// World is nil when no table was ever detected.
	World       *World
	Table       *Table
	Robot       *Robot
	Obstacles   Obstacles
	DrawingArea *DrawingArea
	// Elements are the translated elements in detection order.
	Elements []Element
	// Errors are the per-element geometry failures of the frame.
	Errors []error
}

// WorldDetected reports whether world coordinates are available.
func (s *State) WorldDetected() bool { return s != nil && s.World != nil }

// RobotDetected reports whether a robot was seen this frame.
func (s *State) RobotDetected() bool { return s != nil && s.Robot != nil }
