package testutil

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/world"
)

// TableAt builds the table element m would see for a rectangle at Z=0
// spanned by edgeA and edgeB from origin, all in target squares.
func TableAt(t testing.TB, m *camera.Model, origin, edgeA, edgeB r2.Vec) *world.Table {
	t.Helper()
	px := Project(t, m, 0,
		origin,
		r2.Add(origin, edgeA),
		r2.Add(r2.Add(origin, edgeA), edgeB),
		r2.Add(origin, edgeB),
	)
	rect, ok := world.NewRectangle(px)
	if !ok {
		t.Fatalf("table corners %v do not form a rectangle", px)
	}
	return &world.Table{Rectangle: rect}
}

// RobotAt builds a robot element whose marker sits at target, height
// squares above the table, heading along +u.
func RobotAt(t testing.TB, m *camera.Model, target r2.Vec, height float64) *world.Robot {
	t.Helper()
	px := Project(t, m, -height, target)[0]
	return world.NewRobot(px, px, r2.Add(px, r2.Vec{X: 10}))
}

// ObstaclesAt builds obstacle markers at the given target points, height
// squares above the table.
func ObstaclesAt(t testing.TB, m *camera.Model, height float64, targets ...r2.Vec) world.Obstacles {
	t.Helper()
	out := make(world.Obstacles, 0, len(targets))
	for _, px := range Project(t, m, -height, targets...) {
		out = append(out, world.Obstacle{ImagePosition: px, Radius: 20, Shape: world.ShapeCircle})
	}
	return out
}
