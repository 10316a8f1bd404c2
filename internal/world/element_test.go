package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewRobot_Heading(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		tail, head r2.Vec
		want       float64
	}{
		{"east", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 10, Y: 0}, 0},
		{"north is up in the image", r2.Vec{X: 0, Y: 10}, r2.Vec{X: 0, Y: 0}, 90},
		{"south", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 0, Y: 10}, -90},
		{"west", r2.Vec{X: 10, Y: 0}, r2.Vec{X: 0, Y: 0}, 180},
		{"north east", r2.Vec{X: 0, Y: 5}, r2.Vec{X: 5, Y: 0}, 45},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRobot(r2.Vec{X: 1, Y: 1}, tt.tail, tt.head)
			assert.InDelta(t, tt.want, r.AngleDeg, 1e-9)
			assert.False(t, r.Positioned())
		})
	}
}

func TestClone_DoesNotShareState(t *testing.T) {
	t.Parallel()

	robot := NewRobot(r2.Vec{X: 1, Y: 2}, r2.Vec{}, r2.Vec{X: 1})
	robot.WorldPosition = &r2.Vec{X: 100, Y: 200}
	rc := robot.Clone().(*Robot)
	rc.WorldPosition.X = -1
	assert.Equal(t, 100.0, robot.WorldPosition.X)

	obstacles := Obstacles{{ImagePosition: r2.Vec{X: 5, Y: 5}, Contour: []r2.Vec{{X: 1, Y: 1}}}}
	oc := obstacles.Clone().(Obstacles)
	oc[0].Contour[0].X = 99
	oc[0].WorldPosition = &r2.Vec{}
	assert.Equal(t, 1.0, obstacles[0].Contour[0].X)
	assert.Nil(t, obstacles[0].WorldPosition)

	area := &DrawingArea{WorldCorners: []r2.Vec{{X: 1}}}
	ac := area.Clone().(*DrawingArea)
	ac.WorldCorners[0].X = 7
	assert.Equal(t, 1.0, area.WorldCorners[0].X)

	table := &Table{}
	assert.NotSame(t, table, table.Clone())
}

func TestKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		e    Element
		kind Kind
		desc string
	}{
		{&Table{}, KindTable, "table"},
		{&DrawingArea{}, KindDrawingArea, "drawing area"},
		{&Robot{ImagePosition: r2.Vec{X: 10, Y: 20}, AngleDeg: 90}, KindRobot, "robot at (10.0, 20.0) heading 90.0°"},
		{Obstacles{{}, {}}, KindObstacles, "2 obstacles"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.e.Kind())
		assert.Contains(t, Describe(tt.e), tt.desc)
	}
}

func TestRectangle_Contains(t *testing.T) {
	t.Parallel()
	square, ok := NewRectangle([]r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
	require.True(t, ok)
	reversed, ok := NewRectangle([]r2.Vec{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}})
	require.True(t, ok)

	for _, r := range []Rectangle{square, reversed} {
		assert.True(t, r.Contains(r2.Vec{X: 5, Y: 5}))
		assert.True(t, r.Contains(r2.Vec{X: 10, Y: 5}), "edge")
		assert.False(t, r.Contains(r2.Vec{X: 15, Y: 5}))
		assert.False(t, r.Contains(r2.Vec{X: -1, Y: -1}))
	}
}

func TestRectangle(t *testing.T) {
	t.Parallel()
	r, ok := NewRectangle([]r2.Vec{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}})
	require.True(t, ok)

	assert.Equal(t, r2.Vec{X: 2, Y: 1}, r.Center())
	assert.InDelta(t, 8, r.Area(), 1e-12)
	assert.Equal(t, [4]float64{4, 2, 4, 2}, r.Sides())

	_, ok = NewRectangle([]r2.Vec{{}, {}, {}})
	assert.False(t, ok)
}

func TestState_Detected(t *testing.T) {
	t.Parallel()
	var nilState *State
	assert.False(t, nilState.WorldDetected())
	assert.False(t, nilState.RobotDetected())

	s := &State{World: &World{}, Robot: &Robot{}}
	assert.True(t, s.WorldDetected())
	assert.True(t, s.RobotDetected())
}
