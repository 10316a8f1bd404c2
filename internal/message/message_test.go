package message

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/testutil"
	"github.com/agingrasc/design3-vision/internal/translate"
	"github.com/agingrasc/design3-vision/internal/units"
	"github.com/agingrasc/design3-vision/internal/world"
)

func translatedState(t *testing.T) *world.State {
	t.Helper()
	m := testutil.OverheadCamera(t)
	tr := translate.New(m)
	state := tr.Translate([]world.Element{
		testutil.TableAt(t, m, r2.Vec{X: 2, Y: 1}, r2.Vec{X: 10}, r2.Vec{Y: 6}),
		testutil.RobotAt(t, m, r2.Vec{X: 5, Y: 4}, translate.DefaultRobotHeight),
		testutil.ObstaclesAt(t, m, translate.DefaultObstacleHeight, r2.Vec{X: 8, Y: 3}),
	})
	require.Empty(t, state.Errors)
	return state
}

func TestAssemble_EmptyFrame(t *testing.T) {
	t.Parallel()
	msg, err := Assembler{}.Assemble(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Header, msg.Headers)
	assert.Equal(t, units.CM, msg.Data.World.Unit)
	assert.Equal(t, Point{}, msg.Data.Image.Origin)
	assert.Equal(t, Dimension{}, msg.Data.World.BaseTable.Dimension)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"obstacles":[]`)
	assert.Contains(t, string(raw), `"robot":{"position":{"x":"","y":""},"orientation":""}`)
	assert.NotContains(t, string(raw), "drawing_area")
}

func TestAssemble_World(t *testing.T) {
	t.Parallel()
	state := translatedState(t)
	msg, err := Assembler{Unit: units.CM}.Assemble(nil, state)
	require.NoError(t, err)

	w := msg.Data.World
	assert.Equal(t, Dimension{Width: "26.4", Height: "44"}, w.BaseTable.Dimension)
	assert.Equal(t, Point{X: "13.2", Y: "13.2"}, w.Robot.Position)
	assert.Equal(t, "0", w.Robot.Orientation)
	require.Len(t, w.Obstacles, 1)
	assert.Equal(t, "circle", w.Obstacles[0].Shape)

	// origin pixel is reported on the shrunk image
	assert.Equal(t, num(state.World.OriginPixel.X/2), msg.Data.Image.Origin.X)
	assert.Equal(t, num(state.World.OriginPixel.Y/2), msg.Data.Image.Origin.Y)
}

func TestAssemble_Units(t *testing.T) {
	t.Parallel()
	state := translatedState(t)
	for _, tc := range []struct {
		unit string
		want string
	}{
		{units.MM, "264"},
		{units.CM, "26.4"},
		{units.M, "0.264"},
		{"furlong", "26.4"},
	} {
		msg, err := Assembler{Unit: tc.unit}.Assemble(nil, state)
		require.NoError(t, err)
		assert.Equal(t, tc.want, msg.Data.World.BaseTable.Dimension.Width, tc.unit)
	}
}

func TestAssemble_Image(t *testing.T) {
	t.Parallel()
	msg, err := Assembler{}.Assemble(testutil.BlankFrame(), nil)
	require.NoError(t, err)

	img := msg.Data.Image
	assert.Equal(t, "0.5", img.Ratio)
	assert.Equal(t, Dimension{Width: "1280", Height: "960"}, img.OriginalDimension)
	assert.Equal(t, Dimension{Width: "640", Height: "480"}, img.SentDimension)

	data, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	decoded, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 640, decoded.Bounds().Dx())
	assert.Equal(t, 480, decoded.Bounds().Dy())
}

func TestAssemble_DrawingArea(t *testing.T) {
	t.Parallel()
	state := &world.State{DrawingArea: &world.DrawingArea{
		InnerDimensionMM: 660,
		WorldCorners:     []r2.Vec{{X: 100, Y: 200}, {X: 760, Y: 200}},
	}}
	msg, err := Assembler{Unit: units.MM}.Assemble(nil, state)
	require.NoError(t, err)
	require.NotNil(t, msg.Data.World.DrawingArea)
	assert.Equal(t, "660", msg.Data.World.DrawingArea.Dimension)
	assert.Equal(t, []Point{{X: "100", Y: "200"}, {X: "760", Y: "200"}}, msg.Data.World.DrawingArea.Corners)
}
