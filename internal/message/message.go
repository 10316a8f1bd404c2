// Package message assembles the push_vision_data document sent to the
// base station for every processed frame.
package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strconv"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/units"
	"github.com/agingrasc/design3-vision/internal/world"
)

// Header identifies vision frames on the base station socket.
const Header = "push_vision_data"

// DefaultDiminution is the factor the frame is shrunk by before sending.
const DefaultDiminution = 2

// Message is the document pushed for each frame. Numbers are carried as
// strings and absent values as empty strings, as the base station expects.
type Message struct {
	Headers string `json:"headers"`
	Data    Data   `json:"data"`
}

type Data struct {
	Image Image `json:"image"`
	World World `json:"world"`
}

type Image struct {
	Ratio             string    `json:"ratio"`
	Origin            Point     `json:"origin"`
	Data              string    `json:"data"`
	OriginalDimension Dimension `json:"original_dimension"`
	SentDimension     Dimension `json:"sent_dimension"`
}

type Point struct {
	X string `json:"x"`
	Y string `json:"y"`
}

type Dimension struct {
	Width  string `json:"width"`
	Height string `json:"height"`
}

type World struct {
	Unit        string       `json:"unit"`
	BaseTable   BaseTable    `json:"base_table"`
	Robot       Robot        `json:"robot"`
	Obstacles   []Obstacle   `json:"obstacles"`
	DrawingArea *DrawingArea `json:"drawing_area,omitempty"`
}

type BaseTable struct {
	Dimension Dimension `json:"dimension"`
}

type Robot struct {
	Position Point `json:"position"`
	// Orientation is the heading in degrees, empty when unknown.
	Orientation string `json:"orientation"`
}

type Obstacle struct {
	Position    Point  `json:"position"`
	Shape       string `json:"shape"`
	Orientation string `json:"orientation"`
}

type DrawingArea struct {
	Dimension string  `json:"dimension"`
	Corners   []Point `json:"corners"`
}

// Assembler builds Messages. The zero value sends centimetres at half size.
type Assembler struct {
	// Unit is one of units.ValidUnits. Defaults to units.CM.
	Unit string
	// Diminution shrinks the sent image. Values below 1 send it unscaled.
	Diminution int
}

// LengthUnit returns the length unit of the assembled documents.
func (a Assembler) LengthUnit() string { return a.unit() }

func (a Assembler) unit() string {
	if units.IsValid(a.Unit) {
		return a.Unit
	}
	return units.CM
}

func (a Assembler) diminution() int {
	switch {
	case a.Diminution == 0:
		return DefaultDiminution
	case a.Diminution < 1:
		return 1
	}
	return a.Diminution
}

// Assemble builds the message for img and its translated state. Either may
// be nil.
func (a Assembler) Assemble(img image.Image, state *world.State) (*Message, error) {
	msg := &Message{
		Headers: Header,
		Data: Data{
			World: World{Unit: a.unit(), Obstacles: []Obstacle{}},
		},
	}
	if img != nil {
		if err := a.fillImage(&msg.Data.Image, img); err != nil {
			return nil, err
		}
	}
	if state == nil {
		return msg, nil
	}
	if w := state.World; w != nil {
		d := float64(a.diminution())
		msg.Data.Image.Origin = Point{X: num(w.OriginPixel.X / d), Y: num(w.OriginPixel.Y / d)}
	}
	msg.Data.World.BaseTable.Dimension = a.WorldDimension(state.World)
	if r := a.Robot(state.Robot); r != nil {
		msg.Data.World.Robot = *r
	}
	msg.Data.World.Obstacles = a.Obstacles(state.Obstacles)
	msg.Data.World.DrawingArea = a.DrawingArea(state.DrawingArea)
	return msg, nil
}

func (a Assembler) fillImage(dst *Image, img image.Image) error {
	b := img.Bounds()
	d := a.diminution()
	sent := img
	if d > 1 {
		sent = imaging.Resize(img, b.Dx()/d, b.Dy()/d, imaging.CatmullRom)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, sent, imaging.PNG); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	sb := sent.Bounds()
	dst.Data = base64.StdEncoding.EncodeToString(buf.Bytes())
	dst.Ratio = num(1 / float64(d))
	dst.OriginalDimension = Dimension{Width: strconv.Itoa(b.Dx()), Height: strconv.Itoa(b.Dy())}
	dst.SentDimension = Dimension{Width: strconv.Itoa(sb.Dx()), Height: strconv.Itoa(sb.Dy())}
	return nil
}

// WorldDimension reports the table size, or empty strings without a World.
func (a Assembler) WorldDimension(w *world.World) Dimension {
	if w == nil {
		return Dimension{}
	}
	return Dimension{
		Width:  units.FormatLength(w.WidthMM, a.unit()),
		Height: units.FormatLength(w.LengthMM, a.unit()),
	}
}

// Robot reports the robot pose, or nil when it has no world position.
func (a Assembler) Robot(r *world.Robot) *Robot {
	if r == nil || r.WorldPosition == nil {
		return nil
	}
	return &Robot{Position: a.Point(*r.WorldPosition), Orientation: num(r.AngleDeg)}
}

// Obstacles lists the obstacles that have world coordinates. It never
// returns nil.
func (a Assembler) Obstacles(obs world.Obstacles) []Obstacle {
	out := make([]Obstacle, 0, len(obs))
	for _, o := range obs {
		if o.WorldPosition == nil {
			continue
		}
		out = append(out, Obstacle{
			Position:    a.Point(*o.WorldPosition),
			Shape:       string(o.Shape),
			Orientation: string(o.Orientation),
		})
	}
	return out
}

// DrawingArea reports the inner square in world coordinates, or nil when
// it was not translated.
func (a Assembler) DrawingArea(da *world.DrawingArea) *DrawingArea {
	if da == nil || len(da.WorldCorners) == 0 {
		return nil
	}
	out := &DrawingArea{Dimension: units.FormatLength(da.InnerDimensionMM, a.unit())}
	for _, c := range da.WorldCorners {
		out.Corners = append(out.Corners, a.Point(c))
	}
	return out
}

// Point formats a world millimetre position in the assembler unit.
func (a Assembler) Point(mm r2.Vec) Point {
	return Point{X: units.FormatLength(mm.X, a.unit()), Y: units.FormatLength(mm.Y, a.unit())}
}

func num(v float64) string {
	return units.FormatLength(v, units.MM)
}
