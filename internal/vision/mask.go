package vision

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// HSVRange selects pixels by hue (degrees, 0-360), saturation and value
// (0-1). A range with HueMin > HueMax wraps through red.
type HSVRange struct {
	HueMin, HueMax float64
	SatMin, SatMax float64
	ValMin, ValMax float64
}

// Marker colour ranges.
var (
	GreenRange   = HSVRange{HueMin: 100, HueMax: 160, SatMin: 0.39, SatMax: 1, ValMin: 0.39, ValMax: 1}
	FuchsiaRange = HSVRange{HueMin: 240, HueMax: 352, SatMin: 0.39, SatMax: 1, ValMin: 0.39, ValMax: 1}
)

// Contains reports whether c falls in r.
func (r HSVRange) Contains(c color.Color) bool {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return false
	}
	h, s, v := cf.Hsv()
	if s < r.SatMin || s > r.SatMax || v < r.ValMin || v > r.ValMax {
		return false
	}
	if r.HueMin <= r.HueMax {
		return h >= r.HueMin && h <= r.HueMax
	}
	return h >= r.HueMin || h <= r.HueMax
}

// Mask is a binary image.
type Mask struct {
	W, H int
	Bits []bool
}

// At reports whether (x, y) is set. Out-of-range points are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Bits[y*m.W+x]
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Threshold builds the mask of pixels in r after a median filter of the
// given radius (0 disables it).
func Threshold(img image.Image, r HSVRange, medianRadius float64) *Mask {
	src := img
	if medianRadius > 0 {
		src = effect.Median(img, medianRadius)
	}
	b := src.Bounds()
	m := &Mask{W: b.Dx(), H: b.Dy(), Bits: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			m.Bits[y*m.W+x] = r.Contains(src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return m
}

// Component is a 4-connected region of a mask or of its complement.
type Component struct {
	Pixels []image.Point
}

// Components returns the 4-connected regions whose pixels equal value. When
// skipBorder is set, regions touching the image border are dropped.
func (m *Mask) Components(value, skipBorder bool) []Component {
	seen := make([]bool, len(m.Bits))
	var out []Component
	for start := range m.Bits {
		if seen[start] || m.Bits[start] != value {
			continue
		}
		var c Component
		border := false
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%m.W, i/m.W
			c.Pixels = append(c.Pixels, image.Pt(x, y))
			if x == 0 || y == 0 || x == m.W-1 || y == m.H-1 {
				border = true
			}
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= m.W || n[1] >= m.H {
					continue
				}
				j := n[1]*m.W + n[0]
				if !seen[j] && m.Bits[j] == value {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
		if skipBorder && border {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Largest returns the component with the most pixels.
func Largest(cs []Component) (Component, bool) {
	best := -1
	for i, c := range cs {
		if best < 0 || len(c.Pixels) > len(cs[best].Pixels) {
			best = i
		}
	}
	if best < 0 {
		return Component{}, false
	}
	return cs[best], true
}

// ExtremeQuad approximates the component by its four extreme corners:
// top-left, top-right, bottom-right, bottom-left.
func (c Component) ExtremeQuad() []r2.Vec {
	if len(c.Pixels) == 0 {
		return nil
	}
	p0 := c.Pixels[0]
	tl, tr, br, bl := p0, p0, p0, p0
	for _, p := range c.Pixels[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}
	out := make([]r2.Vec, 0, 4)
	for _, p := range []image.Point{tl, tr, br, bl} {
		out = append(out, r2.Vec{X: float64(p.X), Y: float64(p.Y)})
	}
	return out
}

// Centroid returns the mean pixel position of the component.
func (c Component) Centroid() r2.Vec {
	var sx, sy float64
	for _, p := range c.Pixels {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(c.Pixels))
	return r2.Vec{X: sx / n, Y: sy / n}
}
