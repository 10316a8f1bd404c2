package camera

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Projection tolerances.
const (
	// DepthTolerance is the smallest homogeneous depth accepted when
	// projecting a target point into the image.
	DepthTolerance = 1e-9
	// TripleProductTolerance bounds |u1·(u2×u3)| relative to |u1||u2| under
	// which back-projection is treated as degenerate.
	TripleProductTolerance = 1e-10
)

// TargetToImage projects the target-frame point (x, y, z) to a pixel.
func (m *Model) TargetToImage(x, y, z float64) (r2.Vec, error) {
	var h [3]float64
	for i, row := range m.cameraMatrix {
		h[i] = row[0]*x + row[1]*y + row[2]*z + row[3]
	}
	// h[2] is the point depth along the optical axis
	if h[2] <= DepthTolerance {
		return r2.Vec{}, fmt.Errorf("%w: point (%.3f, %.3f, %.3f) is on or behind the camera plane",
			ErrDegenerateProjection, x, y, z)
	}
	return r2.Vec{X: h[0] / h[2], Y: h[1] / h[2]}, nil
}

// ImageToTarget back-projects pixel (u, v) onto the target-frame plane Z = z
// and returns the intersection point.
//
// The line of sight through (u, v) is the intersection of the planes
// A·[X Y Z 1]ᵀ = 0 and B·[X Y Z 1]ᵀ = 0 with A = m0 - u·m2 and B = m1 - v·m2,
// where m0..m2 are the camera matrix rows. Adding the plane Z = z gives three
// planes nᵢ·P + dᵢ = 0, solved by
//
//	P = -(d1·(n2×n3) + d2·(n3×n1) + d3·(n1×n2)) / (n1·(n2×n3))
func (m *Model) ImageToTarget(u, v, z float64) (r3.Vec, error) {
	m0, m1, m2 := m.cameraMatrix[0], m.cameraMatrix[1], m.cameraMatrix[2]

	n1 := r3.Vec{X: m0[0] - u*m2[0], Y: m0[1] - u*m2[1], Z: m0[2] - u*m2[2]}
	d1 := m0[3] - u*m2[3]
	n2 := r3.Vec{X: m1[0] - v*m2[0], Y: m1[1] - v*m2[1], Z: m1[2] - v*m2[2]}
	d2 := m1[3] - v*m2[3]
	n3 := r3.Vec{Z: 1}
	d3 := -z

	n2xn3 := r3.Cross(n2, n3)
	denom := r3.Dot(n1, n2xn3)
	if math.Abs(denom) <= TripleProductTolerance*r3.Norm(n1)*r3.Norm(n2) {
		return r3.Vec{}, fmt.Errorf("%w: line of sight through (%.2f, %.2f) does not cross plane Z=%.3f",
			ErrDegenerateProjection, u, v, z)
	}

	sum := r3.Add(r3.Scale(d1, n2xn3), r3.Scale(d2, r3.Cross(n3, n1)))
	sum = r3.Add(sum, r3.Scale(d3, r3.Cross(n1, n2)))
	p := r3.Scale(-1/denom, sum)

	if !finite(p) {
		return r3.Vec{}, fmt.Errorf("%w: non-finite back-projection of (%.2f, %.2f)", ErrDegenerateProjection, u, v)
	}
	return p, nil
}

func finite(p r3.Vec) bool {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
