package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrZeroLengthVector is returned when an angle is requested against a
// vector with no direction.
var ErrZeroLengthVector = errors.New("zero length vector")

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// UnsignedAngle returns the angle in radians between a and b computed as
// acos(a·b / |a||b|). The result lies in [0, π]: a vector rotated by +θ and
// one rotated by -θ from the reference produce the same value.
func UnsignedAngle(a, b r2.Vec) (float64, error) {
	na, nb := r2.Norm(a), r2.Norm(b)
	if na == 0 || nb == 0 {
		return 0, ErrZeroLengthVector
	}
	cos := r2.Dot(a, b) / (na * nb)
	// rounding can push |cos| slightly past 1 for parallel vectors
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos), nil
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
