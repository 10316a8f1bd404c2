package camera

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rodrigues converts an axis-angle rotation vector into a 3x3 rotation
// matrix: R = I + sinθ·K + (1-cosθ)·K², with θ = |r| and K the cross-product
// matrix of r/θ.
func Rodrigues(r r3.Vec) *mat.Dense {
	R := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	theta := r3.Norm(r)
	if theta < 1e-12 {
		return R
	}
	k := r3.Scale(1/theta, r)
	K := mat.NewDense(3, 3, []float64{
		0, -k.Z, k.Y,
		k.Z, 0, -k.X,
		-k.Y, k.X, 0,
	})
	var K2 mat.Dense
	K2.Mul(K, K)

	var sinK, cosK2 mat.Dense
	sinK.Scale(math.Sin(theta), K)
	cosK2.Scale(1-math.Cos(theta), &K2)
	R.Add(R, &sinK)
	R.Add(R, &cosK2)
	return R
}
