package camera

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compose builds a Model from calibration output: the rotation vector is
// converted with Rodrigues, the extrinsic matrix is [R|t] and the camera
// matrix is intrinsic·extrinsic.
func Compose(id int, intrinsic mat.Matrix, rvec, tvec r3.Vec, distortion []float64, origin r2.Vec) (*Model, error) {
	if intrinsic == nil {
		return nil, fmt.Errorf("%w: missing intrinsic", ErrInvalidModel)
	}
	R := Rodrigues(rvec)

	extrinsic := mat.NewDense(3, 4, nil)
	extrinsic.Slice(0, 3, 0, 3).(*mat.Dense).Copy(R)
	extrinsic.Set(0, 3, tvec.X)
	extrinsic.Set(1, 3, tvec.Y)
	extrinsic.Set(2, 3, tvec.Z)

	if r, c := intrinsic.Dims(); r != 3 || c != 3 {
		return nil, fmt.Errorf("%w: intrinsic must be 3x3, got %dx%d", ErrInvalidModel, r, c)
	}
	var cameraMatrix mat.Dense
	cameraMatrix.Mul(intrinsic, extrinsic)

	return NewModel(Parameters{
		ID:           id,
		Intrinsic:    intrinsic,
		Extrinsic:    extrinsic,
		CameraMatrix: &cameraMatrix,
		Rotation:     R,
		Translation:  tvec,
		Distortion:   distortion,
		TargetOrigin: origin,
	})
}
