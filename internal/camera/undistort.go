package camera

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// Undistorter removes lens distortion from an image. It is implemented by
// the image-processing backend.
type Undistorter interface {
	Undistort(img image.Image, intrinsic mat.Matrix, distortion []float64) (image.Image, error)
}

// Undistort delegates distortion removal of img to u using this model's
// intrinsic matrix and distortion coefficients.
func (m *Model) Undistort(u Undistorter, img image.Image) (image.Image, error) {
	return u.Undistort(img, m.Intrinsic(), m.Distortion())
}
