// Package testutil provides shared test fixtures: synthetic cameras, scene
// images and scripted detectors.
package testutil

import (
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/agingrasc/design3-vision/internal/camera"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// Synthetic camera parameters: 1280x960 sensor, looking straight down at the
// board from CameraHeight squares.
const (
	ImageWidth   = 1280
	ImageHeight  = 960
	FocalLength  = 800.0
	CameraHeight = 40.0
)

// OverheadCamera returns a model looking straight down at the board, with
// the target origin at the principal point. One square on the table spans
// FocalLength/CameraHeight pixels.
func OverheadCamera(t testing.TB) *camera.Model {
	t.Helper()
	return mustCompose(t, r3.Vec{}, r3.Vec{Z: CameraHeight})
}

// TiltedCamera returns a model with a small rotation and an off-centre
// translation, the kind of pose a real calibration produces.
func TiltedCamera(t testing.TB) *camera.Model {
	t.Helper()
	return mustCompose(t, r3.Vec{X: 0.12, Y: -0.07, Z: 0.3}, r3.Vec{X: -6, Y: -4, Z: CameraHeight})
}

func mustCompose(t testing.TB, rvec, tvec r3.Vec) *camera.Model {
	t.Helper()
	K := mat.NewDense(3, 3, []float64{
		FocalLength, 0, ImageWidth / 2,
		0, FocalLength, ImageHeight / 2,
		0, 0, 1,
	})
	m, err := camera.Compose(1, K, rvec, tvec, []float64{0, 0, 0, 0, 0}, r2.Vec{X: ImageWidth / 2, Y: ImageHeight / 2})
	if err != nil {
		t.Fatalf("compose synthetic camera: %v", err)
	}
	return m
}

// Project maps target-frame points at height z (squares, negative above the
// table) to pixels through m.
func Project(t testing.TB, m *camera.Model, z float64, pts ...r2.Vec) []r2.Vec {
	t.Helper()
	out := make([]r2.Vec, 0, len(pts))
	for _, p := range pts {
		px, err := m.TargetToImage(p.X, p.Y, z)
		if err != nil {
			t.Fatalf("project %v: %v", p, err)
		}
		out = append(out, px)
	}
	return out
}

// BlankFrame returns an empty frame of the synthetic sensor size.
func BlankFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, ImageWidth, ImageHeight))
}
