//go:build gocv

package opencv

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Capture grabs frames from a camera device. It implements
// imagesource.Grabber.
type Capture struct {
	vc  *gocv.VideoCapture
	buf gocv.Mat
}

// OpenCapture opens the device described by s.
func OpenCapture(s CaptureSettings) (*Capture, error) {
	vc, err := gocv.OpenVideoCapture(s.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", s.Device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(s.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(s.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(s.FPS))
	return &Capture{vc: vc, buf: gocv.NewMat()}, nil
}

// Grab reads one frame.
func (c *Capture) Grab() (image.Image, error) {
	if ok := c.vc.Read(&c.buf); !ok || c.buf.Empty() {
		return nil, errors.New("camera returned no frame")
	}
	return c.buf.ToImage()
}

// Close releases the device.
func (c *Capture) Close() error {
	c.buf.Close()
	return c.vc.Close()
}
