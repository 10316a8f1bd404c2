package imagesource

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agingrasc/design3-vision/internal/monitoring"
)

// Grabber reads frames from a capture device.
type Grabber interface {
	Grab() (image.Image, error)
	Close() error
}

// StreamSource captures frames on a background goroutine into a LatestFrame
// slot. NextImage returns whatever frame is newest and never blocks on the
// camera.
type StreamSource struct {
	grabber Grabber
	latest  LatestFrame

	running atomic.Bool
	stop    context.CancelFunc
	wg      sync.WaitGroup

	// retryDelay is the pause after a failed grab.
	retryDelay time.Duration
	// maxFailures stops capture after that many consecutive failed grabs.
	maxFailures int
}

// NewStreamSource wraps g. Call Start to begin capturing.
func NewStreamSource(g Grabber) *StreamSource {
	return &StreamSource{
		grabber:     g,
		retryDelay:  50 * time.Millisecond,
		maxFailures: 100,
	}
}

// Start launches the capture goroutine. It stops when ctx is cancelled, on
// Close, or after too many consecutive grab failures.
func (s *StreamSource) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.running.Store(true)
	s.wg.Add(1)
	go s.capture(ctx)
}

func (s *StreamSource) capture(ctx context.Context) {
	defer s.wg.Done()
	defer s.running.Store(false)

	failures := 0
	for ctx.Err() == nil {
		img, err := s.grabber.Grab()
		if err != nil || img == nil {
			failures++
			if failures >= s.maxFailures {
				monitoring.Logf("[imagesource] Stopping capture after %d failed grabs: %v", failures, err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
			continue
		}
		failures = 0
		s.latest.Store(img)
	}
}

// HasNextImage reports whether the capture goroutine is running.
func (s *StreamSource) HasNextImage() bool {
	return s.running.Load()
}

// NextImage returns the newest captured frame.
func (s *StreamSource) NextImage(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := s.latest.Load()
	if f == nil {
		return nil, ErrNoImage
	}
	return f.Image, nil
}

// Latest exposes the frame slot, e.g. for sequence-aware readers.
func (s *StreamSource) Latest() *LatestFrame { return &s.latest }

// Close stops capture and releases the device.
func (s *StreamSource) Close() error {
	if s.stop != nil {
		s.stop()
	}
	s.wg.Wait()
	if err := s.grabber.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
