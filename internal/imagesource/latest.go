package imagesource

import (
	"image"
	"sync/atomic"
	"time"
)

// Frame is one captured image.
type Frame struct {
	Image      image.Image
	Seq        uint64
	CapturedAt time.Time
}

// LatestFrame is a single-slot cell holding the most recent capture. The
// writer replaces the slot with a pointer swap and readers load whatever is
// there; neither side ever waits. A reader may see the same frame twice or
// skip frames. A published Frame is never modified, so readers never observe
// a partially written one.
type LatestFrame struct {
	slot atomic.Pointer[Frame]
	seq  atomic.Uint64
}

// Store publishes img as the latest frame and returns its sequence number.
func (l *LatestFrame) Store(img image.Image) uint64 {
	seq := l.seq.Add(1)
	l.slot.Store(&Frame{Image: img, Seq: seq, CapturedAt: time.Now()})
	return seq
}

// Load returns the latest frame, or nil before the first Store.
func (l *LatestFrame) Load() *Frame {
	return l.slot.Load()
}
