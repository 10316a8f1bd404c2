// Package datalog records where the robot has been and the path it was
// asked to follow, and draws both as a chart.
package datalog

import (
	"context"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/pipeline"
	"github.com/agingrasc/design3-vision/internal/world"
)

// DefaultCapacity bounds the number of positions kept in memory.
const DefaultCapacity = 10000

// Position is one robot sighting.
type Position struct {
	Seq   uint64
	At    time.Time
	Image r2.Vec
	// World is nil when the table was not yet known.
	World *r2.Vec
	// HeadingDeg is the robot heading in the image.
	HeadingDeg float64
}

// Log is an in-memory robot trace. It is safe for concurrent use: the
// frame loop records, the API reads.
type Log struct {
	capacity int
	verbose  bool

	mu         sync.RWMutex
	positions  []Position
	path       []r2.Vec
	pathPixels []r2.Vec
}

// Option configures a Log.
type Option func(*Log)

// WithCapacity keeps at most n positions, dropping the oldest.
func WithCapacity(n int) Option {
	return func(l *Log) { l.capacity = n }
}

// WithVerbose logs every recorded world position.
func WithVerbose() Option {
	return func(l *Log) { l.verbose = true }
}

// New returns an empty Log.
func New(opts ...Option) *Log {
	l := &Log{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PersistFrame implements pipeline.PersistenceSink.
func (l *Log) PersistFrame(_ context.Context, r *pipeline.Result) error {
	if r == nil || r.State == nil || r.State.Robot == nil {
		return nil
	}
	l.RecordRobot(r.Seq, r.CapturedAt, r.State.Robot)
	return nil
}

// RecordRobot appends a sighting of robot.
func (l *Log) RecordRobot(seq uint64, at time.Time, robot *world.Robot) {
	p := Position{Seq: seq, At: at, Image: robot.ImagePosition, HeadingDeg: robot.AngleDeg}
	if robot.WorldPosition != nil {
		w := *robot.WorldPosition
		p.World = &w
		if l.verbose {
			monitoring.Logf("[datalog] robot at (%.0f, %.0f) mm", w.X, w.Y)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions = append(l.positions, p)
	// Trim in chunks of a tenth of the capacity so a full log does not copy
	// itself on every frame.
	if l.capacity > 0 && len(l.positions) > l.capacity+l.slack() {
		n := len(l.positions) - l.capacity
		l.positions = append(l.positions[:0:0], l.positions[n:]...)
	}
}

func (l *Log) slack() int {
	if s := l.capacity / 10; s > 0 {
		return s
	}
	return 1
}

// Positions returns a copy of the most recent sightings, at most the
// capacity, oldest first.
func (l *Log) Positions() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	kept := l.positions
	if l.capacity > 0 && len(kept) > l.capacity {
		kept = kept[len(kept)-l.capacity:]
	}
	return append([]Position(nil), kept...)
}

// SetPath stores the planned path in world millimetres along with its
// projection in image pixels.
func (l *Log) SetPath(worldMM, pixels []r2.Vec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = append([]r2.Vec(nil), worldMM...)
	l.pathPixels = append([]r2.Vec(nil), pixels...)
}

// Path returns the planned path in world millimetres and image pixels.
func (l *Log) Path() (worldMM, pixels []r2.Vec) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]r2.Vec(nil), l.path...), append([]r2.Vec(nil), l.pathPixels...)
}

// ResetPositions forgets the trace but keeps the planned path.
func (l *Log) ResetPositions() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions = nil
}

// Reset forgets the trace and the planned path. It implements
// pipeline.Resetter.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions = nil
	l.path = nil
	l.pathPixels = nil
}
