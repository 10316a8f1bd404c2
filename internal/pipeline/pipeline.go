// Package pipeline runs the vision frame loop: acquire an image, detect the
// table elements, translate them to world coordinates and hand the result
// to the publish and persistence sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/detect"
	"github.com/agingrasc/design3-vision/internal/imagesource"
	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/translate"
	"github.com/agingrasc/design3-vision/internal/world"
)

// DefaultIdleWait is how long the loop waits when the source has no frame.
const DefaultIdleWait = 20 * time.Millisecond

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("pipeline: missing dependency")

// Result is one processed frame.
type Result struct {
	Seq        uint64
	CapturedAt time.Time
	// Image is the frame the detectors saw, after undistortion.
	Image    image.Image
	State    *world.State
	Failures []*detect.NotFoundError
	Duration time.Duration
}

// PublishSink sends processed frames to external consumers.
type PublishSink interface {
	PublishFrame(ctx context.Context, r *Result) error
}

// PersistenceSink records processed frames.
type PersistenceSink interface {
	PersistFrame(ctx context.Context, r *Result) error
}

// Resetter is implemented by sinks holding per-run rendering state. It is
// called when a rendering reset is applied.
type Resetter interface {
	Reset()
}

// Config holds the dependencies of the frame loop.
type Config struct {
	Source     imagesource.Source
	Service    *detect.Service
	Translator *translate.Translator

	// Model and Undistorter are optional. When both are set each frame is
	// undistorted before detection.
	Model       *camera.Model
	Undistorter camera.Undistorter

	Publish []PublishSink
	Persist []PersistenceSink
	Stats   *monitoring.FrameStats

	// FrameInterval is the minimum time between frame starts. Zero means
	// as fast as the source delivers.
	FrameInterval time.Duration
	// IdleWait is the pause after ErrNoImage. Defaults to DefaultIdleWait.
	IdleWait time.Duration
}

// Pipeline owns the detection service and the translator. Both are only
// touched under mu: by the loop once per frame and by the query methods.
type Pipeline struct {
	cfg Config
	log monitoring.LogFunc

	mu  sync.Mutex
	seq uint64

	pending atomic.Uint32
	latest  atomic.Pointer[Result]
}

// New validates cfg and returns a stopped pipeline.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Source == nil:
		return nil, fmt.Errorf("%w: source", ErrMissingDependency)
	case cfg.Service == nil:
		return nil, fmt.Errorf("%w: detection service", ErrMissingDependency)
	case cfg.Translator == nil:
		return nil, fmt.Errorf("%w: translator", ErrMissingDependency)
	}
	if cfg.Stats == nil {
		cfg.Stats = monitoring.NewFrameStats()
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = DefaultIdleWait
	}
	return &Pipeline{cfg: cfg, log: monitoring.Component("pipeline")}, nil
}

// Stats returns the frame counters of the loop.
func (p *Pipeline) Stats() *monitoring.FrameStats { return p.cfg.Stats }

// Latest returns the most recent Result, or nil before the first frame.
// It never blocks on the loop.
func (p *Pipeline) Latest() *Result { return p.latest.Load() }

// Run processes frames until ctx is cancelled or the source is exhausted.
// Cancellation is observed between frames only; a frame in progress is
// always finished.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log("started")
	defer p.log("stopped")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !p.cfg.Source.HasNextImage() {
			return nil
		}

		start := time.Now()
		_, err := p.Step(ctx)
		switch {
		case err == nil:
			p.pace(ctx, start)
		case errors.Is(err, imagesource.ErrExhausted):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, imagesource.ErrNoImage):
			p.wait(ctx, p.cfg.IdleWait)
		default:
			p.log("frame skipped: %v", err)
			p.wait(ctx, p.cfg.IdleWait)
		}
	}
}

func (p *Pipeline) pace(ctx context.Context, start time.Time) {
	if p.cfg.FrameInterval <= 0 {
		return
	}
	p.wait(ctx, p.cfg.FrameInterval-time.Since(start))
}

func (p *Pipeline) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Step processes a single frame. Source errors are returned and counted;
// detector and geometry failures are part of the Result.
func (p *Pipeline) Step(ctx context.Context) (*Result, error) {
	p.applyResets()

	img, err := p.cfg.Source.NextImage(ctx)
	if err != nil {
		if !errors.Is(err, imagesource.ErrNoImage) {
			p.cfg.Stats.RecordSourceError()
		}
		return nil, err
	}
	start := time.Now()
	img = p.undistort(img)

	p.mu.Lock()
	elements := p.cfg.Service.DetectAll(img)
	failures := p.cfg.Service.Failures()
	state := p.cfg.Translator.Translate(elements)
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	for _, err := range state.Errors {
		p.log("frame %d: %v", seq, err)
	}
	r := &Result{
		Seq:        seq,
		CapturedAt: start,
		Image:      img,
		State:      state,
		Failures:   failures,
		Duration:   time.Since(start),
	}
	p.latest.Store(r)
	p.cfg.Stats.RecordFrame(monitoring.FrameResult{
		Duration:         r.Duration,
		DetectorFailures: len(failures),
		ElementErrors:    len(state.Errors),
		WorldDetected:    state.WorldDetected(),
		RobotDetected:    state.RobotDetected(),
	})
	p.deliver(ctx, r)
	return r, nil
}

func (p *Pipeline) undistort(img image.Image) image.Image {
	if p.cfg.Model == nil || p.cfg.Undistorter == nil {
		return img
	}
	out, err := p.cfg.Model.Undistort(p.cfg.Undistorter, img)
	if err != nil {
		p.log("undistort failed, using raw frame: %v", err)
		return img
	}
	return out
}

func (p *Pipeline) deliver(ctx context.Context, r *Result) {
	for _, s := range p.cfg.Persist {
		if err := s.PersistFrame(ctx, r); err != nil {
			p.log("persist frame %d: %v", r.Seq, err)
		}
	}
	for _, s := range p.cfg.Publish {
		if err := s.PublishFrame(ctx, r); err != nil {
			p.log("publish frame %d: %v", r.Seq, err)
		}
	}
}

// World returns the current World, or nil if no table was ever detected.
func (p *Pipeline) World() *world.World {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Translator.World()
}

// ProjectPath maps world millimetre points to image pixels with the
// current World.
func (p *Pipeline) ProjectPath(points []r2.Vec) ([]r2.Vec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Translator.ProjectPath(points)
}

// ImageToWorld maps pixel px of a point h squares above the table to world
// millimetres with the current World.
func (p *Pipeline) ImageToWorld(px r2.Vec, h float64) (r2.Vec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Translator.ImageToWorld(px, h)
}
