package monitoring

import (
	"sync/atomic"
	"time"
)

// FrameStats counts what the vision loop did. All methods are safe for
// concurrent use: the loop records, the API reads.
type FrameStats struct {
	started time.Time

	frames           atomic.Uint64
	sourceErrors     atomic.Uint64
	detectorFailures atomic.Uint64
	elementErrors    atomic.Uint64
	worldFrames      atomic.Uint64
	robotFrames      atomic.Uint64
	lastDurationNs   atomic.Int64
	totalDurationNs  atomic.Int64
}

// NewFrameStats starts a stats window now.
func NewFrameStats() *FrameStats {
	return &FrameStats{started: time.Now()}
}

// FrameResult is what one processed frame contributes to the stats.
type FrameResult struct {
	Duration         time.Duration
	DetectorFailures int
	ElementErrors    int
	WorldDetected    bool
	RobotDetected    bool
}

// RecordFrame adds one processed frame.
func (s *FrameStats) RecordFrame(r FrameResult) {
	s.frames.Add(1)
	s.detectorFailures.Add(uint64(r.DetectorFailures))
	s.elementErrors.Add(uint64(r.ElementErrors))
	if r.WorldDetected {
		s.worldFrames.Add(1)
	}
	if r.RobotDetected {
		s.robotFrames.Add(1)
	}
	s.lastDurationNs.Store(int64(r.Duration))
	s.totalDurationNs.Add(int64(r.Duration))
}

// RecordSourceError counts a frame that could not be acquired.
func (s *FrameStats) RecordSourceError() {
	s.sourceErrors.Add(1)
}

// StatsSnapshot is a point-in-time copy of FrameStats.
type StatsSnapshot struct {
	Uptime           string  `json:"uptime"`
	Frames           uint64  `json:"frames"`
	SourceErrors     uint64  `json:"source_errors"`
	DetectorFailures uint64  `json:"detector_failures"`
	ElementErrors    uint64  `json:"element_errors"`
	WorldFrames      uint64  `json:"world_frames"`
	RobotFrames      uint64  `json:"robot_frames"`
	LastFrameMs      float64 `json:"last_frame_ms"`
	MeanFrameMs      float64 `json:"mean_frame_ms"`
	FPS              float64 `json:"fps"`
}

// Snapshot returns the current counters.
func (s *FrameStats) Snapshot() StatsSnapshot {
	uptime := time.Since(s.started)
	frames := s.frames.Load()
	snap := StatsSnapshot{
		Uptime:           uptime.Truncate(time.Second).String(),
		Frames:           frames,
		SourceErrors:     s.sourceErrors.Load(),
		DetectorFailures: s.detectorFailures.Load(),
		ElementErrors:    s.elementErrors.Load(),
		WorldFrames:      s.worldFrames.Load(),
		RobotFrames:      s.robotFrames.Load(),
		LastFrameMs:      float64(s.lastDurationNs.Load()) / 1e6,
	}
	if frames > 0 {
		snap.MeanFrameMs = float64(s.totalDurationNs.Load()) / float64(frames) / 1e6
	}
	if secs := uptime.Seconds(); secs > 0 {
		snap.FPS = float64(frames) / secs
	}
	return snap
}
