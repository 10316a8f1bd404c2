package pipeline

import (
	"strings"

	"github.com/agingrasc/design3-vision/internal/world"
)

// Reset selects what RequestReset clears. Values combine with |.
type Reset uint32

const (
	// ResetDetection forgets every cached detection and the World derived
	// from them.
	ResetDetection Reset = 1 << iota
	// ResetObstacles forgets only the cached obstacles.
	ResetObstacles
	// ResetRendering forgets the recorded robot trace and planned path.
	ResetRendering
)

func (r Reset) String() string {
	var parts []string
	if r&ResetDetection != 0 {
		parts = append(parts, "detection")
	}
	if r&ResetObstacles != 0 {
		parts = append(parts, "obstacles")
	}
	if r&ResetRendering != 0 {
		parts = append(parts, "rendering")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// RequestReset queues r. It is applied before the next frame is acquired,
// so detectors are never reset while they run.
func (p *Pipeline) RequestReset(r Reset) {
	p.pending.Or(uint32(r))
}

func (p *Pipeline) applyResets() {
	r := Reset(p.pending.Swap(0))
	if r == 0 {
		return
	}
	p.mu.Lock()
	if r&ResetDetection != 0 {
		n := p.cfg.Service.ResetDetection()
		p.cfg.Translator.ResetWorld()
		p.log("detection reset: %d cached detectors cleared", n)
	} else if r&ResetObstacles != 0 {
		n := p.cfg.Service.ResetKind(world.KindObstacles)
		p.log("obstacles reset: %d cached detectors cleared", n)
	}
	p.mu.Unlock()

	if r&ResetRendering == 0 {
		return
	}
	for _, s := range p.cfg.Persist {
		if rs, ok := s.(Resetter); ok {
			rs.Reset()
		}
	}
	for _, s := range p.cfg.Publish {
		if rs, ok := s.(Resetter); ok {
			rs.Reset()
		}
	}
	p.log("rendering reset")
}
