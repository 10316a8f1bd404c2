package imagesource

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"time"

	"github.com/disintegration/imaging"

	"github.com/agingrasc/design3-vision/internal/monitoring"
)

// DirectorySource replays the still images matched by a glob pattern, in
// lexical order.
type DirectorySource struct {
	paths    []string
	next     int
	interval time.Duration
	loop     bool
	last     time.Time
}

// DirectoryOption configures a DirectorySource.
type DirectoryOption func(*DirectorySource)

// WithInterval spaces frames at least d apart.
func WithInterval(d time.Duration) DirectoryOption {
	return func(s *DirectorySource) { s.interval = d }
}

// WithLoop restarts from the first image once the last one was served.
func WithLoop() DirectoryOption {
	return func(s *DirectorySource) { s.loop = true }
}

// NewDirectorySource lists the images matching pattern.
func NewDirectorySource(pattern string, opts ...DirectoryOption) (*DirectorySource, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid image pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images match %q", pattern)
	}
	sort.Strings(paths)
	s := &DirectorySource{paths: paths}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Len returns the number of images in the source.
func (s *DirectorySource) Len() int { return len(s.paths) }

// HasNextImage reports whether images remain.
func (s *DirectorySource) HasNextImage() bool {
	return s.loop || s.next < len(s.paths)
}

// NextImage decodes the next image, waiting out the configured interval.
func (s *DirectorySource) NextImage(ctx context.Context) (image.Image, error) {
	if !s.HasNextImage() {
		return nil, ErrExhausted
	}
	if s.interval > 0 && !s.last.IsZero() {
		if wait := s.interval - time.Since(s.last); wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	if s.next >= len(s.paths) {
		s.next = 0
	}
	path := s.paths[s.next]
	s.next++
	s.last = time.Now()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// LoadImages decodes every image matching pattern and returns them with
// their paths. Files that fail to decode are logged and skipped; it fails
// only when none decode. Used by batch tools.
func LoadImages(pattern string) ([]image.Image, []string, error) {
	src, err := NewDirectorySource(pattern)
	if err != nil {
		return nil, nil, err
	}
	images := make([]image.Image, 0, src.Len())
	paths := make([]string, 0, src.Len())
	for _, path := range src.paths {
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			monitoring.Logf("[imagesource] skipping %s: %v", path, err)
			continue
		}
		images = append(images, img)
		paths = append(paths, path)
	}
	if len(images) == 0 {
		return nil, nil, fmt.Errorf("none of the %d images matching %q could be decoded", src.Len(), pattern)
	}
	return images, paths, nil
}
