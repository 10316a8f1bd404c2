package main

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agingrasc/design3-vision/internal/config"
	"github.com/agingrasc/design3-vision/internal/imagesource"
	"github.com/agingrasc/design3-vision/internal/vision/opencv"
)

func configWith(t *testing.T, mutate func(*config.VisionConfig)) *config.VisionConfig {
	t.Helper()
	cfg := config.DefaultVisionConfig()
	mutate(cfg)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestOpenSource_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		require.NoError(t, imaging.Save(image.NewRGBA(image.Rect(0, 0, 4, 4)), filepath.Join(dir, name)))
	}
	pattern := filepath.Join(dir, "*.png")
	source := config.SourceDirectory
	cfg := configWith(t, func(c *config.VisionConfig) {
		c.Source = &source
		c.ImagePattern = &pattern
	})

	src, closeSource, err := openSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closeSource()

	dirSource, ok := src.(*imagesource.DirectorySource)
	require.True(t, ok)
	assert.Equal(t, 2, dirSource.Len())
}

func TestOpenSource_HTTP(t *testing.T) {
	t.Parallel()

	source := config.SourceHTTP
	cfg := configWith(t, func(c *config.VisionConfig) { c.Source = &source })

	src, closeSource, err := openSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closeSource()
	assert.True(t, src.HasNextImage())
}

func TestOpenSource_Camera(t *testing.T) {
	t.Parallel()
	if opencv.Available {
		t.Skip("needs a camera device")
	}

	_, _, err := openSource(context.Background(), config.DefaultVisionConfig())
	assert.ErrorIs(t, err, opencv.ErrUnavailable)
}

func TestOpenSource_Unknown(t *testing.T) {
	t.Parallel()

	bogus := "carrier-pigeon"
	cfg := config.DefaultVisionConfig()
	cfg.Source = &bogus

	_, _, err := openSource(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown image source")
}

func TestNewDetectionService(t *testing.T) {
	t.Parallel()

	service, err := newDetectionService(config.DefaultVisionConfig())
	if !opencv.Available {
		assert.ErrorIs(t, err, opencv.ErrUnavailable)
		return
	}
	require.NoError(t, err)
	assert.Len(t, service.Detectors(), 4)
}
