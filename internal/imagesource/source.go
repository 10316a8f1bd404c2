// Package imagesource acquires frames for the vision loop: live camera
// streams, directories of still images and remote HTTP image endpoints.
package imagesource

import (
	"context"
	"errors"
	"image"
)

// ErrNoImage is returned by NextImage when no frame is available yet.
var ErrNoImage = errors.New("no image available")

// ErrExhausted is returned by NextImage once a finite source has no more
// frames.
var ErrExhausted = errors.New("image source exhausted")

// Source supplies frames to the vision loop.
type Source interface {
	// HasNextImage reports whether NextImage may still produce frames.
	HasNextImage() bool
	// NextImage returns the next frame. A live source returns ErrNoImage
	// until its first capture.
	NextImage(ctx context.Context) (image.Image, error)
}
