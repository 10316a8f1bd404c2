package camera

import (
	"context"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/monitoring"
)

// CollectReport summarises a batch collection.
type CollectReport struct {
	Accepted int
	// Rejected holds the skipped images in input order.
	Rejected []Rejection
}

// Rejection is one image CollectTargetImages skipped.
type Rejection struct {
	// Index is the position of the image in the input slice.
	Index int
	Err   error
}

// CollectTargetImages runs corner detection for every image on a pool of
// workers and then records the accepted images in input order on the
// calling goroutine. Images without a board are logged and skipped. A
// workers value below 1 uses GOMAXPROCS.
func (c *Calibration) CollectTargetImages(ctx context.Context, images []image.Image, workers int) (CollectReport, error) {
	if c.finalized {
		return CollectReport{}, ErrCalibrationFinalized
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	corners := make([][]r2.Vec, len(images))
	errs := make([]error, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			corners[i], errs[i] = c.locate(img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CollectReport{}, err
	}

	var report CollectReport
	for i, img := range images {
		err := errs[i]
		if err == nil {
			err = c.record(img.Bounds().Size(), corners[i])
		}
		if err != nil {
			monitoring.Logf("[calibration %s] skipping image %d: %v", c.sessionID, i, err)
			report.Rejected = append(report.Rejected, Rejection{Index: i, Err: err})
			continue
		}
		report.Accepted++
	}
	return report, nil
}
