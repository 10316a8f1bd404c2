// Command calibrate computes a camera model from a set of chessboard
// pictures and stores it in the camera model repository.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/config"
	"github.com/agingrasc/design3-vision/internal/db"
	"github.com/agingrasc/design3-vision/internal/imagesource"
	"github.com/agingrasc/design3-vision/internal/vision/opencv"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Path to the vision configuration (JSON)")
	images     = flag.String("images", "", "Glob of chessboard pictures, e.g. 'calibration/*.jpg'")
	modelID    = flag.Int("id", 0, "Id of the produced model (default: camera_model_id from config)")
	out        = flag.String("out", "", "Camera model file (default: camera_model_path from config)")
	workers    = flag.Int("workers", 0, "Corner detection workers (default: calibration_workers from config)")
	force      = flag.Bool("force", false, "Store the model even when its reprojection error is poor")
)

func main() {
	flag.Parse()

	if *images == "" {
		log.Fatal("-images is required")
	}
	cfg, err := config.LoadVisionConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *modelID == 0 {
		*modelID = cfg.GetCameraModelID()
	}
	if *out == "" {
		*out = cfg.GetCameraModelPath()
	}
	if *workers == 0 {
		*workers = cfg.GetCalibrationWorkers()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finder, err := opencv.NewChessboardFinder()
	if err != nil {
		log.Fatalf("failed to create corner finder: %v", err)
	}
	solver, err := opencv.NewSolver()
	if err != nil {
		log.Fatalf("failed to create solver: %v", err)
	}
	shape := camera.TargetShape{Columns: cfg.GetChessboardColumns(), Rows: cfg.GetChessboardRows()}
	calibration, err := camera.NewCalibration(shape, finder, solver, camera.WithModelID(*modelID))
	if err != nil {
		log.Fatalf("failed to start calibration: %v", err)
	}

	imgs, paths, err := imagesource.LoadImages(*images)
	if err != nil {
		log.Fatalf("failed to load images: %v", err)
	}
	log.Printf("calibration %s: %d images, %dx%d board", calibration.SessionID(), len(imgs), shape.Columns, shape.Rows)

	report, err := calibration.CollectTargetImages(ctx, imgs, *workers)
	if err != nil {
		log.Fatalf("failed to collect target images: %v", err)
	}
	for _, r := range report.Rejected {
		log.Printf("skipped %s: %v", paths[r.Index], r.Err)
	}

	model, err := calibration.Finalize()
	if err != nil {
		log.Fatalf("calibration failed: %v", err)
	}
	quality := calibration.Quality()
	log.Printf("accepted %d images, reprojection error %.3f px (%s)", report.Accepted, calibration.RMS(), quality)
	if !quality.Usable() && !*force {
		log.Fatalf("reprojection error too high, not storing model %d (use -force to override)", model.ID())
	}

	repo, err := camera.OpenJSONRepository(*out)
	if err != nil {
		log.Fatalf("failed to open camera models: %v", err)
	}
	if err := repo.Add(model); err != nil {
		log.Fatalf("failed to add model: %v", err)
	}
	if err := repo.Persist(); err != nil {
		log.Fatalf("failed to save camera models: %v", err)
	}
	log.Printf("stored camera model %d in %s", model.ID(), repo.Path())

	if path := cfg.GetDBPath(); path != "" {
		store, err := db.NewDB(path)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
		if err := store.SaveCameraModel(model); err != nil {
			log.Printf("failed to record camera model: %v", err)
		}
		session := db.CalibrationSession{
			SessionID: calibration.SessionID(),
			ModelID:   model.ID(),
			Columns:   shape.Columns,
			Rows:      shape.Rows,
			Accepted:  report.Accepted,
			Rejected:  len(report.Rejected),
			RMS:       calibration.RMS(),
			Quality:   quality.String(),
		}
		if err := store.RecordCalibrationSession(session); err != nil {
			log.Printf("failed to record calibration session: %v", err)
		}
	}
}
