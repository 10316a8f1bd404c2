// Command vision runs the overhead-camera frame loop: it detects the table,
// the robot and the obstacles, translates them to table coordinates, pushes
// each frame to the base station and serves the vision REST API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/agingrasc/design3-vision/internal/api"
	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/config"
	"github.com/agingrasc/design3-vision/internal/datalog"
	"github.com/agingrasc/design3-vision/internal/db"
	"github.com/agingrasc/design3-vision/internal/detect"
	"github.com/agingrasc/design3-vision/internal/imagesource"
	"github.com/agingrasc/design3-vision/internal/message"
	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/pipeline"
	"github.com/agingrasc/design3-vision/internal/transport"
	"github.com/agingrasc/design3-vision/internal/translate"
	"github.com/agingrasc/design3-vision/internal/version"
	"github.com/agingrasc/design3-vision/internal/vision"
	"github.com/agingrasc/design3-vision/internal/vision/opencv"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to the vision configuration (JSON)")
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	noPublish   = flag.Bool("no-publish", false, "Do not push frames to the base station")
	verbose     = flag.Bool("verbose", false, "Log every robot sighting")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get(opencv.Available).String())
		return
	}

	cfg, err := config.LoadVisionConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	addr := cfg.GetListenAddr()
	if *listen != "" {
		addr = *listen
	}

	repo, err := camera.OpenJSONRepository(cfg.GetCameraModelPath())
	if err != nil {
		log.Fatalf("failed to open camera models: %v", err)
	}
	model, err := repo.FindByID(cfg.GetCameraModelID())
	if err != nil {
		log.Fatalf("failed to load camera model: %v", err)
	}
	log.Printf("using camera model %d from %s", model.ID(), repo.Path())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open image source: %v", err)
	}
	defer closeSource()

	service, err := newDetectionService(cfg)
	if err != nil {
		log.Fatalf("failed to set up detectors: %v", err)
	}

	translator := translate.New(model,
		translate.WithSquareSize(cfg.GetSquareSizeMM()),
		translate.WithMarkerHeights(cfg.GetRobotHeight(), cfg.GetObstacleHeight()),
	)

	var opts []datalog.Option
	if *verbose {
		opts = append(opts, datalog.WithVerbose())
	}
	trace := datalog.New(opts...)
	assembler := message.Assembler{Unit: cfg.GetUnit(), Diminution: message.DefaultDiminution}

	pcfg := pipeline.Config{
		Source:        source,
		Service:       service,
		Translator:    translator,
		Model:         model,
		Persist:       []pipeline.PersistenceSink{trace},
		Stats:         monitoring.NewFrameStats(),
		FrameInterval: cfg.GetFrameInterval(),
	}
	if cfg.GetUndistort() {
		if u, err := opencv.NewUndistorter(); err != nil {
			log.Printf("undistortion disabled: %v", err)
		} else {
			pcfg.Undistorter = u
		}
	}

	var store *db.DB
	if path := cfg.GetDBPath(); path != "" {
		store, err = db.NewDB(path)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
		if err := store.SaveCameraModel(model); err != nil {
			log.Printf("failed to record camera model: %v", err)
		}
		frames := store.NewFrameLog()
		log.Printf("recording run %s to %s", frames.RunID(), store.Path())
		pcfg.Persist = append(pcfg.Persist, frames)
	}

	var client *transport.Client
	if !*noPublish {
		client = transport.NewClient(cfg.GetBaseStationURL(), assembler)
		defer client.Close()
		pcfg.Publish = []pipeline.PublishSink{client}
	}

	p, err := pipeline.New(pcfg)
	if err != nil {
		log.Fatalf("failed to create pipeline: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("frame loop stopped: %v", err)
		}
		log.Print("frame loop terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		mux.Handle("/", api.NewServer(api.Config{
			Vision:    p,
			Log:       trace,
			Models:    repo,
			Assembler: assembler,
			OpenCV:    opencv.Available,
		}).Handler())
		if store != nil {
			if err := store.AttachAdminRoutes(mux); err != nil {
				log.Printf("failed to attach db admin routes: %v", err)
			}
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Printf("serving vision API on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("processed %d frames", p.Stats().Snapshot().Frames)
	log.Printf("Graceful shutdown complete")
}

// openSource builds the configured image source. The returned func releases
// it.
func openSource(ctx context.Context, cfg *config.VisionConfig) (imagesource.Source, func(), error) {
	switch cfg.GetSource() {
	case config.SourceCamera:
		settings := opencv.DefaultCaptureSettings()
		settings.Device = cfg.GetCameraDevice()
		capture, err := opencv.OpenCapture(settings)
		if err != nil {
			return nil, nil, err
		}
		stream := imagesource.NewStreamSource(capture)
		stream.Start(ctx)
		return stream, func() { _ = stream.Close() }, nil
	case config.SourceDirectory:
		opts := []imagesource.DirectoryOption{imagesource.WithInterval(cfg.GetFrameInterval())}
		if cfg.GetLoopImages() {
			opts = append(opts, imagesource.WithLoop())
		}
		dir, err := imagesource.NewDirectorySource(cfg.GetImagePattern(), opts...)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("replaying %d images from %s", dir.Len(), cfg.GetImagePattern())
		return dir, func() {}, nil
	case config.SourceHTTP:
		client := &http.Client{Timeout: 5 * time.Second}
		return imagesource.NewHTTPSource(cfg.GetImageURL(), client), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown image source %q", cfg.GetSource())
	}
}

// newDetectionService registers the table, drawing area, obstacle and robot
// detectors. In competition mode everything but the robot is detected once
// and cached until a reset.
func newDetectionService(cfg *config.VisionConfig) (*detect.Service, error) {
	table, err := opencv.NewTableDetector()
	if err != nil {
		return nil, err
	}
	robot, err := opencv.NewRobotDetector()
	if err != nil {
		return nil, err
	}
	obstacles, err := opencv.NewObstacleDetector()
	if err != nil {
		return nil, err
	}
	drawingArea := vision.NewDrawingAreaDetector()
	drawingArea.Range = cfg.GetGreenRange()
	drawingArea.MedianRadius = cfg.GetMedianRadius()
	drawingArea.MinArea = cfg.GetMinDrawingArea()

	static := []detect.Detector{table, drawingArea, obstacles}
	if cfg.GetCompetitionMode() {
		for i, d := range static {
			static[i] = detect.NewDetectOnce(d)
		}
	}

	service := detect.NewService()
	for _, d := range append(static, robot) {
		if err := service.Register(d); err != nil {
			return nil, err
		}
	}
	return service, nil
}
