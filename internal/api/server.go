// Package api serves the vision REST endpoints used by the base station:
// detection resets, world queries, the planned path and diagnostics.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/datalog"
	"github.com/agingrasc/design3-vision/internal/message"
	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/pipeline"
	"github.com/agingrasc/design3-vision/internal/world"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// Vision is the part of the frame loop the API reads and controls.
type Vision interface {
	Latest() *pipeline.Result
	RequestReset(pipeline.Reset)
	World() *world.World
	ProjectPath(points []r2.Vec) ([]r2.Vec, error)
	ImageToWorld(px r2.Vec, h float64) (r2.Vec, error)
	Stats() *monitoring.FrameStats
}

// ModelLister lists the known camera models.
type ModelLister interface {
	FindAll() []*camera.Model
}

// Config holds the dependencies of the Server. Log and Models are optional.
type Config struct {
	Vision    Vision
	Log       *datalog.Log
	Models    ModelLister
	Assembler message.Assembler
	// OpenCV reports whether the image processing backend is compiled in.
	OpenCV bool
}

type Server struct {
	vision    Vision
	log       *datalog.Log
	models    ModelLister
	assembler message.Assembler
	opencv    bool
}

func NewServer(cfg Config) *Server {
	return &Server{
		vision:    cfg.Vision,
		log:       cfg.Log,
		models:    cfg.Models,
		assembler: cfg.Assembler,
		opencv:    cfg.OpenCV,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// CORSMiddleware lets the base station page call the API from another origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /vision/reset-detection", s.resetHandler(pipeline.ResetDetection))
	mux.HandleFunc("POST /vision/reset-obstacles", s.resetHandler(pipeline.ResetObstacles))
	mux.HandleFunc("POST /vision/reset-rendering", s.resetHandler(pipeline.ResetRendering))
	mux.HandleFunc("GET /world-dimensions", s.showWorldDimensions)
	mux.HandleFunc("GET /obstacles", s.listObstacles)
	mux.HandleFunc("GET /drawzone-corners", s.showDrawzoneCorners)
	mux.HandleFunc("GET /robot", s.showRobot)
	mux.HandleFunc("POST /path", s.setPath)
	mux.HandleFunc("POST /world-coordinates", s.worldCoordinates)
	mux.HandleFunc("GET /camera-models", s.listCameraModels)
	mux.HandleFunc("GET /stats", s.showStats)
	mux.HandleFunc("GET /version", s.showVersion)
	mux.HandleFunc("GET /debug/path-chart", s.showPathChart)
	mux.HandleFunc("GET /debug/path.png", s.showPathPlot)
	return mux
}

// Handler returns the mux wrapped in the CORS and logging middleware.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(CORSMiddleware(s.ServeMux()))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		monitoring.Logf("[api] write response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) latestState() *world.State {
	if r := s.vision.Latest(); r != nil {
		return r.State
	}
	return nil
}
