package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agingrasc/design3-vision/internal/units"
	"github.com/agingrasc/design3-vision/internal/vision"
)

// DefaultConfigPath is the path to the canonical vision defaults file.
const DefaultConfigPath = "config/vision.defaults.json"

// Image source kinds.
const (
	SourceCamera    = "camera"
	SourceDirectory = "directory"
	SourceHTTP      = "http"
)

// VisionConfig is the configuration of the vision service and the
// calibration tool. Every field is optional; the Get* methods supply the
// defaults, so partial configs are safe.
type VisionConfig struct {
	// Geometry
	SquareSizeMM   *float64 `json:"square_size_mm,omitempty"`
	RobotHeight    *float64 `json:"robot_height,omitempty"`    // target squares above the table
	ObstacleHeight *float64 `json:"obstacle_height,omitempty"` // target squares above the table

	// Camera model
	CameraModelPath *string `json:"camera_model_path,omitempty"`
	CameraModelID   *int    `json:"camera_model_id,omitempty"`
	Undistort       *bool   `json:"undistort,omitempty"`

	// Detection
	CompetitionMode *bool    `json:"competition_mode,omitempty"`
	GreenHueMin     *float64 `json:"green_hue_min,omitempty"`
	GreenHueMax     *float64 `json:"green_hue_max,omitempty"`
	MinSaturation   *float64 `json:"min_saturation,omitempty"`
	MinValue        *float64 `json:"min_value,omitempty"`
	MedianRadius    *float64 `json:"median_radius,omitempty"`
	MinDrawingArea  *float64 `json:"min_drawing_area,omitempty"`

	// Image source
	Source        *string `json:"source,omitempty"`
	CameraDevice  *int    `json:"camera_device,omitempty"`
	ImagePattern  *string `json:"image_pattern,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
	LoopImages    *bool   `json:"loop_images,omitempty"`
	FrameInterval *string `json:"frame_interval,omitempty"` // duration string like "66ms"

	// Outputs
	ListenAddr     *string `json:"listen_addr,omitempty"`
	BaseStationURL *string `json:"base_station_url,omitempty"`
	Unit           *string `json:"unit,omitempty"`
	DBPath         *string `json:"db_path,omitempty"`

	// Calibration
	ChessboardColumns  *int `json:"chessboard_columns,omitempty"`
	ChessboardRows     *int `json:"chessboard_rows,omitempty"`
	CalibrationWorkers *int `json:"calibration_workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyVisionConfig returns a VisionConfig with all fields set to nil.
func EmptyVisionConfig() *VisionConfig {
	return &VisionConfig{}
}

// DefaultVisionConfig returns a VisionConfig with every field set to its
// default value.
func DefaultVisionConfig() *VisionConfig {
	c := EmptyVisionConfig()
	return &VisionConfig{
		SquareSizeMM:       ptrFloat64(c.GetSquareSizeMM()),
		RobotHeight:        ptrFloat64(c.GetRobotHeight()),
		ObstacleHeight:     ptrFloat64(c.GetObstacleHeight()),
		CameraModelPath:    ptrString(c.GetCameraModelPath()),
		CameraModelID:      ptrInt(c.GetCameraModelID()),
		Undistort:          ptrBool(c.GetUndistort()),
		CompetitionMode:    ptrBool(c.GetCompetitionMode()),
		GreenHueMin:        ptrFloat64(vision.GreenRange.HueMin),
		GreenHueMax:        ptrFloat64(vision.GreenRange.HueMax),
		MinSaturation:      ptrFloat64(vision.GreenRange.SatMin),
		MinValue:           ptrFloat64(vision.GreenRange.ValMin),
		MedianRadius:       ptrFloat64(c.GetMedianRadius()),
		MinDrawingArea:     ptrFloat64(c.GetMinDrawingArea()),
		Source:             ptrString(c.GetSource()),
		CameraDevice:       ptrInt(c.GetCameraDevice()),
		ImagePattern:       ptrString(c.GetImagePattern()),
		ImageURL:           ptrString(c.GetImageURL()),
		LoopImages:         ptrBool(c.GetLoopImages()),
		FrameInterval:      ptrString(c.GetFrameInterval().String()),
		ListenAddr:         ptrString(c.GetListenAddr()),
		BaseStationURL:     ptrString(c.GetBaseStationURL()),
		Unit:               ptrString(c.GetUnit()),
		DBPath:             ptrString(c.GetDBPath()),
		ChessboardColumns:  ptrInt(c.GetChessboardColumns()),
		ChessboardRows:     ptrInt(c.GetChessboardRows()),
		CalibrationWorkers: ptrInt(c.GetCalibrationWorkers()),
	}
}

// LoadVisionConfig loads a VisionConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadVisionConfig(path string) (*VisionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyVisionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and its parents up to the repository
// root. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *VisionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/vision/opencv/
	}
	for _, path := range candidates {
		if cfg, err := LoadVisionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *VisionConfig) Validate() error {
	for name, v := range map[string]*float64{
		"square_size_mm": c.SquareSizeMM,
		"median_radius":  c.MedianRadius,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}
	for name, v := range map[string]*float64{
		"robot_height":     c.RobotHeight,
		"obstacle_height":  c.ObstacleHeight,
		"min_drawing_area": c.MinDrawingArea,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}
	for name, v := range map[string]*float64{
		"green_hue_min": c.GreenHueMin,
		"green_hue_max": c.GreenHueMax,
	} {
		if v != nil && (*v < 0 || *v > 360) {
			return fmt.Errorf("%s must be between 0 and 360, got %f", name, *v)
		}
	}
	for name, v := range map[string]*float64{
		"min_saturation": c.MinSaturation,
		"min_value":      c.MinValue,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	if c.Source != nil {
		switch *c.Source {
		case SourceCamera, SourceDirectory, SourceHTTP:
		default:
			return fmt.Errorf("source must be one of %s, %s, %s, got %q", SourceCamera, SourceDirectory, SourceHTTP, *c.Source)
		}
	}
	if c.Unit != nil && !units.IsValid(*c.Unit) {
		return fmt.Errorf("unit must be one of %s, got %q", units.GetValidUnitsString(), *c.Unit)
	}
	if c.FrameInterval != nil && *c.FrameInterval != "" {
		d, err := time.ParseDuration(*c.FrameInterval)
		if err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", *c.FrameInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("frame_interval must be non-negative, got %s", d)
		}
	}
	if c.ChessboardColumns != nil && *c.ChessboardColumns < 2 {
		return fmt.Errorf("chessboard_columns must be at least 2, got %d", *c.ChessboardColumns)
	}
	if c.ChessboardRows != nil && *c.ChessboardRows < 2 {
		return fmt.Errorf("chessboard_rows must be at least 2, got %d", *c.ChessboardRows)
	}
	if c.CameraModelPath != nil && filepath.Ext(*c.CameraModelPath) != ".json" {
		return fmt.Errorf("camera_model_path must have .json extension, got %q", *c.CameraModelPath)
	}
	return nil
}

// GetSquareSizeMM returns the side of one calibration square in millimetres.
func (c *VisionConfig) GetSquareSizeMM() float64 {
	if c.SquareSizeMM == nil {
		return 44
	}
	return *c.SquareSizeMM
}

// GetRobotHeight returns the robot marker height in squares.
func (c *VisionConfig) GetRobotHeight() float64 {
	if c.RobotHeight == nil {
		return 6
	}
	return *c.RobotHeight
}

// GetObstacleHeight returns the obstacle marker height in squares.
func (c *VisionConfig) GetObstacleHeight() float64 {
	if c.ObstacleHeight == nil {
		return 10
	}
	return *c.ObstacleHeight
}

func (c *VisionConfig) GetCameraModelPath() string {
	if c.CameraModelPath == nil {
		return "config/camera_models.json"
	}
	return *c.CameraModelPath
}

func (c *VisionConfig) GetCameraModelID() int {
	if c.CameraModelID == nil {
		return 1
	}
	return *c.CameraModelID
}

func (c *VisionConfig) GetUndistort() bool {
	if c.Undistort == nil {
		return false
	}
	return *c.Undistort
}

// GetCompetitionMode reports whether static elements are detected once and
// cached until reset.
func (c *VisionConfig) GetCompetitionMode() bool {
	if c.CompetitionMode == nil {
		return true
	}
	return *c.CompetitionMode
}

// GetGreenRange returns the HSV range of the drawing area frame.
func (c *VisionConfig) GetGreenRange() vision.HSVRange {
	r := vision.GreenRange
	if c.GreenHueMin != nil {
		r.HueMin = *c.GreenHueMin
	}
	if c.GreenHueMax != nil {
		r.HueMax = *c.GreenHueMax
	}
	if c.MinSaturation != nil {
		r.SatMin = *c.MinSaturation
	}
	if c.MinValue != nil {
		r.ValMin = *c.MinValue
	}
	return r
}

func (c *VisionConfig) GetMedianRadius() float64 {
	if c.MedianRadius == nil {
		return 1
	}
	return *c.MedianRadius
}

func (c *VisionConfig) GetMinDrawingArea() float64 {
	if c.MinDrawingArea == nil {
		return 2000
	}
	return *c.MinDrawingArea
}

func (c *VisionConfig) GetSource() string {
	if c.Source == nil {
		return SourceCamera
	}
	return *c.Source
}

func (c *VisionConfig) GetCameraDevice() int {
	if c.CameraDevice == nil {
		return 0
	}
	return *c.CameraDevice
}

func (c *VisionConfig) GetImagePattern() string {
	if c.ImagePattern == nil {
		return "data/images/*.jpg"
	}
	return *c.ImagePattern
}

func (c *VisionConfig) GetImageURL() string {
	if c.ImageURL == nil {
		return "http://localhost:4000/take-picture"
	}
	return *c.ImageURL
}

func (c *VisionConfig) GetLoopImages() bool {
	if c.LoopImages == nil {
		return false
	}
	return *c.LoopImages
}

// GetFrameInterval parses and returns the FrameInterval as a time.Duration.
func (c *VisionConfig) GetFrameInterval() time.Duration {
	if c.FrameInterval == nil || *c.FrameInterval == "" {
		return 66 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.FrameInterval)
	if err != nil {
		return 66 * time.Millisecond // default on parse error
	}
	return d
}

func (c *VisionConfig) GetListenAddr() string {
	if c.ListenAddr == nil {
		return ":5000"
	}
	return *c.ListenAddr
}

// GetBaseStationURL returns the WebSocket URL frames are pushed to. An
// empty URL disables pushing.
func (c *VisionConfig) GetBaseStationURL() string {
	if c.BaseStationURL == nil {
		return "ws://localhost:3000"
	}
	return *c.BaseStationURL
}

func (c *VisionConfig) GetUnit() string {
	if c.Unit == nil {
		return units.CM
	}
	return *c.Unit
}

// GetDBPath returns the SQLite file. An empty path disables persistence.
func (c *VisionConfig) GetDBPath() string {
	if c.DBPath == nil {
		return "vision.db"
	}
	return *c.DBPath
}

func (c *VisionConfig) GetChessboardColumns() int {
	if c.ChessboardColumns == nil {
		return 9
	}
	return *c.ChessboardColumns
}

func (c *VisionConfig) GetChessboardRows() int {
	if c.ChessboardRows == nil {
		return 6
	}
	return *c.ChessboardRows
}

// GetCalibrationWorkers returns the corner search pool size; 0 means one
// worker per CPU.
func (c *VisionConfig) GetCalibrationWorkers() int {
	if c.CalibrationWorkers == nil {
		return 0
	}
	return *c.CalibrationWorkers
}
