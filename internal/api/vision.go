package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/message"
	"github.com/agingrasc/design3-vision/internal/pipeline"
	"github.com/agingrasc/design3-vision/internal/translate"
	"github.com/agingrasc/design3-vision/internal/units"
)

var okResponse = map[string]string{"message": "ok"}

// resetHandler queues r; it takes effect before the next frame.
func (s *Server) resetHandler(r pipeline.Reset) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.vision.RequestReset(r)
		s.writeJSON(w, http.StatusOK, okResponse)
	}
}

func (s *Server) showWorldDimensions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"world_dimensions": s.assembler.WorldDimension(s.vision.World()),
		"unit":             s.assembler.LengthUnit(),
	})
}

func (s *Server) listObstacles(w http.ResponseWriter, r *http.Request) {
	var obstacles []message.Obstacle
	if state := s.latestState(); state != nil {
		obstacles = s.assembler.Obstacles(state.Obstacles)
	} else {
		obstacles = []message.Obstacle{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"obstacles": obstacles},
	})
}

func (s *Server) showDrawzoneCorners(w http.ResponseWriter, r *http.Request) {
	state := s.latestState()
	if state == nil {
		s.writeJSONError(w, http.StatusNotFound, "Drawing area not detected")
		return
	}
	da := s.assembler.DrawingArea(state.DrawingArea)
	if da == nil {
		s.writeJSONError(w, http.StatusNotFound, "Drawing area not detected")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"data": da})
}

func (s *Server) showRobot(w http.ResponseWriter, r *http.Request) {
	var robot *message.Robot
	if state := s.latestState(); state != nil {
		robot = s.assembler.Robot(state.Robot)
	}
	if robot == nil {
		s.writeJSONError(w, http.StatusNotFound, "Robot not located")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"data": robot})
}

// pathPoint accepts both [x, y] and {"x": x, "y": y}.
type pathPoint r2.Vec

func (p *pathPoint) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("path point must have 2 coordinates, got %d", len(pair))
		}
		*p = pathPoint{X: pair[0], Y: pair[1]}
		return nil
	}
	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("path point must be [x, y] or {\"x\", \"y\"}: %w", err)
	}
	if obj.X == nil || obj.Y == nil {
		return errors.New("path point needs both x and y")
	}
	*p = pathPoint{X: *obj.X, Y: *obj.Y}
	return nil
}

type pathRequest struct {
	Data struct {
		Path []pathPoint `json:"path"`
	} `json:"data"`
}

// setPath records the planned path, given in the configured unit, and
// restarts the robot trace.
func (s *Server) setPath(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	unit := s.assembler.LengthUnit()
	points := make([]r2.Vec, len(req.Data.Path))
	for i, p := range req.Data.Path {
		points[i] = r2.Vec{X: units.ToMillimetres(p.X, unit), Y: units.ToMillimetres(p.Y, unit)}
	}

	pixels, err := s.vision.ProjectPath(points)
	switch {
	case errors.Is(err, translate.ErrNoWorld):
		s.writeJSONError(w, http.StatusConflict, "Table not detected yet")
		return
	case err != nil:
		s.writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if s.log != nil {
		s.log.ResetPositions()
		s.log.SetPath(points, pixels)
	}
	s.writeJSON(w, http.StatusOK, okResponse)
}

type worldCoordinatesRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	// Z is the height above the table in calibration squares. Its sign is
	// ignored: target-frame Z is negative above the table.
	Z float64 `json:"z"`
}

func (s *Server) worldCoordinates(w http.ResponseWriter, r *http.Request) {
	var req worldCoordinatesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.X == nil || req.Y == nil {
		s.writeJSONError(w, http.StatusBadRequest, "x and y are required")
		return
	}
	p, err := s.vision.ImageToWorld(r2.Vec{X: *req.X, Y: *req.Y}, math.Abs(req.Z))
	switch {
	case errors.Is(err, translate.ErrNoWorld):
		s.writeJSONError(w, http.StatusConflict, "Table not detected yet")
		return
	case errors.Is(err, camera.ErrDegenerateProjection):
		s.writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"world_coordinates": s.assembler.Point(p),
		"unit":              s.assembler.LengthUnit(),
	})
}
