package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/version"
)

func (s *Server) listCameraModels(w http.ResponseWriter, r *http.Request) {
	models := []camera.ModelDTO{}
	if s.models != nil {
		for _, m := range s.models.FindAll() {
			models = append(models, m.ToDTO())
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"camera_models": models})
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.vision.Stats().Snapshot())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, version.Get(s.opencv))
}

// showPathChart renders the robot trace against the planned path, in world
// millimetres, as an interactive HTML chart.
func (s *Server) showPathChart(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		s.writeJSONError(w, http.StatusNotFound, "Data log disabled")
		return
	}
	positions := s.log.Positions()
	trace := make([]opts.ScatterData, 0, len(positions))
	for _, p := range positions {
		if p.World == nil {
			continue
		}
		trace = append(trace, opts.ScatterData{Value: []interface{}{p.World.X, p.World.Y}})
	}
	planned, _ := s.log.Path()
	path := make([]opts.ScatterData, 0, len(planned))
	for _, p := range planned {
		path = append(path, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Robot Path", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Robot Path", Subtitle: fmt.Sprintf("positions=%d path=%d", len(trace), len(path))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (mm)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("robot", trace, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("path", path, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "render error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// showPathPlot is the static PNG rendering of the same data.
func (s *Server) showPathPlot(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		s.writeJSONError(w, http.StatusNotFound, "Data log disabled")
		return
	}
	var buf bytes.Buffer
	if err := s.log.WritePathPlot(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
