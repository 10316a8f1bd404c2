package datalog

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	traceColor = color.RGBA{R: 220, A: 255}
	pathColor  = color.RGBA{G: 160, A: 255}
)

// PathPlot builds a chart of the robot trace and the planned path in world
// millimetres. Sightings without world coordinates are skipped.
func (l *Log) PathPlot() (*plot.Plot, error) {
	positions := l.Positions()
	path, _ := l.Path()

	p := plot.New()
	p.Title.Text = "Robot path"
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"

	trace := make(plotter.XYs, 0, len(positions))
	for _, pos := range positions {
		if pos.World == nil {
			continue
		}
		trace = append(trace, plotter.XY{X: pos.World.X, Y: pos.World.Y})
	}
	if len(trace) > 0 {
		s, err := plotter.NewScatter(trace)
		if err != nil {
			return nil, err
		}
		s.Color = traceColor
		s.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add("robot", s)
	}

	if len(path) > 0 {
		pts := make(plotter.XYs, len(path))
		for i, v := range path {
			pts[i] = plotter.XY{X: v.X, Y: v.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = pathColor
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("planned", line)
	}

	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p, nil
}

// WritePathPlot renders PathPlot as PNG to w.
func (l *Log) WritePathPlot(w io.Writer) error {
	p, err := l.PathPlot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render path plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePathPlot writes PathPlot to file; the format follows its extension.
func (l *Log) SavePathPlot(file string) error {
	p, err := l.PathPlot()
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save path plot: %w", err)
	}
	return nil
}
