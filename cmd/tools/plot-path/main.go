// Command plot-path renders the robot trace of a recorded run as a PNG.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/datalog"
	"github.com/agingrasc/design3-vision/internal/db"
	"github.com/agingrasc/design3-vision/internal/world"
)

var (
	dbPath = flag.String("db", "vision.db", "Vision database")
	runID  = flag.String("run", "", "Run id (default: latest run)")
	out    = flag.String("out", "path.png", "Output PNG")
)

func main() {
	flag.Parse()

	store, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	run := *runID
	if run == "" {
		if run, err = store.LatestRunID(); err != nil {
			log.Fatalf("failed to find latest run: %v", err)
		}
	}
	positions, err := store.RobotPositions(run)
	if err != nil {
		log.Fatalf("failed to read robot positions: %v", err)
	}

	trace := datalog.New(datalog.WithCapacity(0))
	for _, p := range positions {
		robot := &world.Robot{ImagePosition: r2.Vec{X: p.ImageX, Y: p.ImageY}, AngleDeg: p.HeadingDeg}
		if p.WorldX != nil && p.WorldY != nil {
			robot.WorldPosition = &r2.Vec{X: *p.WorldX, Y: *p.WorldY}
		}
		trace.RecordRobot(p.Seq, p.CapturedAt, robot)
	}

	if err := trace.SavePathPlot(*out); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("wrote %d positions of run %s to %s", len(positions), run, *out)
}
