package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agingrasc/design3-vision/internal/pipeline"
)

// FrameLog writes every processed frame, and the robot sighting when there
// is one, under a run id. It is a pipeline.PersistenceSink.
type FrameLog struct {
	db    *DB
	runID string
}

// NewFrameLog starts a new run.
func (db *DB) NewFrameLog() *FrameLog {
	return &FrameLog{db: db, runID: uuid.NewString()}
}

// RunID identifies the frames written by this log.
func (l *FrameLog) RunID() string { return l.runID }

// PersistFrame implements pipeline.PersistenceSink.
func (l *FrameLog) PersistFrame(ctx context.Context, r *pipeline.Result) error {
	if r == nil || r.State == nil {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	frameID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO frames
			(frame_id, run_id, seq, captured_unix_ns, duration_ms, world_detected, detector_failures, element_errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		frameID, l.runID, int64(r.Seq), r.CapturedAt.UnixNano(),
		float64(r.Duration)/float64(time.Millisecond), r.State.WorldDetected(),
		len(r.Failures), len(r.State.Errors))
	if err != nil {
		return fmt.Errorf("insert frame %d: %w", r.Seq, err)
	}

	if robot := r.State.Robot; robot != nil {
		var wx, wy sql.NullFloat64
		if robot.WorldPosition != nil {
			wx = sql.NullFloat64{Float64: robot.WorldPosition.X, Valid: true}
			wy = sql.NullFloat64{Float64: robot.WorldPosition.Y, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO robot_positions (frame_id, image_x, image_y, world_x, world_y, heading_deg)
			VALUES (?, ?, ?, ?, ?, ?)`,
			frameID, robot.ImagePosition.X, robot.ImagePosition.Y, wx, wy, robot.AngleDeg)
		if err != nil {
			return fmt.Errorf("insert robot position for frame %d: %w", r.Seq, err)
		}
	}
	return tx.Commit()
}

// RobotPosition is one stored robot sighting.
type RobotPosition struct {
	Seq        uint64
	CapturedAt time.Time
	ImageX     float64
	ImageY     float64
	WorldX     *float64
	WorldY     *float64
	HeadingDeg float64
}

// RobotPositions returns the sightings of run, in frame order.
func (db *DB) RobotPositions(runID string) ([]RobotPosition, error) {
	rows, err := db.Query(`
		SELECT f.seq, f.captured_unix_ns, p.image_x, p.image_y, p.world_x, p.world_y, p.heading_deg
		FROM robot_positions p
		JOIN frames f ON f.frame_id = p.frame_id
		WHERE f.run_id = ?
		ORDER BY f.seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RobotPosition
	for rows.Next() {
		var (
			p      RobotPosition
			seq    int64
			ns     int64
			wx, wy sql.NullFloat64
		)
		if err := rows.Scan(&seq, &ns, &p.ImageX, &p.ImageY, &wx, &wy, &p.HeadingDeg); err != nil {
			return nil, err
		}
		p.Seq = uint64(seq)
		p.CapturedAt = time.Unix(0, ns)
		if wx.Valid && wy.Valid {
			p.WorldX, p.WorldY = &wx.Float64, &wy.Float64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FrameCount returns how many frames run has logged.
func (db *DB) FrameCount(runID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM frames WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// LatestRunID returns the run of the most recently logged frame.
func (db *DB) LatestRunID() (string, error) {
	var runID string
	err := db.QueryRow(`SELECT run_id FROM frames ORDER BY captured_unix_ns DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no frames logged in %s", db.path)
	}
	return runID, err
}
