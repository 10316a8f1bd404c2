package db

import (
	"fmt"
	"time"
)

// CalibrationSession summarises one finished calibration run.
type CalibrationSession struct {
	SessionID string
	ModelID   int
	Columns   int
	Rows      int
	Accepted  int
	Rejected  int
	RMS       float64
	Quality   string
	CreatedAt time.Time
}

// RecordCalibrationSession stores s. CreatedAt is set by the database.
func (db *DB) RecordCalibrationSession(s CalibrationSession) error {
	_, err := db.Exec(`
		INSERT INTO calibration_sessions
			(session_id, model_id, columns, rows, accepted, rejected, rms, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, s.ModelID, s.Columns, s.Rows, s.Accepted, s.Rejected, s.RMS, s.Quality)
	if err != nil {
		return fmt.Errorf("record calibration session %s: %w", s.SessionID, err)
	}
	return nil
}

// CalibrationSessions returns the stored sessions, newest first.
func (db *DB) CalibrationSessions() ([]CalibrationSession, error) {
	rows, err := db.Query(`
		SELECT session_id, model_id, columns, rows, accepted, rejected, rms, quality, created_at
		FROM calibration_sessions
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalibrationSession
	for rows.Next() {
		var s CalibrationSession
		if err := rows.Scan(&s.SessionID, &s.ModelID, &s.Columns, &s.Rows,
			&s.Accepted, &s.Rejected, &s.RMS, &s.Quality, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
