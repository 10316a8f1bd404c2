package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agingrasc/design3-vision/internal/camera"
)

// SaveCameraModel stores m as its JSON document, replacing any model with
// the same id.
func (db *DB) SaveCameraModel(m *camera.Model) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", camera.ErrInvalidModel)
	}
	doc, err := json.Marshal(m.ToDTO())
	if err != nil {
		return fmt.Errorf("encode camera model %d: %w", m.ID(), err)
	}
	_, err = db.Exec(`
		INSERT INTO camera_models (model_id, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(model_id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		m.ID(), string(doc))
	if err != nil {
		return fmt.Errorf("save camera model %d: %w", m.ID(), err)
	}
	return nil
}

// CameraModel loads the model stored under id.
func (db *DB) CameraModel(id int) (*camera.Model, error) {
	var doc string
	err := db.QueryRow(`SELECT document FROM camera_models WHERE model_id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", camera.ErrModelNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeModel(doc)
}

// CameraModels loads every stored model ordered by id.
func (db *DB) CameraModels() ([]*camera.Model, error) {
	rows, err := db.Query(`SELECT document FROM camera_models ORDER BY model_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*camera.Model
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		m, err := decodeModel(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func decodeModel(doc string) (*camera.Model, error) {
	var dto camera.ModelDTO
	if err := json.Unmarshal([]byte(doc), &dto); err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrInvalidModel, err)
	}
	return camera.FromDTO(dto)
}
