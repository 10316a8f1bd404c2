package camera

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ModelDTO is the persisted JSON form of a Model. Matrices are row-major
// nested arrays.
type ModelDTO struct {
	ID                     int         `json:"id"`
	IntrinsicParameters    [][]float64 `json:"intrinsic_parameters"`
	ExtrinsicParameters    [][]float64 `json:"extrinsic_parameters"`
	CameraMatrix           [][]float64 `json:"camera_matrix"`
	DistortionCoefficients Vector      `json:"distortion_coefficients"`
	RotationMatrix         [][]float64 `json:"rotation_matrix"`
	TranslationVector      [][]float64 `json:"translation_vector"`
	OriginImageCoordinates Vector      `json:"origin_image_coordinates"`
}

// Vector is a flat list of numbers that also accepts the nested single-row
// or single-column layouts written by array libraries, e.g. [[k1, k2, ...]].
type Vector []float64

// UnmarshalJSON accepts flat and nested layouts.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil {
		*v = flat
		return nil
	}
	var nested [][]float64
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("vector must be a list of numbers or a nested list: %w", err)
	}
	out := make([]float64, 0, len(nested))
	for _, row := range nested {
		out = append(out, row...)
	}
	*v = out
	return nil
}

// ToDTO converts m to its persisted form.
func (m *Model) ToDTO() ModelDTO {
	return ModelDTO{
		ID:                     m.id,
		IntrinsicParameters:    rows(m.Intrinsic()),
		ExtrinsicParameters:    rows(m.Extrinsic()),
		CameraMatrix:           rows(m.CameraMatrix()),
		DistortionCoefficients: Vector(m.Distortion()),
		RotationMatrix:         rows(m.Rotation()),
		TranslationVector: [][]float64{
			{m.translation.X},
			{m.translation.Y},
			{m.translation.Z},
		},
		OriginImageCoordinates: Vector{m.targetOrigin.X, m.targetOrigin.Y},
	}
}

// FromDTO builds a Model from its persisted form. The camera matrix is taken
// as stored.
func FromDTO(dto ModelDTO) (*Model, error) {
	intrinsic, err := fromRows(dto.IntrinsicParameters, 3, 3, "intrinsic_parameters")
	if err != nil {
		return nil, err
	}
	extrinsic, err := fromRows(dto.ExtrinsicParameters, 3, 4, "extrinsic_parameters")
	if err != nil {
		return nil, err
	}
	cameraMatrix, err := fromRows(dto.CameraMatrix, 3, 4, "camera_matrix")
	if err != nil {
		return nil, err
	}
	rotation, err := fromRows(dto.RotationMatrix, 3, 3, "rotation_matrix")
	if err != nil {
		return nil, err
	}

	var t []float64
	for _, row := range dto.TranslationVector {
		t = append(t, row...)
	}
	if len(t) != 3 {
		return nil, fmt.Errorf("%w: translation_vector needs 3 values, got %d", ErrInvalidModel, len(t))
	}
	if len(dto.OriginImageCoordinates) != 2 {
		return nil, fmt.Errorf("%w: origin_image_coordinates needs 2 values, got %d",
			ErrInvalidModel, len(dto.OriginImageCoordinates))
	}

	return NewModel(Parameters{
		ID:           dto.ID,
		Intrinsic:    intrinsic,
		Extrinsic:    extrinsic,
		CameraMatrix: cameraMatrix,
		Rotation:     rotation,
		Translation:  r3.Vec{X: t[0], Y: t[1], Z: t[2]},
		Distortion:   dto.DistortionCoefficients,
		TargetOrigin: r2.Vec{X: dto.OriginImageCoordinates[0], Y: dto.OriginImageCoordinates[1]},
	})
}

// DecodeModels parses either a single model document or a list of them.
func DecodeModels(data []byte) ([]ModelDTO, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var dto ModelDTO
		if err := json.Unmarshal(trimmed, &dto); err != nil {
			return nil, fmt.Errorf("failed to parse camera model: %w", err)
		}
		return []ModelDTO{dto}, nil
	}
	var dtos []ModelDTO
	if err := json.Unmarshal(trimmed, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse camera models: %w", err)
	}
	return dtos, nil
}

func rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

func fromRows(data [][]float64, r, c int, field string) (*mat.Dense, error) {
	if len(data) != r {
		return nil, fmt.Errorf("%w: %s needs %d rows, got %d", ErrInvalidModel, field, r, len(data))
	}
	flat := make([]float64, 0, r*c)
	for i, row := range data {
		if len(row) != c {
			return nil, fmt.Errorf("%w: %s row %d needs %d values, got %d", ErrInvalidModel, field, i, c, len(row))
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(r, c, flat), nil
}
