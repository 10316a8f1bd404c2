package camera

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// maxModelFileSize caps the size of a camera model document.
const maxModelFileSize = 1 * 1024 * 1024

// JSONRepository keeps camera models keyed by id and persists them to a JSON
// file as a list of ModelDTO documents.
type JSONRepository struct {
	path string

	mu     sync.RWMutex
	models map[int]*Model
}

// OpenJSONRepository loads every model stored at path. A missing file yields
// an empty repository that will be created on Persist.
func OpenJSONRepository(path string) (*JSONRepository, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("camera model file must have .json extension, got %q", ext)
	}
	r := &JSONRepository{path: cleanPath, models: make(map[int]*Model)}

	info, err := os.Stat(cleanPath)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat camera model file: %w", err)
	}
	if info.Size() > maxModelFileSize {
		return nil, fmt.Errorf("camera model file too large: %d bytes (max %d)", info.Size(), maxModelFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera model file: %w", err)
	}
	dtos, err := DecodeModels(data)
	if err != nil {
		return nil, err
	}
	for _, dto := range dtos {
		m, err := FromDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("camera model %d: %w", dto.ID, err)
		}
		r.models[m.ID()] = m
	}
	return r, nil
}

// Path returns the file backing the repository.
func (r *JSONRepository) Path() string { return r.path }

// FindAll returns every model ordered by id.
func (r *JSONRepository) FindAll() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// FindByID returns the model stored under id.
func (r *JSONRepository) FindByID(id int) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrModelNotFound, id)
	}
	return m, nil
}

// Add stores m, replacing any model with the same id.
func (r *JSONRepository) Add(m *Model) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.ID()] = m
	return nil
}

// Persist writes all models to the repository file. The file is replaced
// atomically so readers never observe a partial document.
func (r *JSONRepository) Persist() error {
	models := r.FindAll()
	dtos := make([]ModelDTO, 0, len(models))
	for _, m := range models {
		dtos = append(dtos, m.ToDTO())
	}
	data, err := json.MarshalIndent(dtos, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode camera models: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create camera model directory: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write camera models: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace camera model file: %w", err)
	}
	return nil
}
