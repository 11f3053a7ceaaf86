package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps one JSON array file per kind under a data directory.
// Every mutation rewrites the whole file.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the data directory and an empty array file for each
// kind that does not have one yet
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}

	s := &FileStore{dir: dir}
	for _, k := range Kinds {
		path := s.path(k)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", path, err)
			}
		}
	}
	return s, nil
}

func (s *FileStore) path(kind Kind) string {
	return filepath.Join(s.dir, kind.Collection()+".json")
}

type idOnly struct {
	ID string `json:"id"`
}

func (s *FileStore) read(kind Kind) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path(kind), err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path(kind), err)
	}
	return records, nil
}

func (s *FileStore) write(kind Kind, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind.Collection(), err)
	}

	tmp, err := os.CreateTemp(s.dir, kind.Collection()+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(kind)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", s.path(kind), err)
	}
	return nil
}

func indexOf(records []json.RawMessage, id string) int {
	for i, rec := range records {
		var key idOnly
		if err := json.Unmarshal(rec, &key); err == nil && key.ID == id {
			return i
		}
	}
	return -1
}

func (s *FileStore) Get(_ context.Context, kind Kind, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(kind)
	if err != nil {
		return nil, err
	}
	if i := indexOf(records, id); i >= 0 {
		return cloneBytes(records[i]), nil
	}
	return nil, ErrNotFound
}

// List degrades to an empty result when the file cannot be read or parsed
func (s *FileStore) List(_ context.Context, kind Kind) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(kind)
	if err != nil {
		zap.L().Warn("record file unreadable, listing as empty",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return [][]byte{}, nil
	}

	out := make([][]byte, len(records))
	for i, rec := range records {
		out[i] = cloneBytes(rec)
	}
	return out, nil
}

func (s *FileStore) Put(_ context.Context, kind Kind, id string, record []byte) error {
	if !json.Valid(record) {
		return fmt.Errorf("record %s/%s is not valid JSON", kind, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(kind)
	if err != nil {
		return err
	}

	rec := json.RawMessage(cloneBytes(record))
	if i := indexOf(records, id); i >= 0 {
		records[i] = rec
	} else {
		records = append(records, rec)
	}
	return s.write(kind, records)
}

func (s *FileStore) Delete(_ context.Context, kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(kind)
	if err != nil {
		return err
	}

	i := indexOf(records, id)
	if i < 0 {
		return nil
	}
	records = append(records[:i], records[i+1:]...)
	return s.write(kind, records)
}

func (s *FileStore) Close() error {
	return nil
}
