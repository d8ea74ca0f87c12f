package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File keeps every entry in one JSON document, rewritten atomically on each change.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) (*File, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "themestudio-store.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &File{path: path}, nil
}

func (s *File) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	value, ok := rows[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(value), nil
}

func (s *File) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readLocked()
	if err != nil {
		return err
	}
	rows[key] = string(value)
	return s.writeLocked(rows)
}

func (s *File) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := rows[key]; !ok {
		return nil
	}
	delete(rows, key)
	return s.writeLocked(rows)
}

func (s *File) Close() error {
	return nil
}

func (s *File) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	rows := map[string]string{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	return rows, nil
}

func (s *File) writeLocked(rows map[string]string) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(s.path), ".themestudio-*.tmp")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmpFile.Chmod(0o600); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
