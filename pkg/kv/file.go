package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists all keys in a single JSON document on disk
type FileStore struct {
	filePath string
	mu       sync.RWMutex
	values   map[string]json.RawMessage
}

type fileDocument struct {
	Values map[string]json.RawMessage `json:"values"`
}

// NewFileStore opens (or lazily creates) the store file at filePath
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("store path is required")
	}

	s := &FileStore{
		filePath: filePath,
		values:   make(map[string]json.RawMessage),
	}

	if err := s.load(); err != nil {
		// A missing file is created on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return s, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal store: %w", err)
	}

	s.values = doc.Values
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	return nil
}

// save must be called with s.mu held
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(fileDocument{Values: s.values}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first, then rename for an atomic replace
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Values are stored as JSON strings so arbitrary bytes survive the document
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode value for %q: %w", key, err)
	}
	return []byte(v), nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	raw, err := json.Marshal(string(value))
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = raw
	return s.save()
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.filePath
}
