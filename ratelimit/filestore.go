package ratelimit

import (
	"encoding/json"
	"os"
	"sync"
)

// FileStorage is a Storage backed by a single JSON file on disk, the
// server-side stand-in for the browser's localStorage.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage creates a file-backed storage at the given path. The
// file is created lazily on the first Set.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) load() map[string]string {
	entries := map[string]string{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]string{}
	}
	return entries
}

// Get returns the value stored under key, if any.
func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.load()[key]
	return value, ok
}

// Set writes the value under key and persists the file.
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries[key] = value
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
