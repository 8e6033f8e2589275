package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// File is a ports.KV persisted as a single JSON object on disk. Every write
// goes through an atomic temp-file rename so a crash never leaves a torn
// state file. Reads are served from memory after the initial load.
type File struct {
	mu   sync.Mutex
	path string
	m    map[string]string
	log  zerolog.Logger
}

// OpenFile loads (or creates) the state file at path.
func OpenFile(path string, log zerolog.Logger) (*File, error) {
	s := &File{path: path, m: make(map[string]string), log: log}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// first run
	case err != nil:
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(raw, &s.m); err != nil {
			// A corrupt state file degrades to an empty store rather than
			// blocking startup; sessions simply need re-establishing.
			log.Warn().Err(err).Str("path", path).Msg("state file corrupt, starting empty")
			s.m = make(map[string]string)
		}
	}
	return s, nil
}

func (s *File) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *File) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return s.flushLocked()
}

func (s *File) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		return nil
	}
	delete(s.m, key)
	return s.flushLocked()
}

func (s *File) flushLocked() error {
	raw, err := json.MarshalIndent(s.m, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("storage: temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}
