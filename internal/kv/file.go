package kv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
)

var _ Store = (*FileStore)(nil)

// FileStore is a Store backed by a single JSON file on disk. The whole
// key space is rewritten on every Set via a temp file + rename, so a crash
// mid-write never leaves a truncated store behind.
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]json.RawMessage
}

// OpenFile opens (or creates) a FileStore at path. A missing file starts
// empty; an unreadable or corrupt file is treated as empty rather than
// failing, matching the lenient recovery the rest of the storefront uses.
func OpenFile(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}

	s := &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "read store file")
	}

	// Corrupt contents degrade to an empty store.
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err == nil && data != nil {
		s.data = data
	}
	return s, nil
}

// Get implements Store.
func (s *FileStore) Get(key string, v any) error {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "unmarshal key %q", key)
	}
	return nil
}

// Set implements Store.
func (s *FileStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal key %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = raw
	return s.flushLocked()
}

// Delete implements Store.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flushLocked()
}

// flushLocked writes the full key space to disk atomically.
// The caller must hold s.mu.
func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal store")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "write temp store")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace store file")
	}
	return nil
}
