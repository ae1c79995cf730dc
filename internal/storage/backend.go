package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Backend stores whole documents as raw bytes addressed by a slash-separated
// key such as "sessions/SESS-00001/topics". Every write replaces the full
// document. Reading a key that was never written returns (nil, nil).
type Backend interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	// Delete removes the key and every key nested under it.
	Delete(key string) error
	Close() error
}

// Backend kinds accepted by NewBackend.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// NewBackend opens the backend named by kind rooted at basePath.
func NewBackend(kind, basePath string) (Backend, error) {
	switch kind {
	case "", BackendYAML:
		return NewFileBackend(basePath), nil
	case BackendSQLite:
		return NewSQLiteBackend(filepath.Join(basePath, "digest.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q, must be one of: yaml, sqlite", kind)
	}
}

// FileBackend maps each key to a YAML file below basePath.
type FileBackend struct {
	basePath string
}

// NewFileBackend creates a Backend that keeps one file per document.
func NewFileBackend(basePath string) *FileBackend {
	return &FileBackend{basePath: basePath}
}

func (fb *FileBackend) path(key string) string {
	return filepath.Join(fb.basePath, filepath.FromSlash(key)+".yaml")
}

func (fb *FileBackend) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(fb.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (fb *FileBackend) Write(key string, data []byte) error {
	return atomicWrite(fb.path(key), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func (fb *FileBackend) Delete(key string) error {
	if err := os.Remove(fb.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	dir := filepath.Join(fb.basePath, filepath.FromSlash(key))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (fb *FileBackend) Close() error {
	return nil
}

// atomicWrite writes to a temp file in the target directory, syncs it and
// renames it over path.
func atomicWrite(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeFunc(tmpFile); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}
