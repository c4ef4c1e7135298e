package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps a document in a single JSON file. Writes go to a
// temporary file in the same directory and are renamed over the target.
// The target keeps its permissions; new files are created 0644.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Name returns the file path
func (b *FileBackend) Name() string {
	return b.path
}

// Read returns the file contents
func (b *FileBackend) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrDocumentMissing
	}
	return data, err
}

// Write replaces the file contents
func (b *FileBackend) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	mode := fs.FileMode(0644)
	if info, err := os.Stat(b.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}
	return nil
}

// MemoryBackend keeps a document in memory. Used by tests and as a scratch
// store when persistence is not wanted.
type MemoryBackend struct {
	name string
	data []byte
	set  bool
	mu   sync.RWMutex

	// ReadErr and WriteErr, when set, are returned instead of touching data
	ReadErr  error
	WriteErr error
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend(name string) *MemoryBackend {
	return &MemoryBackend{name: name}
}

// Name returns the backend name
func (b *MemoryBackend) Name() string {
	return b.name
}

// Read returns a copy of the stored bytes
func (b *MemoryBackend) Read(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.ReadErr != nil {
		return nil, b.ReadErr
	}
	if !b.set {
		return nil, ErrDocumentMissing
	}
	return append([]byte(nil), b.data...), nil
}

// Write stores a copy of data
func (b *MemoryBackend) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.WriteErr != nil {
		return b.WriteErr
	}
	b.data = append([]byte(nil), data...)
	b.set = true
	return nil
}

// SetRaw replaces the stored bytes verbatim
func (b *MemoryBackend) SetRaw(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	b.set = true
}

// Raw returns the stored bytes and whether anything was written
func (b *MemoryBackend) Raw() ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]byte(nil), b.data...), b.set
}
