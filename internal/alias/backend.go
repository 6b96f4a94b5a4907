package alias

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend persists a whole Mapping. Load on a store that was never saved
// returns an empty Mapping and no error.
type Backend interface {
	Load() (Mapping, error)
	Save(Mapping) error
}

// FileBackend stores the mapping as a flat JSON object in a single file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the JSON file at path.
// Neither the file nor its directory needs to exist yet.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the mapping. A missing file is an empty mapping.
func (b *FileBackend) Load() (Mapping, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Mapping{}, nil
		}
		return nil, fmt.Errorf("reading alias store: %w", err)
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing alias store %s: %w", b.path, err)
	}
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}

// Save rewrites the whole file atomically.
// Uses temp file + rename in the same directory, creating it if needed.
func (b *FileBackend) Save(m Mapping) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating alias store dir: %w", err)
	}

	if m == nil {
		m = Mapping{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding alias store: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".ids-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing alias store: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// MemoryBackend keeps the mapping in memory. The zero value is ready to use.
type MemoryBackend struct {
	mu    sync.Mutex
	m     Mapping
	saves int
}

// NewMemoryBackend returns a backend seeded with a copy of initial.
func NewMemoryBackend(initial Mapping) *MemoryBackend {
	b := &MemoryBackend{}
	if initial != nil {
		b.m = initial.Clone()
	}
	return b
}

// Load returns a copy of the stored mapping.
func (b *MemoryBackend) Load() (Mapping, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m == nil {
		return Mapping{}, nil
	}
	return b.m.Clone(), nil
}

// Save replaces the stored mapping with a copy of m.
func (b *MemoryBackend) Save(m Mapping) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = m.Clone()
	b.saves++
	return nil
}

// Saves reports how many times Save was called.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Exists reports whether anything has been saved yet.
func (b *MemoryBackend) Exists() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m != nil
}
