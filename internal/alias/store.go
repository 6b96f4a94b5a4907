// Package alias implements the alias store: a persistent mapping from short,
// user-typed aliases to canonical Semantic Scholar paper and author IDs.
//
// The store is read before every alias-dependent command and merged after
// every command that sees new entities. Merges are right-biased: when two
// entities derive the same alias, the most recent write wins.
//
// There is no locking across processes. Two concurrent invocations that both
// merge will race, and the last writer's view of the file wins.
package alias

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Resolve when the alias is not in the store,
// including when the store file does not exist.
var ErrNotFound = errors.New("alias not found")

// Mapping maps aliases to canonical identifiers.
type Mapping map[string]string

// Clone returns a shallow copy of m.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Union returns a new mapping holding every entry of m and other, with
// other's value winning for keys present in both.
func (m Mapping) Union(other Mapping) Mapping {
	out := make(Mapping, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Entry is a single alias and the identifier it resolves to.
type Entry struct {
	Alias string `json:"alias"`
	ID    string `json:"id"`
}

// Store is the alias store. Merges within a process are serialized.
type Store struct {
	backend Backend
	logger  *zap.Logger
	mu      sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store over the given backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store backed by the JSON file at path.
func Open(path string, opts ...Option) *Store {
	return NewStore(NewFileBackend(path), opts...)
}

// Load returns the persisted mapping, empty if nothing has been saved.
func (s *Store) Load() (Mapping, error) {
	return s.backend.Load()
}

// Save replaces the persisted mapping with m.
func (s *Store) Save(m Mapping) error {
	return s.backend.Save(m)
}

// Resolve returns the canonical identifier for alias. It fails with
// ErrNotFound if the alias was never stored. Resolve never writes.
func (s *Store) Resolve(alias string) (string, error) {
	m, err := s.backend.Load()
	if err != nil {
		return "", err
	}

	id, ok := m[alias]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, alias)
	}

	s.logger.Debug("resolved alias", zap.String("alias", alias), zap.String("id", id))
	return id, nil
}

// Merge loads the persisted mapping, applies a right-biased union with
// additions, and saves the result in one rewrite. It returns the number of
// aliases that were added or changed.
func (s *Store) Merge(additions Mapping) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.backend.Load()
	if err != nil {
		return 0, err
	}

	changed := 0
	for k, v := range additions {
		if old, ok := current[k]; !ok || old != v {
			changed++
		}
	}

	merged := current.Union(additions)
	if err := s.backend.Save(merged); err != nil {
		return 0, err
	}

	s.logger.Debug("merged aliases",
		zap.Int("offered", len(additions)),
		zap.Int("changed", changed),
		zap.Int("total", len(merged)))
	return changed, nil
}

// Aliases lists stored entries whose alias starts with prefix, sorted by alias.
func (s *Store) Aliases(prefix string) ([]Entry, error) {
	m, err := s.backend.Load()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(m))
	for k, v := range m {
		if strings.HasPrefix(k, prefix) {
			entries = append(entries, Entry{Alias: k, ID: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Alias < entries[j].Alias
	})
	return entries, nil
}
