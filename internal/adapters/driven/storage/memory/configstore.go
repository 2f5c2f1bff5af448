package memory

import (
	"sync"

	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps values in memory on top of an optional base store.
// Reads fall through to base for keys not set here; writes never reach it.
// The export command layers its flags over the config file this way.
type ConfigStore struct {
	mu     sync.RWMutex
	base   driven.ConfigStore
	values map[string]any
}

// NewConfigStore creates an in-memory store over base, which may be nil.
func NewConfigStore(base driven.ConfigStore) *ConfigStore {
	return &ConfigStore{
		base:   base,
		values: make(map[string]any),
	}
}

// Get returns the value set here, else the base store's value.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	val, ok := s.values[key]
	s.mu.RUnlock()
	if ok || s.base == nil {
		return val, ok
	}
	return s.base.Get(key)
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	str, _ := s.get(key).(string)
	return str
}

// GetInt retrieves an integer configuration value.
// TOML decoding yields int64, so both widths are accepted.
func (s *ConfigStore) GetInt(key string) int {
	switch v := s.get(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// Set stores a value in memory only.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Path returns the base store's path, or ":memory:" without one.
func (s *ConfigStore) Path() string {
	if s.base == nil {
		return ":memory:"
	}
	return s.base.Path()
}

func (s *ConfigStore) get(key string) any {
	val, _ := s.Get(key)
	return val
}
