// Package configstore exposes the read-only flat string-keyed configuration
// map consumed by the defaults resolver and scenario loading.
package configstore

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantfabric/meridian/errs"
)

// Store is a read-only view over a flat string-keyed configuration map.
type Store interface {
	// Lookup returns the raw value for the exact key.
	Lookup(key string) (string, bool)
	// Keys returns every configured key in sorted order.
	Keys() []string
}

// MemoryStore is an immutable in-memory Store.
type MemoryStore struct {
	entries map[string]string
	keys    []string
}

// NewMemoryStore copies the provided map into an immutable store.
func NewMemoryStore(entries map[string]string) *MemoryStore {
	store := new(MemoryStore)
	store.entries = make(map[string]string, len(entries))
	store.keys = make([]string, 0, len(entries))
	for k, v := range entries {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		store.entries[key] = strings.TrimSpace(v)
		store.keys = append(store.keys, key)
	}
	sort.Strings(store.keys)
	return store
}

// Lookup returns the raw value for the exact key.
func (s *MemoryStore) Lookup(key string) (string, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Keys returns every configured key in sorted order.
func (s *MemoryStore) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len reports the number of configured entries.
func (s *MemoryStore) Len() int {
	return len(s.entries)
}

// FromYAML parses a flat YAML mapping into a store. Scalar values are
// stringified; nested mappings are rejected.
func FromYAML(data []byte) (*MemoryStore, error) {
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.New("configstore/yaml", errs.CodeConfig,
			errs.WithMessage("parse flat configuration"), errs.WithCause(err))
	}
	entries := make(map[string]string, len(raw))
	for k, v := range raw {
		switch value := v.(type) {
		case string:
			entries[k] = value
		case int, int64, float64, bool:
			entries[k] = fmt.Sprint(value)
		case []any:
			parts := make([]string, 0, len(value))
			for _, item := range value {
				parts = append(parts, fmt.Sprint(item))
			}
			entries[k] = strings.Join(parts, ",")
		default:
			return nil, errs.New("configstore/yaml", errs.CodeConfig,
				errs.WithMessage("nested values are not supported"),
				errs.WithField("key", k))
		}
	}
	return NewMemoryStore(entries), nil
}

// FromYAMLFile loads a flat YAML configuration file into a store.
func FromYAMLFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("configstore/yaml", errs.CodeConfig,
			errs.WithMessage("read configuration file"),
			errs.WithField("path", path), errs.WithCause(err))
	}
	return FromYAML(data)
}
