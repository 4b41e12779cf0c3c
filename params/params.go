// Package params provides the named scalar parameters an episode reads at start.
package params

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Parameter names read by the environment.
const (
	FeedRadius = "feed_radius"
	FishSpeed  = "fish_speed"
)

// Defaults used when a parameter is absent.
const (
	DefaultFeedRadius = 0.0
	DefaultFishSpeed  = 0.5
)

// Source returns a named parameter, or def when it is not set.
type Source interface {
	Get(name string, def float64) float64
}

// Store is a thread-safe parameter map.
// A trainer may update it at any time; the environment only reads it at episode start.
type Store struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewStore creates a store seeded with a copy of initial.
func NewStore(initial map[string]float64) *Store {
	values := make(map[string]float64, len(initial))
	maps.Copy(values, initial)
	return &Store{values: values}
}

// Get implements Source.
func (s *Store) Get(name string, def float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[name]; ok {
		return v
	}
	return def
}

// Set stores a single parameter.
func (s *Store) Set(name string, value float64) {
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
}

// Update stores every entry of values.
func (s *Store) Update(values map[string]float64) {
	s.mu.Lock()
	maps.Copy(s.values, values)
	s.mu.Unlock()
}

// Delete removes a parameter so that readers fall back to their default.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	delete(s.values, name)
	s.mu.Unlock()
}

// Snapshot returns a copy of all parameters.
func (s *Store) Snapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Names returns the parameter names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// ParseAssignment parses a "name=value" command line override.
func ParseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("parameter %q: expected name=value", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("parameter %q: %w", name, err)
	}
	return name, v, nil
}

// Flag collects repeated -param name=value flags. It implements flag.Value.
type Flag map[string]float64

// String implements flag.Value.
func (f Flag) String() string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, f[name])
	}
	return strings.Join(parts, ",")
}

// Set implements flag.Value.
func (f Flag) Set(s string) error {
	name, v, err := ParseAssignment(s)
	if err != nil {
		return err
	}
	f[name] = v
	return nil
}
