// Package prefs persists small user choices, such as the selected module, between runs.
package prefs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/network"
	"github.com/metafates/gache"
	"github.com/samber/lo"
)

const (
	// Selected is the id of the selected module.
	Selected = "module.selected"
	// Subtype is the subtype the selected module runs with.
	Subtype = "module.subtype"
	// DNS names the resolver module requests use.
	DNS = "network.dns"
)

var descriptions = map[string]string{
	Selected: "ID of the selected module",
	Subtype:  "Subtype the selected module runs with",
	DNS:      "DNS resolver used for module requests: " + fmt.Sprint(network.DNSChoices()),
}

// Keys lists every known preference key.
func Keys() []string {
	keys := lo.Keys(descriptions)
	sort.Strings(keys)
	return keys
}

// Describe returns the description of a known key.
func Describe(key string) (string, bool) {
	d, ok := descriptions[key]
	return d, ok
}

// Store is a persistent string key-value store.
type Store struct {
	mu    sync.Mutex
	cache *gache.Cache[map[string]string]
}

// New opens the store at path. Nothing is read until first use.
func New(path string) *Store {
	return &Store{
		cache: gache.New[map[string]string](
			&gache.Options{
				Path:       path,
				FileSystem: &filesystem.GacheFs{},
			},
		),
	}
}

func (s *Store) load() (map[string]string, error) {
	values, expired, err := s.cache.Get()
	if err != nil {
		return nil, failure.New(failure.Preference, "prefs.load", err)
	}
	if expired || values == nil {
		return make(map[string]string), nil
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	if err := s.cache.Set(values); err != nil {
		return failure.New(failure.Preference, "prefs.save", err)
	}
	return nil
}

// Get returns the value of key and whether it is set.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// GetOr returns the value of key, or def when it is unset or unreadable.
func (s *Store) GetOr(key, def string) string {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return def
	}
	return v
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	if key == DNS && !network.ValidDNS(value) {
		return failure.Newf(failure.Preference, "prefs.set", "unknown dns %q, expected one of %v", value, network.DNSChoices())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// SetMany stores several values in one write.
func (s *Store) SetMany(pairs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	for k, v := range pairs {
		values[k] = v
	}
	return s.save(values)
}

// Delete removes the given keys.
func (s *Store) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	return s.save(values)
}

// All returns a copy of every stored value.
func (s *Store) All() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return nil, err
	}
	return lo.Assign(values), nil
}
