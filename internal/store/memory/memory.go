// Package memory provides an in-memory store.Store used by tests and by
// local single-process runs where no remote object store is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"callscribe/internal/store"
)

// Store keeps containers and objects in process memory. Safe for
// concurrent use. Listing order is lexicographic, matching S3.
type Store struct {
	mu         sync.RWMutex
	containers map[string]map[string][]byte

	// BaseURL, when set, is prepended to container/key by SignedGetURL so
	// tests can serve object content from an HTTP test server.
	BaseURL string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{containers: make(map[string]map[string][]byte)}
}

// EnsureContainer creates the container if absent.
func (s *Store) EnsureContainer(_ context.Context, container string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[container]; !ok {
		s.containers[container] = make(map[string][]byte)
	}
	return nil
}

// Put stores a copy of data under the sanitized key, overwriting any
// previous object. The container is created on demand.
func (s *Store) Put(_ context.Context, container, key string, data []byte) (store.Address, error) {
	sanitized := store.SanitizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[container]
	if !ok {
		c = make(map[string][]byte)
		s.containers[container] = c
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	c[sanitized] = buf

	return store.Address{Container: container, Key: sanitized}, nil
}

// Get returns a copy of the object at addr.
func (s *Store) Get(_ context.Context, addr store.Address) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[addr.Container]
	if !ok {
		return nil, store.ErrNotFound
	}
	data, ok := c[addr.Key]
	if !ok {
		return nil, store.ErrNotFound
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// List returns the keys in container starting with prefix, sorted.
func (s *Store) List(_ context.Context, container, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[container]
	if !ok {
		return nil, nil
	}

	var keys []string
	for k := range c {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether an object is present at addr.
func (s *Store) Exists(_ context.Context, addr store.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[addr.Container]
	if !ok {
		return false, nil
	}
	_, ok = c[addr.Key]
	return ok, nil
}

// SignedGetURL returns BaseURL/container/key. Without a BaseURL there is
// nothing an HTTP client could fetch, so it fails.
func (s *Store) SignedGetURL(_ context.Context, addr store.Address, _ time.Duration) (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("memory: signed URLs require a BaseURL")
	}
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + addr.Container + "/" + addr.Key, nil
}
