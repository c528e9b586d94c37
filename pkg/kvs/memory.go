package kvs

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	value []byte
	// expiresAt zero means no expiration
	expiresAt time.Time
}

func (it *memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryStore is an in-memory Store. Data is lost on restart; a
// background goroutine sweeps out expired items.
type MemoryStore struct {
	prefix string
	items  map[string]*memoryItem
	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
	done   chan struct{}
}

// NewMemoryStore creates an in-memory store for the given namespace.
func NewMemoryStore(namespace string, cfg MemoryConfig) *MemoryStore {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s := &MemoryStore{
		prefix: namespacePrefix(namespace),
		items:  make(map[string]*memoryItem),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.cleanupLoop(interval)
	return s
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for k, it := range s.items {
				if it.expired(now) {
					delete(s.items, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Get retrieves a value by key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	it, ok := s.items[s.prefix+key]
	if !ok || it.expired(time.Now()) {
		return nil, ErrNotFound
	}

	value := make([]byte, len(it.value))
	copy(value, it.value)
	return value, nil
}

// Set stores a value, resetting any previous TTL.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	it := &memoryItem{value: make([]byte, len(value))}
	copy(it.value, value)
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	s.items[s.prefix+key] = it
	return nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.items, s.prefix+key)
	return nil
}

// Keys returns all live keys with the given prefix.
func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	now := time.Now()
	keys := make([]string, 0)
	for k, it := range s.items {
		if it.expired(now) {
			continue
		}
		key := strings.TrimPrefix(k, s.prefix)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close stops the cleanup goroutine and drops all data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.items = nil
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}
