package sessionstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token    string
	deadline time.Time
}

// MemoryStore is a process-local Store with the same semantics as the redis
// one. Used by tests and by single-node runs without redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) PutRefresh(_ context.Context, userID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = memoryEntry{token: token, deadline: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) GetRefresh(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || time.Now().After(e.deadline) {
		delete(s.entries, userID)
		return "", nil
	}
	return e.token, nil
}

func (s *MemoryStore) CompareAndDelete(_ context.Context, userID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || time.Now().After(e.deadline) || e.token != token {
		return false, nil
	}
	delete(s.entries, userID)
	return true, nil
}

func (s *MemoryStore) DeleteRefresh(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}
