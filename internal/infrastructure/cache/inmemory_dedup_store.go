package cache

import (
	"context"
	"sync"
	"time"

	"github.com/suppliers/backend/internal/domain/shared"
)

// InMemoryDedupStore implements IdempotencyStore with an in-process map.
// Suitable for development and tests only: a restart forgets every mark and
// separate consumer instances do not share state.
type InMemoryDedupStore struct {
	mu        sync.RWMutex
	processed map[string]time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDedupStore creates an in-memory dedup store and starts the
// background expiry sweep
func NewInMemoryDedupStore() *InMemoryDedupStore {
	store := &InMemoryDedupStore{
		processed: make(map[string]time.Time),
		stopChan:  make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed marks a document id as processed with a TTL.
// Returns true if the id was newly marked, false if it was already seen.
func (s *InMemoryDedupStore) MarkProcessed(_ context.Context, messageID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, exists := s.processed[messageID]; exists && time.Now().Before(expiry) {
		return false, nil
	}

	s.processed[messageID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed checks if a document id has already been processed
func (s *InMemoryDedupStore) IsProcessed(_ context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, exists := s.processed[messageID]
	if !exists {
		return false, nil
	}

	return time.Now().Before(expiry), nil
}

// Close stops the cleanup goroutine
func (s *InMemoryDedupStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// Size returns the number of entries currently held, expired or not
func (s *InMemoryDedupStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processed)
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryDedupStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopChan:
			return
		}
	}
}

func (s *InMemoryDedupStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, expiry := range s.processed {
		if now.After(expiry) {
			delete(s.processed, id)
		}
	}
}

// Ensure InMemoryDedupStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryDedupStore)(nil)
