package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

// CleanupInterval is how often expired records are dropped
const CleanupInterval = time.Minute

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore implements Store in process memory. It is meant for a single
// instance or local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		records:     make(map[string]memoryEntry),
		ttl:         DefaultSessionTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expire()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) expire() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.records {
		if !now.Before(e.expiresAt) {
			delete(s.records, id)
		}
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[id]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, ErrSessionNotFound
	}
	record := e.record
	record.Items = slices.Clone(e.record.Items)
	return &record, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, record *Record) error {
	stored := *record
	stored.Items = slices.Clone(record.Items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = memoryEntry{record: stored, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
