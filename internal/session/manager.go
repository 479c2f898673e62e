package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/peixeshop/internal/cart"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultIdleTimeout is how long an untouched session stays in process memory.
// It is still in the backing Store afterwards.
const DefaultIdleTimeout = 30 * time.Minute

type liveSession struct {
	cart     *cart.Store
	userID   string
	lastSeen time.Time
}

// Manager hands out one cart.Store per session id and persists it to a Store.
// Requests of the same session share the same cart.Store.
type Manager struct {
	store       Store
	log         logrus.FieldLogger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession

	stopEvict chan struct{}
	wg        sync.WaitGroup
}

func NewManager(store Store, log logrus.FieldLogger) *Manager {
	m := &Manager{
		store:       store,
		log:         log.WithField("component", "session"),
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*liveSession),
		stopEvict:   make(chan struct{}),
	}

	m.wg.Add(1)
	go m.evictLoop()

	return m
}

func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

// Get returns the cart of the session, loading it from the Store on first
// access. Unknown ids start with an empty cart.
func (m *Manager) Get(ctx context.Context, id string) (*cart.Store, error) {
	s, err := m.live(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.cart, nil
}

// Save persists the current cart and user of the session.
func (m *Manager) Save(ctx context.Context, id string) error {
	s, err := m.live(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	userID := s.userID
	m.mu.Unlock()

	record := &Record{
		UserID:    userID,
		Items:     s.cart.Items(),
		UpdatedAt: m.now().UTC(),
	}
	if err := m.store.Save(ctx, id, record); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SetUser attaches a user to the session and persists it. An empty userID
// signs the session out; the cart stays.
func (m *Manager) SetUser(ctx context.Context, id, userID string) error {
	s, err := m.live(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	s.userID = userID
	m.mu.Unlock()

	return m.Save(ctx, id)
}

func (m *Manager) User(ctx context.Context, id string) (string, error) {
	s, err := m.live(ctx, id)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return s.userID, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) live(ctx context.Context, id string) (*liveSession, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrSessionNotFound)
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = m.now()
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	loaded := &liveSession{cart: cart.NewStore()}
	record, err := m.store.Load(ctx, id)
	switch {
	case err == nil:
		loaded.cart.Restore(record.Items)
		loaded.userID = record.UserID
	case errors.Is(err, ErrSessionNotFound):
	default:
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have loaded it meanwhile
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = m.now()
		return s, nil
	}
	loaded.lastSeen = m.now()
	m.sessions[id] = loaded
	return loaded, nil
}

func (m *Manager) evictLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.evictIdle(); n > 0 {
				m.log.WithField("evicted", n).Debug("evicted idle sessions")
			}
		case <-m.stopEvict:
			return
		}
	}
}

func (m *Manager) evictIdle() int {
	cutoff := m.now().Add(-m.idleTimeout)
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Close stops the eviction loop.
func (m *Manager) Close() error {
	close(m.stopEvict)
	m.wg.Wait()
	return nil
}
