package repository

import (
	"context"
	"sync"
	"time"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"
)

// MemoryStateStore keeps OAuth state nonces in process memory. Expired
// entries are swept on every save.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]domain.OAuthState
	now    func() time.Time
}

var _ ports.StateStore = (*MemoryStateStore)(nil)

// NewMemoryStateStore creates an empty state store
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]domain.OAuthState),
		now:    time.Now,
	}
}

func (s *MemoryStateStore) Save(_ context.Context, state *domain.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.states {
		if v.Expired(now) {
			delete(s.states, k)
		}
	}
	s.states[state.State] = *state
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (*domain.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	delete(s.states, state)
	return &v, nil
}
