package users

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kilianp07/evroute/core/clock"
)

// MemoryStore keeps accounts in a map keyed by normalized email. Accounts
// are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
	clock clock.Clock
}

// NewMemoryStore returns an empty store. A nil clock uses the system clock.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.System{}
	}
	return &MemoryStore{users: make(map[string]User), clock: clk}
}

func (s *MemoryStore) Create(_ context.Context, u User) (User, error) {
	u.Email = NormalizeEmail(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return User{}, ErrExists
	}
	u.ID = uuid.NewString()
	now := s.clock.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.Email] = u
	return u, nil
}

func (s *MemoryStore) ByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[NormalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Len returns the number of accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
