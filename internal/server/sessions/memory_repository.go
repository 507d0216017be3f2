package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps sessions in process memory. It backs the "memory"
// storage mode and the HTTP API tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]session
}

type session struct {
	userID    string
	expiresAt time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]session)}
}

func (r *MemoryRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[token] = session{userID: userID, expiresAt: time.Now().Add(validity)}
	return nil
}

func (r *MemoryRepository) Exists(ctx context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[token]
	return ok && s.expiresAt.After(time.Now()), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for token, s := range r.sessions {
		if !s.expiresAt.After(now) {
			delete(r.sessions, token)
		}
	}
	return nil
}
