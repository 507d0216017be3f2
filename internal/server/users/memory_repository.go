package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trueheartapps/versesync/internal/common"
)

// MemoryRepository keeps users in process memory. It backs the "memory"
// storage mode and the HTTP API tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]*User
	nextID  int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return nil, fmt.Errorf("user %q already exists", user.Email)
	}

	r.nextID++
	u := *user
	u.ID = fmt.Sprintf("u%d", r.nextID)
	u.CreatedAt = time.Now()

	r.byID[u.ID] = &u
	r.byEmail[u.Email] = &u

	copy := u
	return &copy, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *u
	return &copy, nil
}
