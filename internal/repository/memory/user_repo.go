package memory

import (
	"context"
	"strings"
	"sync"

	"socialevents/internal/domain"
)

// UserRepository is an in-memory implementation of domain.UserRepository,
// seedable for tests and development.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewUserRepository(users ...*domain.User) *UserRepository {
	r := &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
	for _, u := range users {
		r.Seed(u)
	}
	return r
}

// Seed stores a user record, replacing any existing record with the same ID.
func (r *UserRepository) Seed(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *u
	r.byID[u.ID] = &stored
	r.byEmail[strings.ToLower(u.Email)] = u.ID
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}
