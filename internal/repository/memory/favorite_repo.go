package memory

import (
	"context"
	"sync"

	"socialevents/internal/domain"
)

// FavoriteRepository is an in-memory implementation of
// domain.FavoriteRepository. Add and Remove are idempotent set operations.
type FavoriteRepository struct {
	mu     sync.RWMutex
	byUser map[string]map[string]struct{}
}

func NewFavoriteRepository() *FavoriteRepository {
	return &FavoriteRepository{byUser: make(map[string]map[string]struct{})}
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[eventID] = struct{}{}
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.byUser[userID]; ok {
		delete(set, eventID)
	}
	return nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.byUser[userID]
	if !ok {
		return false, nil
	}
	_, found := set[eventID]
	return found, nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byUser[userID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out, nil
}

func (r *FavoriteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]), nil
}

var _ domain.FavoriteRepository = (*FavoriteRepository)(nil)
