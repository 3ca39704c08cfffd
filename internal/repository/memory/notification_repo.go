package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialevents/internal/domain"
)

// NotificationRepository is an in-memory implementation of
// domain.NotificationRepository.
type NotificationRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{byID: make(map[string]*domain.Notification)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	stored := *n
	r.byID[n.ID] = &stored
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *n
	return &out, nil
}

func (r *NotificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[n.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *n
	r.byID[n.ID] = &stored
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Notification
	for _, n := range r.byID {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if params.PageSize <= 0 || end > total {
		end = total
	}
	return out[start:end], nil
}

func (r *NotificationRepository) CountUnreadByUser(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, item := range r.byID {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.byID {
		if n.UserID != userID || n.IsRead {
			continue
		}
		n.IsRead = true
		readAt := at
		n.ReadAt = &readAt
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
