package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"socialevents/internal/domain"
)

// ParticipationRepository is an in-memory implementation of
// domain.ParticipationRepository. Active (non-CANCELLED) records are indexed
// by (eventID, userID) so uniqueness checks and lookups avoid full scans.
type ParticipationRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Participation
	active map[string]string // eventID+"\x00"+userID -> participation ID
}

func NewParticipationRepository() *ParticipationRepository {
	return &ParticipationRepository{
		byID:   make(map[string]*domain.Participation),
		active: make(map[string]string),
	}
}

func pairKey(eventID, userID string) string {
	return eventID + "\x00" + userID
}

func (r *ParticipationRepository) Create(ctx context.Context, p *domain.Participation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(p.EventID, p.UserID)
	if _, exists := r.active[key]; exists {
		return domain.ErrAlreadyRegistered
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stored := *p
	r.byID[p.ID] = &stored
	if p.Status != domain.ParticipationCancelled {
		r.active[key] = p.ID
	}
	return nil
}

func (r *ParticipationRepository) GetByID(ctx context.Context, id string) (*domain.Participation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *ParticipationRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.active[pairKey(eventID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *ParticipationRepository) GetPendingByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.active[pairKey(eventID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p := r.byID[id]
	if p.Status != domain.ParticipationPending {
		return nil, domain.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *ParticipationRepository) Update(ctx context.Context, p *domain.Participation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *p
	r.byID[p.ID] = &stored
	key := pairKey(p.EventID, p.UserID)
	if p.Status == domain.ParticipationCancelled {
		if r.active[key] == p.ID {
			delete(r.active, key)
		}
	} else {
		r.active[key] = p.ID
	}
	return nil
}

func (r *ParticipationRepository) ListByEvent(ctx context.Context, eventID string, status *domain.ParticipationStatus) ([]*domain.Participation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Participation
	for _, p := range r.byID {
		if p.EventID != eventID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (r *ParticipationRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Participation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Participation
	for _, p := range r.byID {
		if p.UserID != userID || p.Status == domain.ParticipationCancelled {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (r *ParticipationRepository) CountConfirmedByEvent(ctx context.Context, eventID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.byID {
		if p.EventID == eventID && p.Status == domain.ParticipationConfirmed {
			n++
		}
	}
	return n, nil
}
