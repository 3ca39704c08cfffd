package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialevents/internal/domain"
)

// EventRepository is an in-memory, mutex-guarded implementation of
// domain.EventRepository. Intended for tests and single-process deployments.
type EventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event

	// counter lets List apply the has-available-spots filter without reaching
	// into the participation repository directly.
	counter ConfirmedCounter
}

// ConfirmedCounter reports the confirmed participation count for an event.
type ConfirmedCounter interface {
	CountConfirmedByEvent(ctx context.Context, eventID string) (int, error)
}

func NewEventRepository(counter ConfirmedCounter) *EventRepository {
	return &EventRepository{
		events:  make(map[string]*domain.Event),
		counter: counter,
	}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *e
	return &out, nil
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *EventRepository) List(ctx context.Context, filters domain.EventFilters, params domain.PaginationParams) ([]*domain.Event, int, error) {
	r.mu.RLock()
	var matched []*domain.Event
	for _, e := range r.events {
		if e.IsCancelled {
			continue
		}
		if !matchesFilters(e, filters) {
			continue
		}
		out := *e
		matched = append(matched, &out)
	}
	r.mu.RUnlock()

	if filters.HasAvailableSpots && r.counter != nil {
		var open []*domain.Event
		for _, e := range matched {
			n, err := r.counter.CountConfirmedByEvent(ctx, e.ID)
			if err != nil {
				return nil, 0, err
			}
			if n < e.MaxAttendees {
				open = append(open, e)
			}
		}
		matched = open
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})

	total := len(matched)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if params.PageSize <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matchesFilters(e *domain.Event, f domain.EventFilters) bool {
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.DateFrom != nil && e.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Date.After(*f.DateTo) {
		return false
	}
	if f.Location != nil && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(*f.Location)) {
		return false
	}
	if f.MaxPrice != nil && e.Price > *f.MaxPrice {
		return false
	}
	if f.OrganizerID != nil && e.OrganizerID != *f.OrganizerID {
		return false
	}
	return true
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Event
	for _, e := range r.events {
		if e.OrganizerID == organizerID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *EventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Event
	for _, e := range r.events {
		if e.IsCancelled {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *EventRepository) CountActiveByOrganizer(ctx context.Context, organizerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.events {
		if e.OrganizerID == organizerID && !e.IsCancelled {
			n++
		}
	}
	return n, nil
}
