package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"socialevents/internal/domain"
)

type eventService struct {
	eventRepo         domain.EventRepository
	participationRepo domain.ParticipationRepository
	sink              domain.NotificationSink
	limits            domain.LimitsPolicy
	logger            *slog.Logger
	contextTimeout    time.Duration
}

// NewEventService creates the event registry service.
func NewEventService(
	eventRepo domain.EventRepository,
	participationRepo domain.ParticipationRepository,
	sink domain.NotificationSink,
	limits domain.LimitsPolicy,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		sink:              sink,
		limits:            limits,
		logger:            logger,
		contextTimeout:    timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, organizerID string, role domain.Role, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if organizerID == "" {
		return domain.ErrUnauthenticated
	}
	if event.Title == "" || event.MaxAttendees <= 0 {
		return domain.ErrInvalidInput
	}

	active, err := s.eventRepo.CountActiveByOrganizer(ctx, organizerID)
	if err != nil {
		return fmt.Errorf("count active events: %w", err)
	}
	if active >= s.limits.ForRole(role).MaxActiveEvents {
		return domain.ErrQuotaExceeded
	}

	now := time.Now()
	event.OrganizerID = organizerID
	event.IsCancelled = false
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Currency == "" {
		event.Currency = "EUR"
	}
	if event.Category == "" {
		event.Category = domain.CategoryOther
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filters domain.EventFilters, params domain.PaginationParams) (*domain.EventPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, total, err := s.eventRepo.List(ctx, filters, params)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if items == nil {
		items = []*domain.Event{}
	}
	return &domain.EventPage{
		Items:      items,
		TotalCount: total,
		HasMore:    params.HasMore(len(items), total),
	}, nil
}

func (s *eventService) ListEventsForDate(ctx context.Context, date time.Time) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	to := from.Add(24*time.Hour - time.Nanosecond)
	events, err := s.eventRepo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events for date: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListTrendingEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	now := time.Now()
	upcoming, _, err := s.eventRepo.List(ctx, domain.EventFilters{DateFrom: &now}, domain.PaginationParams{})
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	counts := make(map[string]int, len(upcoming))
	for _, e := range upcoming {
		n, err := s.participationRepo.CountConfirmedByEvent(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("count confirmed: %w", err)
		}
		counts[e.ID] = n
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return counts[upcoming[i].ID] > counts[upcoming[j].ID]
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	if upcoming == nil {
		upcoming = []*domain.Event{}
	}
	return upcoming, nil
}

func (s *eventService) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events by organizer: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// canMutate reports whether the caller may mutate the event: the organizer or
// a platform admin.
func canMutate(event *domain.Event, callerID string, role domain.Role) bool {
	return event.OrganizerID == callerID || role == domain.RoleAdmin
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, role domain.Role, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !canMutate(event, callerID, role) {
		return nil, domain.ErrForbidden
	}

	applyEventPatch(event, patch)
	if event.MaxAttendees <= 0 {
		return nil, domain.ErrInvalidInput
	}
	event.UpdatedAt = time.Now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func applyEventPatch(event *domain.Event, patch domain.EventPatch) {
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Description != nil {
		event.Description = patch.Description
	}
	if patch.Image != nil {
		event.Image = patch.Image
	}
	if patch.Category != nil {
		event.Category = *patch.Category
	}
	if patch.Date != nil {
		event.Date = *patch.Date
	}
	if patch.Time != nil {
		event.Time = *patch.Time
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.Coordinates != nil {
		event.Coordinates = patch.Coordinates
	}
	if patch.MaxAttendees != nil {
		event.MaxAttendees = *patch.MaxAttendees
	}
	if patch.Price != nil {
		event.Price = *patch.Price
	}
	if patch.Currency != nil {
		event.Currency = *patch.Currency
	}
	if patch.HideAddressUntilRegistered != nil {
		event.HideAddressUntilRegistered = *patch.HideAddressUntilRegistered
	}
	if patch.RequireManualApproval != nil {
		event.RequireManualApproval = *patch.RequireManualApproval
	}
}

func (s *eventService) CancelEvent(ctx context.Context, eventID, callerID string, role domain.Role) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !canMutate(event, callerID, role) {
		return nil, domain.ErrForbidden
	}
	if event.IsCancelled {
		return event, nil
	}

	event.IsCancelled = true
	event.UpdatedAt = time.Now()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("cancel event: %w", err)
	}

	s.notifyCancelled(ctx, event)
	return event, nil
}

// notifyCancelled informs confirmed participants. Delivery is best-effort and
// never fails the cancellation.
func (s *eventService) notifyCancelled(ctx context.Context, event *domain.Event) {
	confirmed := domain.ParticipationConfirmed
	participants, err := s.participationRepo.ListByEvent(ctx, event.ID, &confirmed)
	if err != nil {
		s.logger.Warn("list participants for cancel notification", "event_id", event.ID, "err", err)
		return
	}
	for _, p := range participants {
		n := &domain.Notification{
			UserID:         p.UserID,
			Kind:           domain.NotificationEventCancelled,
			Title:          "Event cancelled",
			Body:           fmt.Sprintf("%q has been cancelled", event.Title),
			RelatedEventID: &event.ID,
		}
		if err := s.sink.Notify(ctx, n); err != nil {
			s.logger.Warn("event cancelled notification failed", "user_id", p.UserID, "event_id", event.ID, "err", err)
		}
	}
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !canMutate(event, callerID, role) {
		return domain.ErrForbidden
	}
	// Deletion does not cascade to participations or groups; readers tolerate
	// the dangling reference.
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) AttendeesCount(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.participationRepo.CountConfirmedByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

func (s *eventService) AvailableSpots(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	confirmed, err := s.participationRepo.CountConfirmedByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	spots := event.MaxAttendees - confirmed
	if spots < 0 {
		spots = 0
	}
	return spots, nil
}
