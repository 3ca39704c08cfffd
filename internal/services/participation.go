package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"socialevents/internal/domain"
)

type participationService struct {
	// mu serializes the check-then-act sequences in Register and
	// ApproveParticipant so concurrent requests cannot overshoot capacity or
	// create duplicate registrations.
	mu sync.Mutex

	eventRepo         domain.EventRepository
	participationRepo domain.ParticipationRepository
	favoriteRepo      domain.FavoriteRepository
	sink              domain.NotificationSink
	limits            domain.LimitsPolicy
	logger            *slog.Logger
	contextTimeout    time.Duration
}

// NewParticipationService creates the participation engine.
func NewParticipationService(
	eventRepo domain.EventRepository,
	participationRepo domain.ParticipationRepository,
	favoriteRepo domain.FavoriteRepository,
	sink domain.NotificationSink,
	limits domain.LimitsPolicy,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ParticipationService {
	return &participationService{
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		favoriteRepo:      favoriteRepo,
		sink:              sink,
		limits:            limits,
		logger:            logger,
		contextTimeout:    timeout,
	}
}

func (s *participationService) Register(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Capacity applies to the auto-confirm path only: pending registrations do
	// not hold a confirmed slot, and capacity is re-checked at approval time.
	if !event.RequireManualApproval {
		count, err := s.participationRepo.CountConfirmedByEvent(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("count confirmed: %w", err)
		}
		if count >= event.MaxAttendees {
			return nil, domain.ErrEventFull
		}
	}

	if _, err := s.participationRepo.GetActiveByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get participation: %w", err)
	}

	now := time.Now()
	p := &domain.Participation{
		UserID:       userID,
		EventID:      eventID,
		Status:       domain.ParticipationConfirmed,
		RegisteredAt: now,
	}
	if event.RequireManualApproval {
		p.Status = domain.ParticipationPending
	} else {
		approvedAt := now
		p.ApprovedAt = &approvedAt
	}

	if err := s.participationRepo.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			return nil, domain.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create participation: %w", err)
	}

	s.notify(ctx, &domain.Notification{
		UserID:         event.OrganizerID,
		Kind:           domain.NotificationNewParticipant,
		Title:          "New participant",
		Body:           fmt.Sprintf("A new participant registered for %q", event.Title),
		RelatedEventID: &event.ID,
		RelatedUserID:  &userID,
	})
	return p, nil
}

func (s *participationService) CancelRegistration(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(ctx, eventID, userID)
}

// cancelLocked marks the user's active participation CANCELLED. Freed slots
// are not handed to pending registrants; there is no waitlist promotion.
func (s *participationService) cancelLocked(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	p, err := s.participationRepo.GetActiveByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get participation: %w", err)
	}

	now := time.Now()
	p.Status = domain.ParticipationCancelled
	p.CancelledAt = &now
	if err := s.participationRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update participation: %w", err)
	}
	return p, nil
}

func (s *participationService) RemoveParticipant(ctx context.Context, eventID, userID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != callerID {
		return domain.ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.cancelLocked(ctx, eventID, userID); err != nil {
		return err
	}
	return nil
}

func (s *participationService) ApproveParticipant(ctx context.Context, eventID, userID, approverID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != approverID {
		return nil, domain.ErrForbidden
	}

	p, err := s.participationRepo.GetPendingByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get pending participation: %w", err)
	}

	// Approval consumes a confirmed slot, so capacity is enforced here rather
	// than at registration for manual-approval events.
	count, err := s.participationRepo.CountConfirmedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count confirmed: %w", err)
	}
	if count >= event.MaxAttendees {
		return nil, domain.ErrEventFull
	}

	now := time.Now()
	p.Status = domain.ParticipationConfirmed
	p.ApprovedAt = &now
	p.ApprovedByID = &approverID
	if err := s.participationRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update participation: %w", err)
	}

	s.notify(ctx, &domain.Notification{
		UserID:         userID,
		Kind:           domain.NotificationParticipationApproved,
		Title:          "Registration confirmed",
		Body:           fmt.Sprintf("Your registration for %q was approved", event.Title),
		RelatedEventID: &event.ID,
	})
	return p, nil
}

func (s *participationService) RejectParticipant(ctx context.Context, eventID, userID, callerID string, reason *string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != callerID {
		return nil, domain.ErrForbidden
	}

	p, err := s.participationRepo.GetPendingByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get pending participation: %w", err)
	}

	p.Status = domain.ParticipationRejected
	p.Notes = reason
	if err := s.participationRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update participation: %w", err)
	}

	s.notify(ctx, &domain.Notification{
		UserID:         userID,
		Kind:           domain.NotificationParticipationRejected,
		Title:          "Registration declined",
		Body:           fmt.Sprintf("Your registration for %q was declined", event.Title),
		RelatedEventID: &event.ID,
	})
	return p, nil
}

func (s *participationService) ListParticipations(ctx context.Context, eventID string, status *domain.ParticipationStatus) ([]*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, err := s.participationRepo.ListByEvent(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	if items == nil {
		items = []*domain.Participation{}
	}
	return items, nil
}

func (s *participationService) ListPendingApprovals(ctx context.Context, eventID, callerID string) ([]*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != callerID {
		return nil, domain.ErrForbidden
	}

	pending := domain.ParticipationPending
	return s.ListParticipations(ctx, eventID, &pending)
}

func (s *participationService) ListUserParticipations(ctx context.Context, userID string) ([]*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, err := s.participationRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user participations: %w", err)
	}
	if items == nil {
		items = []*domain.Participation{}
	}
	return items, nil
}

func (s *participationService) AddFavorite(ctx context.Context, userID string, role domain.Role, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	exists, err := s.favoriteRepo.Exists(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("check favorite: %w", err)
	}
	if exists {
		return event, nil
	}

	count, err := s.favoriteRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	if count >= s.limits.ForRole(role).MaxFavorites {
		return nil, domain.ErrQuotaExceeded
	}

	if err := s.favoriteRepo.Add(ctx, userID, eventID); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return event, nil
}

func (s *participationService) RemoveFavorite(ctx context.Context, userID, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.favoriteRepo.Remove(ctx, userID, eventID); err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}
	return event, nil
}

func (s *participationService) ListFavorites(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ids, err := s.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	events := make([]*domain.Event, 0, len(ids))
	for _, id := range ids {
		event, err := s.eventRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Event deleted but favorite remains; skip defensively.
				continue
			}
			return nil, fmt.Errorf("get favorite event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *participationService) IsFavorite(ctx context.Context, userID, eventID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.favoriteRepo.Exists(ctx, userID, eventID)
}

// notify delivers a fire-and-forget notification; failures are logged and
// never surface to the caller.
func (s *participationService) notify(ctx context.Context, n *domain.Notification) {
	if err := s.sink.Notify(ctx, n); err != nil {
		s.logger.Warn("notification delivery failed", "kind", n.Kind, "user_id", n.UserID, "err", err)
	}
}
