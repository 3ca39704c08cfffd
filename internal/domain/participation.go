package domain

import (
	"context"
	"time"
)

// ParticipationStatus is the state of a single registration record.
// PENDING may move to CONFIRMED or REJECTED; any non-terminal state may move
// to CANCELLED. CONFIRMED, REJECTED and CANCELLED are terminal per record;
// re-registration after a cancel creates a new record.
type ParticipationStatus string

const (
	ParticipationPending   ParticipationStatus = "PENDING"
	ParticipationConfirmed ParticipationStatus = "CONFIRMED"
	ParticipationRejected  ParticipationStatus = "REJECTED"
	ParticipationCancelled ParticipationStatus = "CANCELLED"
)

// Participation represents one user's registration for one event. At most one
// non-CANCELLED record exists per (user, event) pair at any time.
// swagger:model Participation
type Participation struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	EventID      string              `json:"event_id"`
	Status       ParticipationStatus `json:"status"`
	RegisteredAt time.Time           `json:"registered_at"`
	ApprovedAt   *time.Time          `json:"approved_at,omitempty"`
	ApprovedByID *string             `json:"approved_by_id,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	Notes        *string             `json:"notes,omitempty"`
}

// ParticipationRepository defines storage operations for participations.
// GetActiveByEventAndUser ignores CANCELLED records. Create must refuse a
// second active record for the same (event, user) pair with
// ErrAlreadyRegistered.
type ParticipationRepository interface {
	Create(ctx context.Context, p *Participation) error
	GetByID(ctx context.Context, id string) (*Participation, error)
	GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*Participation, error)
	GetPendingByEventAndUser(ctx context.Context, eventID, userID string) (*Participation, error)
	Update(ctx context.Context, p *Participation) error
	ListByEvent(ctx context.Context, eventID string, status *ParticipationStatus) ([]*Participation, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*Participation, error)
	CountConfirmedByEvent(ctx context.Context, eventID string) (int, error)
}

// FavoriteRepository stores each user's favorite event set. Add and Remove
// are idempotent.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, eventID string) error
	Remove(ctx context.Context, userID, eventID string) error
	Exists(ctx context.Context, userID, eventID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]string, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// ParticipationService is the registration state machine plus the favorites
// set. Organizer authorization for approve/reject/remove is enforced here.
type ParticipationService interface {
	Register(ctx context.Context, eventID, userID string) (*Participation, error)
	CancelRegistration(ctx context.Context, eventID, userID string) (*Participation, error)
	RemoveParticipant(ctx context.Context, eventID, userID, callerID string) error
	ApproveParticipant(ctx context.Context, eventID, userID, approverID string) (*Participation, error)
	RejectParticipant(ctx context.Context, eventID, userID, callerID string, reason *string) (*Participation, error)
	ListParticipations(ctx context.Context, eventID string, status *ParticipationStatus) ([]*Participation, error)
	ListPendingApprovals(ctx context.Context, eventID, callerID string) ([]*Participation, error)
	ListUserParticipations(ctx context.Context, userID string) ([]*Participation, error)
	AddFavorite(ctx context.Context, userID string, role Role, eventID string) (*Event, error)
	RemoveFavorite(ctx context.Context, userID, eventID string) (*Event, error)
	ListFavorites(ctx context.Context, userID string) ([]*Event, error)
	IsFavorite(ctx context.Context, userID, eventID string) (bool, error)
}
