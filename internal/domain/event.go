package domain

import (
	"context"
	"time"
)

// EventCategory classifies an event for filtering.
type EventCategory string

const (
	CategorySortie EventCategory = "SORTIE"
	CategorySport  EventCategory = "SPORT"
	CategoryMusee  EventCategory = "MUSEE"
	CategoryDanse  EventCategory = "DANSE"
	CategoryHiking EventCategory = "HIKING"
	CategoryDrinks EventCategory = "DRINKS"
	CategoryOther  EventCategory = "OTHER"
)

// Coordinates is an optional geographic position for an event.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Event represents a social event. Events are owned by their organizer for
// mutation and soft-cancelled rather than edited away once people depend on
// them.
// swagger:model Event
type Event struct {
	ID                         string        `json:"id"`
	Title                      string        `json:"title"`
	Description                *string       `json:"description,omitempty"`
	Image                      *string       `json:"image,omitempty"`
	Category                   EventCategory `json:"category"`
	Date                       time.Time     `json:"date"`
	Time                       string        `json:"time"`
	Location                   string        `json:"location"`
	Coordinates                *Coordinates  `json:"coordinates,omitempty"`
	MaxAttendees               int           `json:"max_attendees"`
	Price                      float64       `json:"price"`
	Currency                   string        `json:"currency"`
	HideAddressUntilRegistered bool          `json:"hide_address_until_registered"`
	RequireManualApproval      bool          `json:"require_manual_approval"`
	IsCancelled                bool          `json:"is_cancelled"`
	OrganizerID                string        `json:"organizer_id"`
	CreatedAt                  time.Time     `json:"created_at"`
	UpdatedAt                  time.Time     `json:"updated_at"`
}

// EventFilters narrows event listings. Nil fields are ignored.
type EventFilters struct {
	Category          *EventCategory
	DateFrom          *time.Time
	DateTo            *time.Time
	Location          *string
	MaxPrice          *float64
	OrganizerID       *string
	HasAvailableSpots bool
}

// EventPatch carries the mutable event fields for an update. Nil fields are
// left untouched.
type EventPatch struct {
	Title                      *string
	Description                *string
	Image                      *string
	Category                   *EventCategory
	Date                       *time.Time
	Time                       *string
	Location                   *string
	Coordinates                *Coordinates
	MaxAttendees               *int
	Price                      *float64
	Currency                   *string
	HideAddressUntilRegistered *bool
	RequireManualApproval      *bool
}

// EventPage is one page of a filtered event listing.
type EventPage struct {
	Items      []*Event `json:"items"`
	TotalCount int      `json:"total_count"`
	HasMore    bool     `json:"has_more"`
}

// EventRepository defines the interface for event storage. List excludes
// cancelled events and orders by ascending event date.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters EventFilters, params PaginationParams) ([]*Event, int, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*Event, error)
	CountActiveByOrganizer(ctx context.Context, organizerID string) (int, error)
}

// EventService defines the event registry operations exposed to the delivery
// layer. Organizer-or-admin authorization for mutations is enforced here, not
// in the repositories.
type EventService interface {
	CreateEvent(ctx context.Context, organizerID string, role Role, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, filters EventFilters, params PaginationParams) (*EventPage, error)
	ListEventsForDate(ctx context.Context, date time.Time) ([]*Event, error)
	ListTrendingEvents(ctx context.Context, limit int) ([]*Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, callerID string, role Role, patch EventPatch) (*Event, error)
	CancelEvent(ctx context.Context, eventID, callerID string, role Role) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string, role Role) error
	AttendeesCount(ctx context.Context, eventID string) (int, error)
	AvailableSpots(ctx context.Context, eventID string) (int, error)
}
