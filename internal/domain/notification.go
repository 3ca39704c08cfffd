package domain

import (
	"context"
	"time"
)

// NotificationKind is the closed set of notification types the platform
// emits.
type NotificationKind string

const (
	NotificationEventReminder         NotificationKind = "EVENT_REMINDER"
	NotificationNewMessage            NotificationKind = "NEW_MESSAGE"
	NotificationParticipationApproved NotificationKind = "PARTICIPATION_APPROVED"
	NotificationParticipationRejected NotificationKind = "PARTICIPATION_REJECTED"
	NotificationNewParticipant        NotificationKind = "NEW_PARTICIPANT"
	NotificationEventCancelled        NotificationKind = "EVENT_CANCELLED"
	NotificationProfileVisit          NotificationKind = "PROFILE_VISIT"
)

// Notification is a typed in-app notification for one user.
// swagger:model Notification
type Notification struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Kind           NotificationKind `json:"kind"`
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	IsRead         bool             `json:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	RelatedEventID *string          `json:"related_event_id,omitempty"`
	RelatedUserID  *string          `json:"related_user_id,omitempty"`
	RelatedGroupID *string          `json:"related_group_id,omitempty"`
}

// NotificationSink receives fire-and-forget notifications from the engines.
// A failed delivery must never fail the state transition that triggered it;
// callers log the error and move on.
type NotificationSink interface {
	Notify(ctx context.Context, n *Notification) error
}

// NotificationRepository defines storage for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, params PaginationParams) ([]*Notification, error)
	CountUnreadByUser(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// NotificationService is the sink plus the user-facing read side.
type NotificationService interface {
	NotificationSink
	ListUserNotifications(ctx context.Context, userID string, unreadOnly bool, params PaginationParams) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, notificationID, userID string) (bool, error)
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the
// given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// NotificationEmailData holds data for the notification email template.
type NotificationEmailData struct {
	Email string
	Name  string
	Title string
	Body  string
}
