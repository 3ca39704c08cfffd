package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialevents/internal/domain"
)

type notificationService struct {
	notificationRepo domain.NotificationRepository
	userRepo         domain.UserRepository
	mailer           domain.Mailer
	renderer         domain.EmailTemplateRenderer
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewNotificationService creates the notification sink and its read side.
// mailer and renderer are optional; when both are set, each stored
// notification is also emailed to the recipient on a best-effort basis.
func NewNotificationService(
	notificationRepo domain.NotificationRepository,
	userRepo domain.UserRepository,
	mailer domain.Mailer,
	renderer domain.EmailTemplateRenderer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		renderer:         renderer,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

// Notify stores the notification. Email delivery failures are logged, never
// returned: the state transition that triggered the notification already
// happened.
func (s *notificationService) Notify(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if n.UserID == "" || n.Kind == "" {
		return domain.ErrInvalidInput
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if s.mailer != nil && s.renderer != nil {
		s.sendEmail(ctx, n)
	}
	return nil
}

func (s *notificationService) sendEmail(ctx context.Context, n *domain.Notification) {
	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("notification email skipped", "user_id", n.UserID, "err", err)
		return
	}
	subject, html, text, err := s.renderer.Render("notification", domain.NotificationEmailData{
		Email: user.Email,
		Name:  user.Name,
		Title: n.Title,
		Body:  n.Body,
	})
	if err != nil {
		s.logger.Error("notification email render failed", "kind", n.Kind, "err", err)
		return
	}
	if err := s.mailer.Send(user.Email, subject, html, text); err != nil {
		s.logger.Error("notification email send failed", "kind", n.Kind, "err", err)
	}
}

func (s *notificationService) ListUserNotifications(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, params)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	return items, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.notificationRepo.CountUnreadByUser(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if n.IsRead {
		return n, nil
	}

	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	if err := s.notificationRepo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("update notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.notificationRepo.MarkAllRead(ctx, userID, time.Now()); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// DeleteNotification removes the notification. A missing record reports
// false without error.
func (s *notificationService) DeleteNotification(ctx context.Context, notificationID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != userID {
		return false, domain.ErrForbidden
	}
	if err := s.notificationRepo.Delete(ctx, notificationID); err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return true, nil
}
