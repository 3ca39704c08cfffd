package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"socialevents/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{
		DB: db,
	}
}

const notificationColumns = `id, user_id, kind, title, body, is_read, read_at, created_at,
		related_event_id, related_user_id, related_group_id`

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (user_id, kind, title, body, is_read, read_at, created_at,
			related_event_id, related_user_id, related_group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		n.UserID, n.Kind, n.Title, n.Body, n.IsRead, n.ReadAt, n.CreatedAt,
		n.RelatedEventID, n.RelatedUserID, n.RelatedGroupID,
	).Scan(&n.ID)
}

func scanNotification(scan func(dest ...any) error) (*domain.Notification, error) {
	n := &domain.Notification{}
	var readAt sql.NullTime
	var eventID, userID, groupID sql.NullString
	err := scan(
		&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.IsRead, &readAt, &n.CreatedAt,
		&eventID, &userID, &groupID,
	)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	if eventID.Valid {
		n.RelatedEventID = &eventID.String
	}
	if userID.Valid {
		n.RelatedUserID = &userID.String
	}
	if groupID.Valid {
		n.RelatedGroupID = &groupID.String
	}
	return n, nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.DB.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	query := `UPDATE notifications SET is_read = $1, read_at = $2 WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, n.IsRead, n.ReadAt, n.ID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	args := []any{userID}
	if params.PageSize > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, params.PageSize, params.Offset())
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Notification{}
	}
	return out, nil
}

func (r *notificationRepository) CountUnreadByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	).Scan(&n)
	return n, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = $1 WHERE user_id = $2 AND is_read = FALSE`,
		at, userID,
	)
	return err
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
