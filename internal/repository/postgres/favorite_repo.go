package postgres

import (
	"context"
	"database/sql"

	"socialevents/internal/domain"
)

type favoriteRepository struct {
	DB *sql.DB
}

func NewFavoriteRepository(db *sql.DB) domain.FavoriteRepository {
	return &favoriteRepository{
		DB: db,
	}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, eventID string) error {
	query := `
		INSERT INTO favorites (user_id, event_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, event_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, userID, eventID)
	return err
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, eventID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	)
	return err
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID,
	).Scan(&exists)
	return exists, err
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT event_id FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (r *favoriteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = $1`,
		userID,
	).Scan(&n)
	return n, err
}
