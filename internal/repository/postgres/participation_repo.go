package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"socialevents/internal/domain"
)

type participationRepository struct {
	DB *sql.DB
}

// NewParticipationRepository returns storage backed by the participations
// table. A partial unique index on (event_id, user_id) where status is not
// CANCELLED enforces the single-active-record rule at the database level.
func NewParticipationRepository(db *sql.DB) domain.ParticipationRepository {
	return &participationRepository{
		DB: db,
	}
}

const participationColumns = `id, user_id, event_id, status, registered_at, approved_at, approved_by_id, cancelled_at, notes`

func (r *participationRepository) Create(ctx context.Context, p *domain.Participation) error {
	query := `
		INSERT INTO participations (user_id, event_id, status, registered_at, approved_at, approved_by_id, cancelled_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		p.UserID, p.EventID, p.Status, p.RegisteredAt, p.ApprovedAt, p.ApprovedByID, p.CancelledAt, p.Notes,
	).Scan(&p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func scanParticipation(scan func(dest ...any) error) (*domain.Participation, error) {
	p := &domain.Participation{}
	var approvedAt, cancelledAt sql.NullTime
	var approvedBy, notes sql.NullString
	err := scan(
		&p.ID, &p.UserID, &p.EventID, &p.Status, &p.RegisteredAt,
		&approvedAt, &approvedBy, &cancelledAt, &notes,
	)
	if err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		p.ApprovedAt = &approvedAt.Time
	}
	if approvedBy.Valid {
		p.ApprovedByID = &approvedBy.String
	}
	if cancelledAt.Valid {
		p.CancelledAt = &cancelledAt.Time
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	return p, nil
}

func (r *participationRepository) GetByID(ctx context.Context, id string) (*domain.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE id = $1`
	p, err := scanParticipation(r.DB.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participationRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1 AND user_id = $2 AND status != 'CANCELLED'
	`
	p, err := scanParticipation(r.DB.QueryRowContext(ctx, query, eventID, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participationRepository) GetPendingByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1 AND user_id = $2 AND status = 'PENDING'
	`
	p, err := scanParticipation(r.DB.QueryRowContext(ctx, query, eventID, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participationRepository) Update(ctx context.Context, p *domain.Participation) error {
	query := `
		UPDATE participations
		SET status = $1, approved_at = $2, approved_by_id = $3, cancelled_at = $4, notes = $5
		WHERE id = $6
	`
	res, err := r.DB.ExecContext(ctx, query,
		p.Status, p.ApprovedAt, p.ApprovedByID, p.CancelledAt, p.Notes, p.ID,
	)
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

func (r *participationRepository) ListByEvent(ctx context.Context, eventID string, status *domain.ParticipationStatus) ([]*domain.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE event_id = $1`
	args := []any{eventID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY registered_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParticipations(rows)
}

func (r *participationRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE user_id = $1 AND status != 'CANCELLED'
		ORDER BY registered_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParticipations(rows)
}

func collectParticipations(rows *sql.Rows) ([]*domain.Participation, error) {
	var out []*domain.Participation
	for rows.Next() {
		p, err := scanParticipation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Participation{}
	}
	return out, nil
}

func (r *participationRepository) CountConfirmedByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participations WHERE event_id = $1 AND status = 'CONFIRMED'`,
		eventID,
	).Scan(&n)
	return n, err
}
