package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"socialevents/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, title, description, image, category, date, time, location,
		latitude, longitude, max_attendees, price, currency,
		hide_address_until_registered, require_manual_approval, is_cancelled,
		organizer_id, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, image, category, date, time, location,
			latitude, longitude, max_attendees, price, currency,
			hide_address_until_registered, require_manual_approval, is_cancelled,
			organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`
	var lat, lng *float64
	if e.Coordinates != nil {
		lat = &e.Coordinates.Latitude
		lng = &e.Coordinates.Longitude
	}
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Image, e.Category, e.Date, e.Time, e.Location,
		lat, lng, e.MaxAttendees, e.Price, e.Currency,
		e.HideAddressUntilRegistered, e.RequireManualApproval, e.IsCancelled,
		e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func scanEvent(scan func(dest ...any) error) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull, imageNull sql.NullString
	var latNull, lngNull sql.NullFloat64
	err := scan(
		&e.ID, &e.Title, &descNull, &imageNull, &e.Category, &e.Date, &e.Time, &e.Location,
		&latNull, &lngNull, &e.MaxAttendees, &e.Price, &e.Currency,
		&e.HideAddressUntilRegistered, &e.RequireManualApproval, &e.IsCancelled,
		&e.OrganizerID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if imageNull.Valid {
		e.Image = &imageNull.String
	}
	if latNull.Valid && lngNull.Valid {
		e.Coordinates = &domain.Coordinates{Latitude: latNull.Float64, Longitude: lngNull.Float64}
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, image = $3, category = $4, date = $5,
			time = $6, location = $7, latitude = $8, longitude = $9,
			max_attendees = $10, price = $11, currency = $12,
			hide_address_until_registered = $13, require_manual_approval = $14,
			is_cancelled = $15, updated_at = $16
		WHERE id = $17
	`
	var lat, lng *float64
	if e.Coordinates != nil {
		lat = &e.Coordinates.Latitude
		lng = &e.Coordinates.Longitude
	}
	res, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Description, e.Image, e.Category, e.Date, e.Time, e.Location,
		lat, lng, e.MaxAttendees, e.Price, e.Currency,
		e.HideAddressUntilRegistered, e.RequireManualApproval, e.IsCancelled,
		e.UpdatedAt, e.ID,
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

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
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

func (r *eventRepository) List(ctx context.Context, filters domain.EventFilters, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where := "WHERE e.is_cancelled = FALSE"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.Category != nil {
		where += " AND e.category = " + arg(*filters.Category)
	}
	if filters.DateFrom != nil {
		where += " AND e.date >= " + arg(*filters.DateFrom)
	}
	if filters.DateTo != nil {
		where += " AND e.date <= " + arg(*filters.DateTo)
	}
	if filters.Location != nil {
		where += " AND e.location ILIKE " + arg("%"+*filters.Location+"%")
	}
	if filters.MaxPrice != nil {
		where += " AND e.price <= " + arg(*filters.MaxPrice)
	}
	if filters.OrganizerID != nil {
		where += " AND e.organizer_id = " + arg(*filters.OrganizerID)
	}
	if filters.HasAvailableSpots {
		where += ` AND (
			SELECT COUNT(*) FROM participations p
			WHERE p.event_id = e.id AND p.status = 'CONFIRMED'
		) < e.max_attendees`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM events e ` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT e.id, e.title, e.description, e.image, e.category, e.date, e.time, e.location,
			e.latitude, e.longitude, e.max_attendees, e.price, e.currency,
			e.hide_address_until_registered, e.require_manual_approval, e.is_cancelled,
			e.organizer_id, e.created_at, e.updated_at
		FROM events e ` + where + `
		ORDER BY e.date ASC`
	if params.PageSize > 0 {
		query += " LIMIT " + arg(params.PageSize) + " OFFSET " + arg(params.Offset())
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Event{}
	}
	return out, nil
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY date ASC`
	rows, err := r.DB.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE is_cancelled = FALSE AND date >= $1 AND date <= $2
		ORDER BY date ASC`
	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) CountActiveByOrganizer(ctx context.Context, organizerID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND is_cancelled = FALSE`,
		organizerID,
	).Scan(&n)
	return n, err
}
