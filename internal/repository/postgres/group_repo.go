package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"socialevents/internal/domain"
)

type groupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) domain.GroupRepository {
	return &groupRepository{
		DB: db,
	}
}

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO groups (name, image, description, event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		g.Name, g.Image, g.Description, g.EventID, g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
}

func scanGroup(scan func(dest ...any) error) (*domain.Group, error) {
	g := &domain.Group{}
	var image, description, eventID sql.NullString
	err := scan(&g.ID, &g.Name, &image, &description, &eventID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if image.Valid {
		g.Image = &image.String
	}
	if description.Valid {
		g.Description = &description.String
	}
	if eventID.Valid {
		g.EventID = &eventID.String
	}
	return g, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT id, name, image, description, event_id, created_at, updated_at FROM groups WHERE id = $1`
	g, err := scanGroup(r.DB.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *groupRepository) Update(ctx context.Context, g *domain.Group) error {
	query := `
		UPDATE groups
		SET name = $1, image = $2, description = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := r.DB.ExecContext(ctx, query, g.Name, g.Image, g.Description, g.UpdatedAt, g.ID)
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

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
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

func (r *groupRepository) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE groups SET updated_at = $1 WHERE id = $2`, at, id)
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

func (r *groupRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Group, error) {
	query := `
		SELECT g.id, g.name, g.image, g.description, g.event_id, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1 AND m.is_kicked = FALSE
		ORDER BY g.updated_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Group
	for rows.Next() {
		g, err := scanGroup(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Group{}
	}
	return out, nil
}

type groupMemberRepository struct {
	DB *sql.DB
}

// NewGroupMemberRepository returns storage backed by the group_members table.
// The unique index on (group_id, user_id) covers kicked records too, so one
// pair never holds more than one record.
func NewGroupMemberRepository(db *sql.DB) domain.GroupMemberRepository {
	return &groupMemberRepository{
		DB: db,
	}
}

const memberColumns = `id, user_id, group_id, role, joined_at, muted_until, is_kicked, kicked_at, kicked_by_id`

func (r *groupMemberRepository) Create(ctx context.Context, m *domain.GroupMember) error {
	query := `
		INSERT INTO group_members (user_id, group_id, role, joined_at, muted_until, is_kicked, kicked_at, kicked_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		m.UserID, m.GroupID, m.Role, m.JoinedAt, m.MutedUntil, m.IsKicked, m.KickedAt, m.KickedByID,
	).Scan(&m.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func scanGroupMember(scan func(dest ...any) error) (*domain.GroupMember, error) {
	m := &domain.GroupMember{}
	var mutedUntil, kickedAt sql.NullTime
	var kickedBy sql.NullString
	err := scan(&m.ID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt, &mutedUntil, &m.IsKicked, &kickedAt, &kickedBy)
	if err != nil {
		return nil, err
	}
	if mutedUntil.Valid {
		m.MutedUntil = &mutedUntil.Time
	}
	if kickedAt.Valid {
		m.KickedAt = &kickedAt.Time
	}
	if kickedBy.Valid {
		m.KickedByID = &kickedBy.String
	}
	return m, nil
}

func (r *groupMemberRepository) GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = $1 AND user_id = $2`
	m, err := scanGroupMember(r.DB.QueryRowContext(ctx, query, groupID, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *groupMemberRepository) Update(ctx context.Context, m *domain.GroupMember) error {
	query := `
		UPDATE group_members
		SET role = $1, joined_at = $2, muted_until = $3, is_kicked = $4, kicked_at = $5, kicked_by_id = $6
		WHERE id = $7
	`
	res, err := r.DB.ExecContext(ctx, query,
		m.Role, m.JoinedAt, m.MutedUntil, m.IsKicked, m.KickedAt, m.KickedByID, m.ID,
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

func (r *groupMemberRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM group_members WHERE id = $1`, id)
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

func (r *groupMemberRepository) ListActiveByGroup(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members
		WHERE group_id = $1 AND is_kicked = FALSE
		ORDER BY joined_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.GroupMember
	for rows.Next() {
		m, err := scanGroupMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.GroupMember{}
	}
	return out, nil
}
