package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"socialevents/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{
		DB: db,
	}
}

const userColumns = `id, email, name, avatar, bio, role, created_at, updated_at`

func scanUser(scan func(dest ...any) error) (*domain.User, error) {
	u := &domain.User{}
	var avatar, bio sql.NullString
	err := scan(&u.ID, &u.Email, &u.Name, &avatar, &bio, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		u.Avatar = &avatar.String
	}
	if bio.Valid {
		u.Bio = &bio.String
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
