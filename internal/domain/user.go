package domain

import (
	"context"
	"time"
)

// Role is the account tier, which determines quotas via LimitsPolicy and
// grants admins the organizer override on event mutations.
type Role string

const (
	RoleUser    Role = "USER"
	RolePremium Role = "PREMIUM"
	RoleAdmin   Role = "ADMIN"
)

// User represents a platform account. Credential handling lives in the
// identity collaborator; this side only reads profiles.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    *string   `json:"avatar,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the caller's identity.
type TokenVerifier interface {
	Verify(token string) (userID string, role Role, err error)
}
