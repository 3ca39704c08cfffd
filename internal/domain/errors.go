package domain

import "errors"

// Sentinel errors shared across services and repositories. Repositories map
// storage-level failures (sql.ErrNoRows, unique violations) onto these, and
// the delivery layer maps them onto HTTP status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrEventFull         = errors.New("event is full")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrAlreadyMember     = errors.New("already a group member")
	ErrInvalidTarget     = errors.New("invalid operation target")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserNotFound      = errors.New("user not found")
)
