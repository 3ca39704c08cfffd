package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"socialevents/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type jwtCodec struct {
	secret []byte
}

// NewJWTCodec returns a token codec that signs and verifies HS256 JWTs with
// the given secret. It implements both domain.TokenIssuer and
// domain.TokenVerifier.
func NewJWTCodec(secret string) *jwtCodec {
	return &jwtCodec{secret: []byte(secret)}
}

func (c *jwtCodec) Issue(userID string, role domain.Role, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Role: string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (c *jwtCodec) Verify(tokenString string) (string, domain.Role, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return "", "", domain.ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return "", "", domain.ErrUnauthenticated
	}
	if claims.Subject == "" {
		return "", "", domain.ErrUnauthenticated
	}
	role := domain.Role(claims.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return claims.Subject, role, nil
}

var _ domain.TokenIssuer = (*jwtCodec)(nil)
var _ domain.TokenVerifier = (*jwtCodec)(nil)
