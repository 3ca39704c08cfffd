package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialevents/internal/domain"
)

func TestJWTCodec_IssueAndVerify(t *testing.T) {
	codec := NewJWTCodec("test-secret")

	token, err := codec.Issue("user-123", domain.RolePremium, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
	assert.Equal(t, domain.RolePremium, role)
}

func TestJWTCodec_Verify(t *testing.T) {
	codec := NewJWTCodec("test-secret")

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := codec.Verify("not.a.token")
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTCodec("other-secret")
		token, err := other.Issue("user-1", domain.RoleUser, time.Hour)
		require.NoError(t, err)

		_, _, err = codec.Verify(token)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := codec.Issue("user-1", domain.RoleUser, -time.Minute)
		require.NoError(t, err)

		_, _, err = codec.Verify(token)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("missing role defaults to USER", func(t *testing.T) {
		claims := jwtClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, role, err := codec.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, role)
	})
}
