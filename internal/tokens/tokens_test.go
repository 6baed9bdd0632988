package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkharitonov/task_manager/internal/models"
)

var testUser = &models.User{
	ID:    42,
	Email: "user@example.com",
	Role:  models.RoleUser,
}

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("access-secret")

	signed, err := SignAccessToken(testUser, secret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(signed, secret)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, models.RoleUser, claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	secret := []byte("refresh-secret")

	signed, err := SignRefreshToken(testUser, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseRefreshToken(signed, secret)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID, "refresh tokens carry a jti")

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	secret := []byte("refresh-secret")

	a, err := SignRefreshToken(testUser, secret, time.Hour)
	require.NoError(t, err)
	b, err := SignRefreshToken(testUser, secret, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "jti must differ between signins")
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signed, err := SignAccessToken(testUser, []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, []byte("wrong"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsCrossCategoryTokens(t *testing.T) {
	accessSecret := []byte("access-secret")
	refreshSecret := []byte("refresh-secret")

	access, err := SignAccessToken(testUser, accessSecret, time.Minute)
	require.NoError(t, err)

	_, err = ParseRefreshToken(access, refreshSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	secret := []byte("secret")

	signed, err := SignAccessToken(testUser, secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, secret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseAccessToken("not.a.jwt", []byte("secret"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken()
	require.NoError(t, err)
	require.Len(t, a, 64)

	b, err := NewOpaqueToken()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
