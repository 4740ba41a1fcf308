package token

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/config"
	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &Service{
		DB:            db,
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func TestIssuePair(t *testing.T) {
	s := newTestService(t)
	pair, err := s.IssuePair(context.Background(), 7, models.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	// Access token carries sub and role under the access secret.
	tok, err := jwt.Parse(pair.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return s.JWTSecret, nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	require.EqualValues(t, 7, claims["sub"])
	require.Equal(t, models.RoleUser, claims["role"])
	_, hasTyp := claims["typ"]
	require.False(t, hasTyp)

	// Only the sha256 of the refresh token is persisted.
	var rows []models.RefreshToken
	require.NoError(t, s.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.NotEqual(t, pair.RefreshToken, rows[0].Token)
	require.Len(t, rows[0].Token, 64)
	require.False(t, rows[0].Revoked)
}

func TestRotateRevokesOldToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	pair, err := s.IssuePair(ctx, 7, models.RoleAdmin)
	require.NoError(t, err)

	next, err := s.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The rotated token keeps the role.
	tok, err := jwt.Parse(next.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return s.JWTSecret, nil
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, tok.Claims.(jwt.MapClaims)["role"])

	// Replaying the old token fails.
	_, err = s.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	// The new one still works.
	_, err = s.Rotate(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRotateRejectsAccessToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	pair, err := s.IssuePair(ctx, 7, models.RoleUser)
	require.NoError(t, err)

	_, err = s.Rotate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRotateRejectsForgedToken(t *testing.T) {
	s := newTestService(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": float64(7),
		"typ": "refresh",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := forged.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = s.Rotate(context.Background(), raw)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRotateRejectsUnknownToken(t *testing.T) {
	s := newTestService(t)

	// Well-signed but never stored, as after a logout purge.
	raw, err := s.signRefresh(7, models.RoleUser, "jti-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = s.Rotate(context.Background(), raw)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRotateRejectsExpiredStoredToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	pair, err := s.IssuePair(ctx, 7, models.RoleUser)
	require.NoError(t, err)

	// Age the stored row past its expiry; the JWT itself is still valid.
	require.NoError(t, s.DB.Model(&models.RefreshToken{}).
		Where("user_id = ?", 7).
		Update("expires_at", time.Now().Add(-time.Minute).Unix()).Error)

	_, err = s.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRevoke(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	pair, err := s.IssuePair(ctx, 7, models.RoleUser)
	require.NoError(t, err)
	require.NoError(t, s.Revoke(ctx, pair.RefreshToken))

	_, err = s.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Revoking garbage is a no-op, not an error.
	require.NoError(t, s.Revoke(ctx, "not-a-token"))
}
