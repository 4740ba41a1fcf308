package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Service issues and rotates the HS256 access/refresh token pair. Refresh
// tokens are persisted sha256-hexed so a database leak does not leak usable
// credentials.
type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Service) IssuePair(ctx context.Context, userID uint, role string) (*Pair, error) {
	access, err := s.signAccess(userID, role)
	if err != nil {
		return nil, err
	}

	jti := uuid.NewString()
	refreshExp := time.Now().Add(RefreshTTL)
	refresh, err := s.signRefresh(userID, role, jti, refreshExp)
	if err != nil {
		return nil, err
	}

	row := models.RefreshToken{
		Token:     sha256Hex(refresh),
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate validates a raw refresh token, revokes it and issues a fresh pair.
func (s *Service) Rotate(ctx context.Context, raw string) (*Pair, error) {
	claims, stored, err := s.validateRefresh(ctx, raw)
	if err != nil {
		return nil, err
	}

	userID := uint(claims["sub"].(float64))
	role, _ := claims["role"].(string)

	if err := s.DB.WithContext(ctx).Model(stored).Update("revoked", true).Error; err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.IssuePair(ctx, userID, role)
}

// Revoke marks a raw refresh token unusable. Unknown tokens are a no-op.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	return s.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", sha256Hex(raw)).
		Update("revoked", true).Error
}

func (s *Service) signAccess(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.JWTSecret)
}

func (s *Service) signRefresh(userID uint, role, jti string, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"typ":  "refresh",
		"jti":  jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.RefreshSecret)
}

func (s *Service) validateRefresh(ctx context.Context, raw string) (jwt.MapClaims, *models.RefreshToken, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthenticated)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil, fmt.Errorf("%w: cannot parse claims", domain.ErrUnauthenticated)
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, nil, fmt.Errorf("%w: not a refresh token", domain.ErrUnauthenticated)
	}
	if _, ok := claims["sub"].(float64); !ok {
		return nil, nil, fmt.Errorf("%w: invalid subject claim", domain.ErrUnauthenticated)
	}

	var stored models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token = ?", sha256Hex(raw)).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown refresh token", domain.ErrUnauthenticated)
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, nil, fmt.Errorf("%w: refresh token revoked", domain.ErrUnauthenticated)
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, nil, fmt.Errorf("%w: refresh token expired", domain.ErrUnauthenticated)
	}
	return claims, &stored, nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
