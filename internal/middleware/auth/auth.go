package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// Gate resolves the acting user from a bearer token. Handlers downstream read
// the identity via UserID/Role.
type Gate struct {
	JWTSecret []byte
}

// RequireUser rejects requests without a valid access token.
func (g *Gate) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := g.parseBearer(c)
		if err != nil {
			return err
		}
		setIdentity(c, claims)
		return next(c)
	}
}

// RequireAdmin rejects everyone whose token does not carry the admin role.
func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.RequireUser(func(c echo.Context) error {
		if Role(c) != models.RoleAdmin {
			return fmt.Errorf("%w: admin only", domain.ErrForbidden)
		}
		return next(c)
	})
}

func (g *Gate) parseBearer(c echo.Context) (jwt.MapClaims, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: malformed authorization header", domain.ErrUnauthenticated)
	}

	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.JWTSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthenticated)
	}
	if typ, ok := claims["typ"]; ok && typ == "refresh" {
		return nil, fmt.Errorf("%w: refresh token used as access token", domain.ErrUnauthenticated)
	}
	if _, ok := claims["sub"].(float64); !ok {
		return nil, fmt.Errorf("%w: invalid subject claim", domain.ErrUnauthenticated)
	}
	return claims, nil
}

func setIdentity(c echo.Context, claims jwt.MapClaims) {
	c.Set(ctxUserID, uint(claims["sub"].(float64)))
	if role, ok := claims["role"].(string); ok {
		c.Set(ctxRole, role)
	}
}

func UserID(c echo.Context) uint {
	if id, ok := c.Get(ctxUserID).(uint); ok {
		return id
	}
	return 0
}

func Role(c echo.Context) string {
	if role, ok := c.Get(ctxRole).(string); ok {
		return role
	}
	return ""
}
