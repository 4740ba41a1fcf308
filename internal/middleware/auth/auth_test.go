package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return raw
}

func accessToken(t *testing.T, userID uint, role string) string {
	return signToken(t, testSecret, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	err := mw(func(c echo.Context) error { return nil })(c)
	return c, err
}

func TestRequireUserAcceptsValidToken(t *testing.T) {
	g := &Gate{JWTSecret: testSecret}
	c, err := invoke(t, g.RequireUser, "Bearer "+accessToken(t, 7, models.RoleUser))
	require.NoError(t, err)
	require.Equal(t, uint(7), UserID(c))
	require.Equal(t, models.RoleUser, Role(c))
}

func TestRequireUserRejections(t *testing.T) {
	g := &Gate{JWTSecret: testSecret}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, []byte("other-secret"), jwt.MapClaims{
			"sub": float64(7),
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": float64(7),
			"exp": time.Now().Add(-time.Minute).Unix(),
		})},
		{"missing sub", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"refresh token", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": float64(7),
			"typ": "refresh",
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := invoke(t, g.RequireUser, tc.header)
			require.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	g := &Gate{JWTSecret: testSecret}

	_, err := invoke(t, g.RequireAdmin, "Bearer "+accessToken(t, 1, models.RoleAdmin))
	require.NoError(t, err)

	_, err = invoke(t, g.RequireAdmin, "Bearer "+accessToken(t, 7, models.RoleUser))
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = invoke(t, g.RequireAdmin, "")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestIdentityDefaultsWhenUnset(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Equal(t, uint(0), UserID(c))
	require.Equal(t, "", Role(c))
}
