package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/arenahub/internal/middleware"
)

var secret = []byte("test-secret")

func handler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get(middleware.ContextUserID),
		"role":    c.Get(middleware.ContextRole),
	})
}

func request(t *testing.T, e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestAuthAcceptsValidToken(t *testing.T) {
	e := echo.New()
	e.GET("/", handler, middleware.Auth(secret))

	token := sign(t, jwt.MapClaims{
		"user_id": "5c2d6c3a-97c5-4f2b-9c15-6a1d9c6f7a01",
		"role":    middleware.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	rec := request(t, e, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthDefaultsRoleToStandard(t *testing.T) {
	called := false
	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		called = true
		if role := c.Get(middleware.ContextRole); role != middleware.RoleStandard {
			t.Fatalf("expected standard role, got %v", role)
		}
		return c.NoContent(http.StatusOK)
	}, middleware.Auth(secret))

	token := sign(t, jwt.MapClaims{
		"user_id": "5c2d6c3a-97c5-4f2b-9c15-6a1d9c6f7a01",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	request(t, e, "Bearer "+token)
	if !called {
		t.Fatal("handler not reached")
	}
}

func TestAuthRejections(t *testing.T) {
	e := echo.New()
	e.GET("/", handler, middleware.Auth(secret))

	cases := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic abc",
		"garbage token":   "Bearer not.a.jwt",
		"wrong secret":    "Bearer " + signWith(t, []byte("other-secret")),
		"missing user id": "Bearer " + sign(t, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired": "Bearer " + sign(t, jwt.MapClaims{
			"user_id": "5c2d6c3a-97c5-4f2b-9c15-6a1d9c6f7a01",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		}),
	}
	for name, header := range cases {
		rec := request(t, e, header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func signWith(t *testing.T, key []byte) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "5c2d6c3a-97c5-4f2b-9c15-6a1d9c6f7a01",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestAdminGuard(t *testing.T) {
	e := echo.New()
	e.GET("/", handler, middleware.Auth(secret), middleware.AdminGuard)

	adminToken := sign(t, jwt.MapClaims{
		"user_id": "5c2d6c3a-97c5-4f2b-9c15-6a1d9c6f7a01",
		"role":    middleware.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if rec := request(t, e, "Bearer "+adminToken); rec.Code != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", rec.Code)
	}

	standardToken := sign(t, jwt.MapClaims{
		"user_id": "5c2d6c3a-97c5-4f2b-9c15-6a1d9c6f7a01",
		"role":    middleware.RoleStandard,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if rec := request(t, e, "Bearer "+standardToken); rec.Code != http.StatusForbidden {
		t.Fatalf("standard expected 403, got %d", rec.Code)
	}
}
