// Package middleware carries the identity boundary: requests arrive with a
// token minted by the external identity provider, and the service trusts
// the account id and role claims inside it. Authorization for privileged
// routes is enforced here, never left to callers.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	RoleStandard = "standard"
	RoleAdmin    = "admin"
)

// Context keys set for downstream handlers.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Auth validates the bearer token and stores the caller's account id and
// role in the request context.
func Auth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := parseToken(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(ContextUserID, userID)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

func parseToken(header string, secret []byte) (userID, role string, err error) {
	if header == "" {
		return "", "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "", errors.New("malformed authorization header")
	}

	token, err := jwt.Parse(strings.TrimSpace(parts[1]), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token claims")
	}
	userID, ok = claims[ContextUserID].(string)
	if !ok || userID == "" {
		return "", "", errors.New("missing user_id claim")
	}
	role, _ = claims[ContextRole].(string)
	if role == "" {
		role = RoleStandard
	}
	return userID, role, nil
}
