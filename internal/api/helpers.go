package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appmw "github.com/sudo-init-do/arenahub/internal/middleware"
	"github.com/sudo-init-do/arenahub/internal/store"
)

// callerID returns the authenticated account id placed in context by the
// auth middleware.
func callerID(c echo.Context) (uuid.UUID, error) {
	raw, ok := c.Get(appmw.ContextUserID).(string)
	if !ok || raw == "" {
		return uuid.Nil, errors.New("missing identity")
	}
	return uuid.Parse(raw)
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get(appmw.ContextRole).(string)
	return role == appmw.RoleAdmin
}

func pathID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// storeError maps the store's error taxonomy onto HTTP statuses. Anything
// unrecognized is a persistence failure and logged as such.
func (s *Server) storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrInsufficientCoins):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient coins"})
	case errors.Is(err, store.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	case errors.Is(err, store.ErrEvidenceRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "evidence reference required"})
	case errors.Is(err, store.ErrAlreadyEnrolled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already enrolled"})
	case errors.Is(err, store.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "request is not pending"})
	case errors.Is(err, store.ErrRoomInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is not active"})
	case errors.Is(err, store.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, store.ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "withdrawal request not found"})
	case errors.Is(err, store.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	case errors.Is(err, store.ErrHandleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "handle not found"})
	default:
		s.log.Errorw("store error", "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
