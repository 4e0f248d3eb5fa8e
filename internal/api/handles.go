package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type handleResponse struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// ListHandles returns the caller's saved player handles.
func (s *Server) ListHandles(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	handles, err := s.store.ListHandles(c.Request().Context(), uid)
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]handleResponse, 0, len(handles))
	for _, h := range handles {
		out = append(out, handleResponse{ID: h.ID, Handle: h.Handle, CreatedAt: h.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"handles": out})
}

// AddHandle saves a player handle for reuse in enrollment forms.
func (s *Server) AddHandle(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Handle string `json:"handle"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Handle == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "handle is required"})
	}

	h, err := s.store.AddHandle(c.Request().Context(), uid, req.Handle)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, handleResponse{ID: h.ID, Handle: h.Handle, CreatedAt: h.CreatedAt})
}

// DeleteHandle removes one of the caller's saved handles.
func (s *Server) DeleteHandle(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	handleID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid handle id"})
	}

	if err := s.store.DeleteHandle(c.Request().Context(), uid, handleID); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "handle deleted"})
}
