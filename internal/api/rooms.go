package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/arenahub/internal/store"
)

type roomResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Game      string    `json:"game"`
	EntryFee  int64     `json:"entry_fee"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	// Access credentials are only present for enrolled members and
	// administrators.
	RoomCode     *string `json:"room_code,omitempty"`
	RoomPassword *string `json:"room_password,omitempty"`
}

func toRoomResponse(r store.Room, withCredentials bool) roomResponse {
	resp := roomResponse{
		ID:        r.ID,
		Title:     r.Title,
		Game:      r.Game,
		EntryFee:  r.EntryFee,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
	if withCredentials {
		code, password := r.RoomCode, r.RoomPassword
		resp.RoomCode = &code
		resp.RoomPassword = &password
	}
	return resp
}

type enrollmentResponse struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	RoomID       uuid.UUID `json:"room_id"`
	PlayerHandle string    `json:"player_handle"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

func toEnrollmentResponse(e store.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:           e.ID,
		AccountID:    e.AccountID,
		RoomID:       e.RoomID,
		PlayerHandle: e.PlayerHandle,
		EnrolledAt:   e.EnrolledAt,
	}
}

// ListRooms returns the active room catalog, newest first. Credentials are
// always withheld here.
func (s *Server) ListRooms(c echo.Context) error {
	rooms, err := s.store.ListActiveRooms(c.Request().Context())
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]roomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResponse(r, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// RoomDetails returns a room and its enrolled players. The room code and
// password appear only when the caller is enrolled or an administrator.
func (s *Server) RoomDetails(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx := c.Request().Context()
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return s.storeError(c, err)
	}

	enrolled := isAdmin(c)
	if !enrolled {
		enrolled, err = s.store.IsEnrolled(ctx, uid, roomID)
		if err != nil {
			return s.storeError(c, err)
		}
	}

	enrollments, err := s.store.ListRoomEnrollments(ctx, roomID)
	if err != nil {
		return s.storeError(c, err)
	}
	players := make([]enrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		players = append(players, toEnrollmentResponse(e))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"room":        toRoomResponse(room, enrolled),
		"enrollments": players,
	})
}

// CreateRoom adds a room to the catalog. Admin only.
func (s *Server) CreateRoom(c echo.Context) error {
	adminID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Title        string `json:"title"`
		Game         string `json:"game"`
		EntryFee     int64  `json:"entry_fee"`
		RoomCode     string `json:"room_code"`
		RoomPassword string `json:"room_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.Game == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and game are required"})
	}
	if req.EntryFee < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "entry fee cannot be negative"})
	}

	room, err := s.store.CreateRoom(c.Request().Context(), store.CreateRoomInput{
		Title:        req.Title,
		Game:         req.Game,
		EntryFee:     req.EntryFee,
		RoomCode:     req.RoomCode,
		RoomPassword: req.RoomPassword,
		CreatedBy:    adminID,
	})
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toRoomResponse(room, true))
}

// Enroll spends the entry fee to join a room. On success the room
// credentials are revealed in the response.
func (s *Server) Enroll(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	var req struct {
		PlayerHandle string `json:"player_handle"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.PlayerHandle == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "player handle is required"})
	}

	ctx := c.Request().Context()
	enrollment, err := s.store.Enroll(ctx, store.EnrollInput{
		AccountID:    uid,
		RoomID:       roomID,
		PlayerHandle: req.PlayerHandle,
	})
	if err != nil {
		return s.storeError(c, err)
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"enrollment": toEnrollmentResponse(enrollment),
		"room":       toRoomResponse(room, true),
	})
}
