package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/arenahub/internal/store"
)

type withdrawalResponse struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         uuid.UUID  `json:"account_id"`
	Amount            int64      `json:"amount"`
	PayoutDestination string     `json:"payout_destination"`
	Status            string     `json:"status"`
	EvidenceRef       *string    `json:"evidence_ref,omitempty"`
	RequestedAt       time.Time  `json:"requested_at"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
}

func toWithdrawalResponse(w store.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:                w.ID,
		AccountID:         w.AccountID,
		Amount:            w.Amount,
		PayoutDestination: w.PayoutDestination,
		Status:            w.Status,
		EvidenceRef:       w.EvidenceRef,
		RequestedAt:       w.RequestedAt,
		ProcessedAt:       w.ProcessedAt,
	}
}

// RequestWithdrawal debits the requested amount immediately and files a
// pending request for admin approval.
func (s *Server) RequestWithdrawal(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Amount            int64  `json:"amount"`
		PayoutDestination string `json:"payout_destination"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}
	if req.PayoutDestination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payout destination is required"})
	}

	created, err := s.store.CreateWithdrawal(c.Request().Context(), store.CreateWithdrawalInput{
		AccountID:         uid,
		Amount:            req.Amount,
		PayoutDestination: req.PayoutDestination,
	})
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toWithdrawalResponse(created))
}

// WithdrawalHistory returns the caller's requests, newest first.
func (s *Server) WithdrawalHistory(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	withdrawals, err := s.store.ListWithdrawalsByAccount(c.Request().Context(), uid)
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]withdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, toWithdrawalResponse(w))
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawals": out})
}

// ListPendingWithdrawals returns the approval queue. Admin only.
func (s *Server) ListPendingWithdrawals(c echo.Context) error {
	withdrawals, err := s.store.ListPendingWithdrawals(c.Request().Context())
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]withdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, toWithdrawalResponse(w))
	}
	return c.JSON(http.StatusOK, echo.Map{"pending_withdrawals": out})
}

// ApproveWithdrawal records the settlement evidence and finalizes a
// pending request. Admin only. No coins move here; the debit happened at
// request time.
func (s *Server) ApproveWithdrawal(c echo.Context) error {
	adminID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	var req struct {
		EvidenceRef string `json:"evidence_ref"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.EvidenceRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "evidence reference is required"})
	}

	approved, err := s.store.ApproveWithdrawal(c.Request().Context(), requestID, req.EvidenceRef, adminID)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, toWithdrawalResponse(approved))
}
