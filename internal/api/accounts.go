package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/arenahub/internal/store"
)

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Coins     int64     `json:"coins"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountResponse(a store.Account) accountResponse {
	return accountResponse{ID: a.ID, Username: a.Username, Coins: a.Coins, CreatedAt: a.CreatedAt}
}

// SyncAccount creates the ledger account row for the authenticated
// identity on first contact. Calling it again returns the existing
// account unchanged.
func (s *Server) SyncAccount(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	account, err := s.store.CreateAccount(c.Request().Context(), uid, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			existing, gerr := s.store.GetAccount(c.Request().Context(), uid)
			if gerr != nil {
				return s.storeError(c, gerr)
			}
			return c.JSON(http.StatusOK, toAccountResponse(existing))
		}
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// Balance returns the authenticated account's coin balance.
func (s *Server) Balance(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	account, err := s.store.GetAccount(c.Request().Context(), uid)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"account_id": account.ID,
		"coins":      account.Coins,
	})
}

type ledgerEntryResponse struct {
	ID        uuid.UUID `json:"id"`
	Amount    int64     `json:"amount"`
	Direction string    `json:"direction"`
	Kind      string    `json:"kind"`
	Reference uuid.UUID `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger returns every balance movement for the authenticated account,
// newest first.
func (s *Server) Ledger(c echo.Context) error {
	uid, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	entries, err := s.store.LedgerEntries(c.Request().Context(), uid)
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryResponse{
			ID:        e.ID,
			Amount:    e.Amount,
			Direction: e.Direction,
			Kind:      e.Kind,
			Reference: e.Reference,
			CreatedAt: e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}

// ListAccounts returns every account with its balance. Admin only.
func (s *Server) ListAccounts(c echo.Context) error {
	accounts, err := s.store.ListAccounts(c.Request().Context())
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"accounts": out})
}

// CreditAccount grants coins to an account. Admin only; the grant is
// recorded in the ledger with the granting administrator as reference.
func (s *Server) CreditAccount(c echo.Context) error {
	adminID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	accountID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account id"})
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	coins, err := s.store.GrantCoins(c.Request().Context(), accountID, req.Amount, adminID)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"account_id": accountID,
		"coins":      coins,
	})
}
