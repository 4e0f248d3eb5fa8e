// Package store holds the coin ledger and the records it governs: game
// rooms, enrollments, withdrawal requests, and the audit ledger. Every
// operation that moves coins commits the balance change and its companion
// record as one atomic unit.
package store

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence boundary for the enrollment and withdrawal
// workflow. Postgres is the production implementation; Memory backs tests.
type Store interface {
	// Accounts and the coin ledger.
	CreateAccount(ctx context.Context, id uuid.UUID, username string) (Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	// Adjust applies a signed delta to an account balance atomically.
	// A debit that would take the balance below zero fails with
	// ErrInsufficientCoins and leaves the balance unchanged.
	Adjust(ctx context.Context, accountID uuid.UUID, delta int64) (int64, error)

	// GrantCoins credits an account and records a grant ledger entry in
	// the same transaction. grantedBy is the administrator account.
	GrantCoins(ctx context.Context, accountID uuid.UUID, amount int64, grantedBy uuid.UUID) (int64, error)
	LedgerEntries(ctx context.Context, accountID uuid.UUID) ([]LedgerEntry, error)

	// Room catalog.
	CreateRoom(ctx context.Context, input CreateRoomInput) (Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (Room, error)
	ListActiveRooms(ctx context.Context) ([]Room, error)
	ListRoomEnrollments(ctx context.Context, roomID uuid.UUID) ([]Enrollment, error)

	// Enroll debits the room's entry fee and creates the membership
	// record in one transaction. Duplicate membership fails with
	// ErrAlreadyEnrolled and the account is not charged.
	Enroll(ctx context.Context, input EnrollInput) (Enrollment, error)
	IsEnrolled(ctx context.Context, accountID, roomID uuid.UUID) (bool, error)

	// Saved player handles.
	AddHandle(ctx context.Context, accountID uuid.UUID, handle string) (PlayerHandle, error)
	ListHandles(ctx context.Context, accountID uuid.UUID) ([]PlayerHandle, error)
	DeleteHandle(ctx context.Context, accountID, handleID uuid.UUID) error

	// Withdrawal workflow. Creation debits immediately; approval only
	// certifies the external payout and never touches the balance.
	CreateWithdrawal(ctx context.Context, input CreateWithdrawalInput) (WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (WithdrawalRequest, error)
	ListWithdrawalsByAccount(ctx context.Context, accountID uuid.UUID) ([]WithdrawalRequest, error)
	ListPendingWithdrawals(ctx context.Context) ([]WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, id uuid.UUID, evidenceRef string, approvedBy uuid.UUID) (WithdrawalRequest, error)
}
