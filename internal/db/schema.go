package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the service owns if they are missing.
// Every statement is idempotent so startup can run it unconditionally.
//
// The CHECK (coins >= 0) on accounts is the hard floor for the ledger:
// even a buggy caller cannot commit a negative balance.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS game_rooms (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			game TEXT NOT NULL,
			entry_fee BIGINT NOT NULL CHECK (entry_fee >= 0),
			room_code TEXT NOT NULL DEFAULT '',
			room_password TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id),
			room_id UUID NOT NULL REFERENCES game_rooms(id),
			player_handle TEXT NOT NULL,
			enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (account_id, room_id)
		)`,
		`CREATE TABLE IF NOT EXISTS player_handles (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			handle TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id),
			amount BIGINT NOT NULL CHECK (amount > 0),
			payout_destination TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved')),
			evidence_ref TEXT NULL,
			approved_by UUID NULL,
			requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMPTZ NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id),
			amount BIGINT NOT NULL CHECK (amount > 0),
			direction TEXT NOT NULL CHECK (direction IN ('debit', 'credit')),
			kind TEXT NOT NULL CHECK (kind IN ('enrollment', 'withdrawal', 'grant')),
			reference UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_room ON enrollments(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_player_handles_account ON player_handles(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_account ON withdrawal_requests(account_id, requested_at)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_pending ON withdrawal_requests(requested_at) WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON ledger_entries(account_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
