package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on top of a pgx connection pool. Exclusion is
// per row: the conditional balance update and FOR UPDATE request locks let
// unrelated accounts proceed in parallel.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id, username, coins, created_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Coins, &a.CreatedAt)
	return a, err
}

func (p *Postgres) CreateAccount(ctx context.Context, id uuid.UUID, username string) (Account, error) {
	a, err := scanAccount(p.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, username, coins)
		VALUES ($1, $2, 0)
		RETURNING `+accountColumns,
		id, username))
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrAccountExists
		}
		return Account{}, err
	}
	return a, nil
}

func (p *Postgres) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	a, err := scanAccount(p.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (p *Postgres) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (p *Postgres) Adjust(ctx context.Context, accountID uuid.UUID, delta int64) (int64, error) {
	return adjustBalance(ctx, p.pool, accountID, delta)
}

// adjustBalance is the single atomic balance primitive. The delta is folded
// into the WHERE clause so an overdraft never matches a row; there is no
// read-then-write window.
func adjustBalance(ctx context.Context, q querier, accountID uuid.UUID, delta int64) (int64, error) {
	var coins int64
	err := q.QueryRow(ctx, `
		UPDATE accounts
		SET coins = coins + $1
		WHERE id = $2 AND coins + $1 >= 0
		RETURNING coins`,
		delta, accountID).Scan(&coins)
	if err == nil {
		return coins, nil
	}
	if isCheckViolation(err) {
		return 0, ErrInsufficientCoins
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// No row matched: either the account is missing or the debit would
	// overdraw it.
	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID,
	).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrAccountNotFound
	}
	return 0, ErrInsufficientCoins
}

func (p *Postgres) GrantCoins(ctx context.Context, accountID uuid.UUID, amount int64, grantedBy uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	coins, err := adjustBalance(ctx, tx, accountID, amount)
	if err != nil {
		return 0, err
	}
	if err := insertLedgerEntry(ctx, tx, accountID, amount, DirectionCredit, KindGrant, grantedBy); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return coins, nil
}

func (p *Postgres) LedgerEntries(ctx context.Context, accountID uuid.UUID) ([]LedgerEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, account_id, amount, direction, kind, reference, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Direction, &e.Kind, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const roomColumns = `id, title, game, entry_fee, room_code, room_password, is_active, created_by, created_at`

func scanRoom(row pgx.Row) (Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.Title, &r.Game, &r.EntryFee, &r.RoomCode, &r.RoomPassword, &r.IsActive, &r.CreatedBy, &r.CreatedAt)
	return r, err
}

func (p *Postgres) CreateRoom(ctx context.Context, input CreateRoomInput) (Room, error) {
	if input.EntryFee < 0 {
		return Room{}, ErrInvalidAmount
	}
	return scanRoom(p.pool.QueryRow(ctx, `
		INSERT INTO game_rooms (id, title, game, entry_fee, room_code, room_password, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
		RETURNING `+roomColumns,
		uuid.New(), input.Title, input.Game, input.EntryFee, input.RoomCode, input.RoomPassword, input.CreatedBy))
}

func (p *Postgres) GetRoom(ctx context.Context, id uuid.UUID) (Room, error) {
	r, err := scanRoom(p.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM game_rooms WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, err
	}
	return r, nil
}

func (p *Postgres) ListActiveRooms(ctx context.Context) ([]Room, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+roomColumns+` FROM game_rooms WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

const enrollmentColumns = `id, account_id, room_id, player_handle, enrolled_at`

func scanEnrollment(row pgx.Row) (Enrollment, error) {
	var e Enrollment
	err := row.Scan(&e.ID, &e.AccountID, &e.RoomID, &e.PlayerHandle, &e.EnrolledAt)
	return e, err
}

func (p *Postgres) ListRoomEnrollments(ctx context.Context, roomID uuid.UUID) ([]Enrollment, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE room_id = $1
		ORDER BY enrolled_at`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (p *Postgres) Enroll(ctx context.Context, input EnrollInput) (Enrollment, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Enrollment{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var fee int64
	var active bool
	err = tx.QueryRow(ctx,
		`SELECT entry_fee, is_active FROM game_rooms WHERE id = $1`,
		input.RoomID).Scan(&fee, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Enrollment{}, ErrRoomNotFound
		}
		return Enrollment{}, err
	}
	if !active {
		return Enrollment{}, ErrRoomInactive
	}

	// The unique (account_id, room_id) constraint closes the duplicate
	// race; a concurrent second insert aborts here before any debit.
	enrollment, err := scanEnrollment(tx.QueryRow(ctx, `
		INSERT INTO enrollments (id, account_id, room_id, player_handle)
		VALUES ($1, $2, $3, $4)
		RETURNING `+enrollmentColumns,
		uuid.New(), input.AccountID, input.RoomID, input.PlayerHandle))
	if err != nil {
		if isUniqueViolation(err) {
			return Enrollment{}, ErrAlreadyEnrolled
		}
		return Enrollment{}, err
	}

	if _, err := adjustBalance(ctx, tx, input.AccountID, -fee); err != nil {
		return Enrollment{}, err
	}
	if fee > 0 {
		if err := insertLedgerEntry(ctx, tx, input.AccountID, fee, DirectionDebit, KindEnrollment, enrollment.ID); err != nil {
			return Enrollment{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Enrollment{}, err
	}
	return enrollment, nil
}

func (p *Postgres) IsEnrolled(ctx context.Context, accountID, roomID uuid.UUID) (bool, error) {
	var enrolled bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE account_id = $1 AND room_id = $2)`,
		accountID, roomID).Scan(&enrolled)
	return enrolled, err
}

func (p *Postgres) AddHandle(ctx context.Context, accountID uuid.UUID, handle string) (PlayerHandle, error) {
	var h PlayerHandle
	err := p.pool.QueryRow(ctx, `
		INSERT INTO player_handles (id, account_id, handle)
		VALUES ($1, $2, $3)
		RETURNING id, account_id, handle, created_at`,
		uuid.New(), accountID, handle).Scan(&h.ID, &h.AccountID, &h.Handle, &h.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return PlayerHandle{}, ErrAccountNotFound
		}
		return PlayerHandle{}, err
	}
	return h, nil
}

func (p *Postgres) ListHandles(ctx context.Context, accountID uuid.UUID) ([]PlayerHandle, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, account_id, handle, created_at
		FROM player_handles
		WHERE account_id = $1
		ORDER BY created_at`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var handles []PlayerHandle
	for rows.Next() {
		var h PlayerHandle
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Handle, &h.CreatedAt); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

func (p *Postgres) DeleteHandle(ctx context.Context, accountID, handleID uuid.UUID) error {
	ct, err := p.pool.Exec(ctx,
		`DELETE FROM player_handles WHERE id = $1 AND account_id = $2`,
		handleID, accountID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrHandleNotFound
	}
	return nil
}

const withdrawalColumns = `id, account_id, amount, payout_destination, status, evidence_ref, approved_by, requested_at, processed_at`

func scanWithdrawal(row pgx.Row) (WithdrawalRequest, error) {
	var w WithdrawalRequest
	err := row.Scan(&w.ID, &w.AccountID, &w.Amount, &w.PayoutDestination, &w.Status, &w.EvidenceRef, &w.ApprovedBy, &w.RequestedAt, &w.ProcessedAt)
	return w, err
}

func (p *Postgres) CreateWithdrawal(ctx context.Context, input CreateWithdrawalInput) (WithdrawalRequest, error) {
	if input.Amount <= 0 {
		return WithdrawalRequest{}, ErrInvalidAmount
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return WithdrawalRequest{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Funds are reserved by debiting up front; the visible balance
	// already excludes pending withdrawals.
	if _, err := adjustBalance(ctx, tx, input.AccountID, -input.Amount); err != nil {
		return WithdrawalRequest{}, err
	}

	created, err := scanWithdrawal(tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (id, account_id, amount, payout_destination, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+withdrawalColumns,
		uuid.New(), input.AccountID, input.Amount, input.PayoutDestination, StatusPending))
	if err != nil {
		return WithdrawalRequest{}, err
	}
	if err := insertLedgerEntry(ctx, tx, input.AccountID, input.Amount, DirectionDebit, KindWithdrawal, created.ID); err != nil {
		return WithdrawalRequest{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return WithdrawalRequest{}, err
	}
	return created, nil
}

func (p *Postgres) GetWithdrawal(ctx context.Context, id uuid.UUID) (WithdrawalRequest, error) {
	w, err := scanWithdrawal(p.pool.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WithdrawalRequest{}, ErrRequestNotFound
		}
		return WithdrawalRequest{}, err
	}
	return w, nil
}

func (p *Postgres) ListWithdrawalsByAccount(ctx context.Context, accountID uuid.UUID) ([]WithdrawalRequest, error) {
	return p.listWithdrawals(ctx,
		`SELECT `+withdrawalColumns+`
		 FROM withdrawal_requests
		 WHERE account_id = $1
		 ORDER BY requested_at DESC`,
		accountID)
}

func (p *Postgres) ListPendingWithdrawals(ctx context.Context) ([]WithdrawalRequest, error) {
	return p.listWithdrawals(ctx,
		`SELECT `+withdrawalColumns+`
		 FROM withdrawal_requests
		 WHERE status = $1
		 ORDER BY requested_at DESC`,
		StatusPending)
}

func (p *Postgres) listWithdrawals(ctx context.Context, sql string, args ...any) ([]WithdrawalRequest, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func (p *Postgres) ApproveWithdrawal(ctx context.Context, id uuid.UUID, evidenceRef string, approvedBy uuid.UUID) (WithdrawalRequest, error) {
	if evidenceRef == "" {
		return WithdrawalRequest{}, ErrEvidenceRequired
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return WithdrawalRequest{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	w, err := scanWithdrawal(tx.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WithdrawalRequest{}, ErrRequestNotFound
		}
		return WithdrawalRequest{}, err
	}
	if w.Status != StatusPending {
		return WithdrawalRequest{}, ErrInvalidState
	}

	// No ledger movement here: the coins left the balance at request
	// time. Approval only certifies the external payout.
	approved, err := scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawal_requests
		SET status = $1, evidence_ref = $2, approved_by = $3, processed_at = NOW()
		WHERE id = $4
		RETURNING `+withdrawalColumns,
		StatusApproved, evidenceRef, approvedBy, id))
	if err != nil {
		return WithdrawalRequest{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return WithdrawalRequest{}, err
	}
	return approved, nil
}

func insertLedgerEntry(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, direction, kind string, reference uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, account_id, amount, direction, kind, reference)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), accountID, amount, direction, kind, reference)
	return err
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pgErrCode(err) == "23505" }
func isCheckViolation(err error) bool      { return pgErrCode(err) == "23514" }
func isForeignKeyViolation(err error) bool { return pgErrCode(err) == "23503" }
