package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type enrollKey struct {
	account uuid.UUID
	room    uuid.UUID
}

// Memory is an in-memory Store used by tests and local development. A
// single mutex plays the role of the database transaction: every operation
// applies all of its writes inside one critical section or none at all.
type Memory struct {
	mu sync.Mutex

	accounts     map[uuid.UUID]Account
	accountOrder []uuid.UUID

	rooms     map[uuid.UUID]Room
	roomOrder []uuid.UUID

	enrollments  map[uuid.UUID]Enrollment
	enrollOrder  []uuid.UUID
	enrollByPair map[enrollKey]uuid.UUID

	handles     map[uuid.UUID]PlayerHandle
	handleOrder []uuid.UUID

	withdrawals     map[uuid.UUID]WithdrawalRequest
	withdrawalOrder []uuid.UUID

	ledger []LedgerEntry
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[uuid.UUID]Account),
		rooms:        make(map[uuid.UUID]Room),
		enrollments:  make(map[uuid.UUID]Enrollment),
		enrollByPair: make(map[enrollKey]uuid.UUID),
		handles:      make(map[uuid.UUID]PlayerHandle),
		withdrawals:  make(map[uuid.UUID]WithdrawalRequest),
	}
}

func (m *Memory) CreateAccount(ctx context.Context, id uuid.UUID, username string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; ok {
		return Account{}, ErrAccountExists
	}
	a := Account{ID: id, Username: username, Coins: 0, CreatedAt: time.Now()}
	m.accounts[id] = a
	m.accountOrder = append(m.accountOrder, id)
	return a, nil
}

func (m *Memory) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (m *Memory) ListAccounts(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make([]Account, 0, len(m.accountOrder))
	for i := len(m.accountOrder) - 1; i >= 0; i-- {
		accounts = append(accounts, m.accounts[m.accountOrder[i]])
	}
	return accounts, nil
}

func (m *Memory) Adjust(ctx context.Context, accountID uuid.UUID, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.adjustLocked(accountID, delta)
}

func (m *Memory) adjustLocked(accountID uuid.UUID, delta int64) (int64, error) {
	a, ok := m.accounts[accountID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if a.Coins+delta < 0 {
		return 0, ErrInsufficientCoins
	}
	a.Coins += delta
	m.accounts[accountID] = a
	return a.Coins, nil
}

func (m *Memory) GrantCoins(ctx context.Context, accountID uuid.UUID, amount int64, grantedBy uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coins, err := m.adjustLocked(accountID, amount)
	if err != nil {
		return 0, err
	}
	m.appendLedgerLocked(accountID, amount, DirectionCredit, KindGrant, grantedBy)
	return coins, nil
}

func (m *Memory) LedgerEntries(ctx context.Context, accountID uuid.UUID) ([]LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []LedgerEntry
	for i := len(m.ledger) - 1; i >= 0; i-- {
		if m.ledger[i].AccountID == accountID {
			entries = append(entries, m.ledger[i])
		}
	}
	return entries, nil
}

func (m *Memory) CreateRoom(ctx context.Context, input CreateRoomInput) (Room, error) {
	if err := ctx.Err(); err != nil {
		return Room{}, err
	}
	if input.EntryFee < 0 {
		return Room{}, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r := Room{
		ID:           uuid.New(),
		Title:        input.Title,
		Game:         input.Game,
		EntryFee:     input.EntryFee,
		RoomCode:     input.RoomCode,
		RoomPassword: input.RoomPassword,
		IsActive:     true,
		CreatedBy:    input.CreatedBy,
		CreatedAt:    time.Now(),
	}
	m.rooms[r.ID] = r
	m.roomOrder = append(m.roomOrder, r.ID)
	return r, nil
}

func (m *Memory) GetRoom(ctx context.Context, id uuid.UUID) (Room, error) {
	if err := ctx.Err(); err != nil {
		return Room{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return r, nil
}

func (m *Memory) ListActiveRooms(ctx context.Context) ([]Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var rooms []Room
	for i := len(m.roomOrder) - 1; i >= 0; i-- {
		if r := m.rooms[m.roomOrder[i]]; r.IsActive {
			rooms = append(rooms, r)
		}
	}
	return rooms, nil
}

func (m *Memory) ListRoomEnrollments(ctx context.Context, roomID uuid.UUID) ([]Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var enrollments []Enrollment
	for _, id := range m.enrollOrder {
		if e := m.enrollments[id]; e.RoomID == roomID {
			enrollments = append(enrollments, e)
		}
	}
	return enrollments, nil
}

func (m *Memory) Enroll(ctx context.Context, input EnrollInput) (Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return Enrollment{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[input.RoomID]
	if !ok {
		return Enrollment{}, ErrRoomNotFound
	}
	if !room.IsActive {
		return Enrollment{}, ErrRoomInactive
	}
	key := enrollKey{account: input.AccountID, room: input.RoomID}
	if _, ok := m.enrollByPair[key]; ok {
		return Enrollment{}, ErrAlreadyEnrolled
	}

	// Debit last so a failure leaves no membership behind.
	if _, err := m.adjustLocked(input.AccountID, -room.EntryFee); err != nil {
		return Enrollment{}, err
	}

	e := Enrollment{
		ID:           uuid.New(),
		AccountID:    input.AccountID,
		RoomID:       input.RoomID,
		PlayerHandle: input.PlayerHandle,
		EnrolledAt:   time.Now(),
	}
	m.enrollments[e.ID] = e
	m.enrollOrder = append(m.enrollOrder, e.ID)
	m.enrollByPair[key] = e.ID
	if room.EntryFee > 0 {
		m.appendLedgerLocked(input.AccountID, room.EntryFee, DirectionDebit, KindEnrollment, e.ID)
	}
	return e, nil
}

func (m *Memory) IsEnrolled(ctx context.Context, accountID, roomID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.enrollByPair[enrollKey{account: accountID, room: roomID}]
	return ok, nil
}

func (m *Memory) AddHandle(ctx context.Context, accountID uuid.UUID, handle string) (PlayerHandle, error) {
	if err := ctx.Err(); err != nil {
		return PlayerHandle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[accountID]; !ok {
		return PlayerHandle{}, ErrAccountNotFound
	}
	h := PlayerHandle{ID: uuid.New(), AccountID: accountID, Handle: handle, CreatedAt: time.Now()}
	m.handles[h.ID] = h
	m.handleOrder = append(m.handleOrder, h.ID)
	return h, nil
}

func (m *Memory) ListHandles(ctx context.Context, accountID uuid.UUID) ([]PlayerHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var handles []PlayerHandle
	for _, id := range m.handleOrder {
		if h := m.handles[id]; h.AccountID == accountID {
			handles = append(handles, h)
		}
	}
	return handles, nil
}

func (m *Memory) DeleteHandle(ctx context.Context, accountID, handleID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.handles[handleID]
	if !ok || h.AccountID != accountID {
		return ErrHandleNotFound
	}
	delete(m.handles, handleID)
	for i, id := range m.handleOrder {
		if id == handleID {
			m.handleOrder = append(m.handleOrder[:i], m.handleOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) CreateWithdrawal(ctx context.Context, input CreateWithdrawalInput) (WithdrawalRequest, error) {
	if err := ctx.Err(); err != nil {
		return WithdrawalRequest{}, err
	}
	if input.Amount <= 0 {
		return WithdrawalRequest{}, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.adjustLocked(input.AccountID, -input.Amount); err != nil {
		return WithdrawalRequest{}, err
	}

	w := WithdrawalRequest{
		ID:                uuid.New(),
		AccountID:         input.AccountID,
		Amount:            input.Amount,
		PayoutDestination: input.PayoutDestination,
		Status:            StatusPending,
		RequestedAt:       time.Now(),
	}
	m.withdrawals[w.ID] = w
	m.withdrawalOrder = append(m.withdrawalOrder, w.ID)
	m.appendLedgerLocked(input.AccountID, input.Amount, DirectionDebit, KindWithdrawal, w.ID)
	return w, nil
}

func (m *Memory) GetWithdrawal(ctx context.Context, id uuid.UUID) (WithdrawalRequest, error) {
	if err := ctx.Err(); err != nil {
		return WithdrawalRequest{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.withdrawals[id]
	if !ok {
		return WithdrawalRequest{}, ErrRequestNotFound
	}
	return w, nil
}

func (m *Memory) ListWithdrawalsByAccount(ctx context.Context, accountID uuid.UUID) ([]WithdrawalRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var withdrawals []WithdrawalRequest
	for i := len(m.withdrawalOrder) - 1; i >= 0; i-- {
		if w := m.withdrawals[m.withdrawalOrder[i]]; w.AccountID == accountID {
			withdrawals = append(withdrawals, w)
		}
	}
	return withdrawals, nil
}

func (m *Memory) ListPendingWithdrawals(ctx context.Context) ([]WithdrawalRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var withdrawals []WithdrawalRequest
	for i := len(m.withdrawalOrder) - 1; i >= 0; i-- {
		if w := m.withdrawals[m.withdrawalOrder[i]]; w.Status == StatusPending {
			withdrawals = append(withdrawals, w)
		}
	}
	return withdrawals, nil
}

func (m *Memory) ApproveWithdrawal(ctx context.Context, id uuid.UUID, evidenceRef string, approvedBy uuid.UUID) (WithdrawalRequest, error) {
	if err := ctx.Err(); err != nil {
		return WithdrawalRequest{}, err
	}
	if evidenceRef == "" {
		return WithdrawalRequest{}, ErrEvidenceRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.withdrawals[id]
	if !ok {
		return WithdrawalRequest{}, ErrRequestNotFound
	}
	if w.Status != StatusPending {
		return WithdrawalRequest{}, ErrInvalidState
	}

	now := time.Now()
	admin := approvedBy
	w.Status = StatusApproved
	w.EvidenceRef = &evidenceRef
	w.ApprovedBy = &admin
	w.ProcessedAt = &now
	m.withdrawals[id] = w
	return w, nil
}

func (m *Memory) appendLedgerLocked(accountID uuid.UUID, amount int64, direction, kind string, reference uuid.UUID) {
	m.ledger = append(m.ledger, LedgerEntry{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    amount,
		Direction: direction,
		Kind:      kind,
		Reference: reference,
		CreatedAt: time.Now(),
	})
}
