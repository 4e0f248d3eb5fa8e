package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/sudo-init-do/arenahub/internal/store"
)

var adminID = uuid.MustParse("00000000-0000-0000-0000-00000000adc1")

func seedAccount(t *testing.T, m *store.Memory, coins int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	if _, err := m.CreateAccount(ctx, id, "player"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if coins > 0 {
		if _, err := m.GrantCoins(ctx, id, coins, adminID); err != nil {
			t.Fatalf("grant coins: %v", err)
		}
	}
	return id
}

func seedRoom(t *testing.T, m *store.Memory, fee int64) store.Room {
	t.Helper()
	room, err := m.CreateRoom(context.Background(), store.CreateRoomInput{
		Title:        "Friday Scrims",
		Game:         "PUBG",
		EntryFee:     fee,
		RoomCode:     "ROOM-42",
		RoomPassword: "hunter2",
		CreatedBy:    adminID,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func balance(t *testing.T, m *store.Memory, id uuid.UUID) int64 {
	t.Helper()
	a, err := m.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.Coins
}

func TestAdjustConcurrentNeverNegative(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 1000)

	const workers = 50
	const debit = 100

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Adjust(ctx, account, -debit)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrInsufficientCoins):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 10 {
		t.Fatalf("expected 10 successful debits, got %d", succeeded)
	}
	if rejected != 40 {
		t.Fatalf("expected 40 rejections, got %d", rejected)
	}
	if got := balance(t, m, account); got != 0 {
		t.Fatalf("expected balance 0, got %d", got)
	}
}

func TestAdjustUnknownAccount(t *testing.T) {
	m := store.NewMemory()
	if _, err := m.Adjust(context.Background(), uuid.New(), 10); !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestConservation(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 0)

	if _, err := m.GrantCoins(ctx, account, 700, adminID); err != nil {
		t.Fatalf("grant: %v", err)
	}
	room := seedRoom(t, m, 200)
	if _, err := m.Enroll(ctx, store.EnrollInput{AccountID: account, RoomID: room.ID, PlayerHandle: "ace"}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := m.CreateWithdrawal(ctx, store.CreateWithdrawalInput{AccountID: account, Amount: 300, PayoutDestination: "pay@handle"}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	entries, err := m.LedgerEntries(ctx, account)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	var debits, credits int64
	for _, e := range entries {
		switch e.Direction {
		case store.DirectionDebit:
			debits += e.Amount
		case store.DirectionCredit:
			credits += e.Amount
		default:
			t.Fatalf("unknown direction %q", e.Direction)
		}
	}

	// Initial balance is zero, so credits minus debits must equal the
	// live balance exactly.
	if got := balance(t, m, account); credits-debits != got {
		t.Fatalf("ledger out of balance: credits=%d debits=%d balance=%d", credits, debits, got)
	}
	if got := balance(t, m, account); got != 200 {
		t.Fatalf("expected balance 200, got %d", got)
	}
}

func TestEnrollScenario(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 500)
	room := seedRoom(t, m, 200)

	e, err := m.Enroll(ctx, store.EnrollInput{AccountID: account, RoomID: room.ID, PlayerHandle: "ace"})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if e.PlayerHandle != "ace" {
		t.Fatalf("expected handle ace, got %q", e.PlayerHandle)
	}
	if got := balance(t, m, account); got != 300 {
		t.Fatalf("expected balance 300, got %d", got)
	}

	enrolled, err := m.IsEnrolled(ctx, account, room.ID)
	if err != nil || !enrolled {
		t.Fatalf("expected enrollment to exist, got %v %v", enrolled, err)
	}

	members, err := m.ListRoomEnrollments(ctx, room.ID)
	if err != nil {
		t.Fatalf("list enrollments: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 enrollment, got %d", len(members))
	}
}

func TestEnrollDuplicateConcurrent(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 500)
	room := seedRoom(t, m, 200)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Enroll(ctx, store.EnrollInput{AccountID: account, RoomID: room.ID, PlayerHandle: "ace"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, duplicate int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrAlreadyEnrolled):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || duplicate != attempts-1 {
		t.Fatalf("expected exactly one enrollment, got %d ok / %d duplicate", succeeded, duplicate)
	}

	// Charged exactly once.
	if got := balance(t, m, account); got != 300 {
		t.Fatalf("expected balance 300, got %d", got)
	}
	members, err := m.ListRoomEnrollments(ctx, room.ID)
	if err != nil {
		t.Fatalf("list enrollments: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 enrollment record, got %d", len(members))
	}
}

func TestEnrollInsufficientCoins(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 100)
	room := seedRoom(t, m, 200)

	_, err := m.Enroll(ctx, store.EnrollInput{AccountID: account, RoomID: room.ID, PlayerHandle: "ace"})
	if !errors.Is(err, store.ErrInsufficientCoins) {
		t.Fatalf("expected ErrInsufficientCoins, got %v", err)
	}
	if got := balance(t, m, account); got != 100 {
		t.Fatalf("balance changed on failed enrollment: %d", got)
	}
	members, err := m.ListRoomEnrollments(ctx, room.ID)
	if err != nil {
		t.Fatalf("list enrollments: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected no enrollment records, got %d", len(members))
	}
}

func TestEnrollRoomChecks(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 500)

	_, err := m.Enroll(ctx, store.EnrollInput{AccountID: account, RoomID: uuid.New(), PlayerHandle: "ace"})
	if !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 300)

	created, err := m.CreateWithdrawal(ctx, store.CreateWithdrawalInput{
		AccountID:         account,
		Amount:            300,
		PayoutDestination: "pay@handle",
	})
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if created.Status != store.StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
	if created.EvidenceRef != nil || created.ProcessedAt != nil {
		t.Fatal("pending request must have no evidence or processed timestamp")
	}
	if got := balance(t, m, account); got != 0 {
		t.Fatalf("expected balance 0 after request, got %d", got)
	}

	approved, err := m.ApproveWithdrawal(ctx, created.ID, "evidence-url", adminID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != store.StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.EvidenceRef == nil || *approved.EvidenceRef != "evidence-url" {
		t.Fatalf("evidence not recorded: %v", approved.EvidenceRef)
	}
	if approved.ProcessedAt == nil {
		t.Fatal("processed timestamp not set")
	}
	// Approval must not move coins again.
	if got := balance(t, m, account); got != 0 {
		t.Fatalf("expected balance 0 after approval, got %d", got)
	}

	// Second approval signals the no-op instead of silently succeeding.
	if _, err := m.ApproveWithdrawal(ctx, created.ID, "other-evidence", adminID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	after, err := m.GetWithdrawal(ctx, created.ID)
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if *after.EvidenceRef != "evidence-url" {
		t.Fatalf("evidence overwritten by rejected re-approval: %q", *after.EvidenceRef)
	}
}

func TestWithdrawalInsufficientCoins(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 100)

	_, err := m.CreateWithdrawal(ctx, store.CreateWithdrawalInput{
		AccountID:         account,
		Amount:            150,
		PayoutDestination: "pay@handle",
	})
	if !errors.Is(err, store.ErrInsufficientCoins) {
		t.Fatalf("expected ErrInsufficientCoins, got %v", err)
	}
	if got := balance(t, m, account); got != 100 {
		t.Fatalf("balance changed on rejected request: %d", got)
	}
	history, err := m.ListWithdrawalsByAccount(ctx, account)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no requests, got %d", len(history))
	}
}

func TestApproveValidation(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if _, err := m.ApproveWithdrawal(ctx, uuid.New(), "", adminID); !errors.Is(err, store.ErrEvidenceRequired) {
		t.Fatalf("expected ErrEvidenceRequired, got %v", err)
	}
	if _, err := m.ApproveWithdrawal(ctx, uuid.New(), "evidence-url", adminID); !errors.Is(err, store.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestGrantValidation(t *testing.T) {
	m := store.NewMemory()
	account := seedAccount(t, m, 0)

	if _, err := m.GrantCoins(context.Background(), account, 0, adminID); !errors.Is(err, store.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := m.GrantCoins(context.Background(), account, -5, adminID); !errors.Is(err, store.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestHandles(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	account := seedAccount(t, m, 0)

	h, err := m.AddHandle(ctx, account, "ace-main")
	if err != nil {
		t.Fatalf("add handle: %v", err)
	}
	handles, err := m.ListHandles(ctx, account)
	if err != nil || len(handles) != 1 {
		t.Fatalf("expected one handle, got %d (%v)", len(handles), err)
	}

	other := seedAccount(t, m, 0)
	if err := m.DeleteHandle(ctx, other, h.ID); !errors.Is(err, store.ErrHandleNotFound) {
		t.Fatalf("expected ErrHandleNotFound deleting someone else's handle, got %v", err)
	}
	if err := m.DeleteHandle(ctx, account, h.ID); err != nil {
		t.Fatalf("delete handle: %v", err)
	}
	handles, err = m.ListHandles(ctx, account)
	if err != nil || len(handles) != 0 {
		t.Fatalf("expected no handles, got %d (%v)", len(handles), err)
	}
}
