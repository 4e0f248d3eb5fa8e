package store

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

const (
	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

const (
	KindEnrollment = "enrollment"
	KindWithdrawal = "withdrawal"
	KindGrant      = "grant"
)

type Account struct {
	ID        uuid.UUID
	Username  string
	Coins     int64
	CreatedAt time.Time
}

type Room struct {
	ID           uuid.UUID
	Title        string
	Game         string
	EntryFee     int64
	RoomCode     string
	RoomPassword string
	IsActive     bool
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
}

type Enrollment struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	RoomID       uuid.UUID
	PlayerHandle string
	EnrolledAt   time.Time
}

type PlayerHandle struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Handle    string
	CreatedAt time.Time
}

type WithdrawalRequest struct {
	ID                uuid.UUID
	AccountID         uuid.UUID
	Amount            int64
	PayoutDestination string
	Status            string
	EvidenceRef       *string
	ApprovedBy        *uuid.UUID
	RequestedAt       time.Time
	ProcessedAt       *time.Time
}

type LedgerEntry struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Amount    int64
	Direction string
	Kind      string
	Reference uuid.UUID
	CreatedAt time.Time
}

type CreateRoomInput struct {
	Title        string
	Game         string
	EntryFee     int64
	RoomCode     string
	RoomPassword string
	CreatedBy    uuid.UUID
}

type EnrollInput struct {
	AccountID    uuid.UUID
	RoomID       uuid.UUID
	PlayerHandle string
}

type CreateWithdrawalInput struct {
	AccountID         uuid.UUID
	Amount            int64
	PayoutDestination string
}
