package store

import "errors"

var (
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrAlreadyEnrolled   = errors.New("already enrolled")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomInactive      = errors.New("room inactive")
	ErrRequestNotFound   = errors.New("withdrawal request not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account exists")
	ErrHandleNotFound    = errors.New("handle not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrEvidenceRequired  = errors.New("evidence reference required")
)
