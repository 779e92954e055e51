package roulette

import "errors"

// Rejection kinds. Commands that fail with one of these leave every ledger
// untouched and are reported to the originating participant only.
var (
	ErrPhaseViolation    = errors.New("roulette: command not allowed in current phase")
	ErrInsufficientFunds = errors.New("roulette: insufficient funds")
	ErrInvalidWager      = errors.New("roulette: invalid wager")
	ErrUnknownPlayer     = errors.New("roulette: unknown player")
	ErrMalformedMessage  = errors.New("roulette: malformed message")
)

// ErrNegativeBalance marks a broken ledger invariant. It is never returned for
// a rejected command; seeing it means the ledger can no longer be trusted.
var ErrNegativeBalance = errors.New("roulette: negative balance")
