package server

import (
	"errors"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/protocol"
	"github.com/bluess1/Troulette/internal/roulette"
)

// ErrorCode maps a rejection to the code sent in the error reply.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, coordinator.ErrHalted):
		return protocol.CodeHalted
	case errors.Is(err, coordinator.ErrResumePending):
		return protocol.CodeResumePending
	case errors.Is(err, roulette.ErrPhaseViolation):
		return protocol.CodePhaseViolation
	case errors.Is(err, roulette.ErrInsufficientFunds):
		return protocol.CodeInsufficientFunds
	case errors.Is(err, roulette.ErrInvalidWager):
		return protocol.CodeInvalidWager
	case errors.Is(err, roulette.ErrUnknownPlayer):
		return protocol.CodeUnknownPlayer
	case errors.Is(err, protocol.ErrMalformedMessage):
		return protocol.CodeMalformedMessage
	default:
		// Stopped coordinator, timeouts and anything unexpected.
		return protocol.CodeUnavailable
	}
}
