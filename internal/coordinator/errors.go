package coordinator

import (
	"errors"
	"fmt"
)

var (
	// ErrHalted is returned for every mutating command once an invariant
	// violation has stopped the table.
	ErrHalted = errors.New("coordinator: halted after invariant violation")
	// ErrStopped is returned when the event loop is not running.
	ErrStopped = errors.New("coordinator: stopped")
	// ErrResumePending rejects a resume of a player who left mid-spin and is
	// still held for settlement. The join can be retried after spinResult.
	ErrResumePending = errors.New("coordinator: resumed player not yet settled")
)

// InvariantError describes a broken ledger invariant detected after a
// mutation.
type InvariantError struct {
	Round int
	Phase Phase
	Op    string
	Err   error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in round %d (%s) after %s: %v", e.Round, e.Phase, e.Op, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
