package coordinator

import (
	"time"

	"github.com/bluess1/Troulette/internal/roulette"
)

// Phase is the round state. It is the only source of truth for which
// mutations are legal.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseBetting   Phase = "betting"
	PhaseSpinning  Phase = "spinning"
	PhaseResolving Phase = "resolving"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// Snapshot is an immutable copy of the table state for late joiners and the
// HTTP state endpoint.
type Snapshot struct {
	Round             int               `json:"round"`
	Phase             Phase             `json:"phase"`
	Players           []roulette.Player `json:"players"`
	Bets              []roulette.Bet    `json:"bets"`
	History           []int             `json:"history"`
	LastOutcome       *roulette.Outcome `json:"lastOutcome,omitempty"`
	WindowSeconds     int               `json:"windowSeconds"`
	WindowRemainingMs int64             `json:"windowRemainingMs,omitempty"`
	StartedAt         time.Time         `json:"startedAt,omitzero"`
	Halted            string            `json:"halted,omitempty"`
}

// snapshot must only be called from the loop goroutine.
func (c *Coordinator) snapshot() Snapshot {
	s := Snapshot{
		Round:         c.round,
		Phase:         c.phase,
		Players:       c.players.Snapshot(),
		Bets:          c.bets.Bets(),
		History:       c.history.Numbers(),
		WindowSeconds: int(c.cfg.BettingWindow / time.Second),
		StartedAt:     c.roundStartedAt,
	}
	if c.lastOutcome != nil {
		o := *c.lastOutcome
		s.LastOutcome = &o
	}
	if c.phase == PhaseBetting && !c.windowEndsAt.IsZero() {
		if remaining := c.windowEndsAt.Sub(c.clock.Now()); remaining > 0 {
			s.WindowRemainingMs = remaining.Milliseconds()
		}
	}
	if err := c.Err(); err != nil {
		s.Halted = err.Error()
	}
	return s
}
