package coordinator

import (
	"time"

	"github.com/bluess1/Troulette/internal/roulette"
)

// DepartedPolicy decides what happens to a player who disconnects while their
// bets are frozen in a spinning round.
type DepartedPolicy string

const (
	// DepartedRetain keeps the player in the ledger until the round settles,
	// applies their payout and only then removes them.
	DepartedRetain DepartedPolicy = "retain"
	// DepartedForfeit removes the player at once; their frozen bets still
	// ride but any payout is discarded.
	DepartedForfeit DepartedPolicy = "forfeit"
)

// Config holds the table rules
type Config struct {
	StartingBalance int
	// BettingWindow is how long bets are accepted before an automatic spin.
	// Zero disables the timer so rounds only spin on request.
	BettingWindow   time.Duration
	SpinDuration    time.Duration
	HistorySize     int
	DepartedPolicy  DepartedPolicy
	WagerPolicy     roulette.WagerPolicy
	BroadcastClears bool
	// ReconnectGrace is how long a removed player's balance is kept for a
	// resuming join. Zero disables resuming.
	ReconnectGrace time.Duration
}

// DefaultConfig returns the table rules used when nothing is configured
func DefaultConfig() Config {
	return Config{
		StartingBalance: 10000,
		BettingWindow:   20 * time.Second,
		SpinDuration:    8 * time.Second,
		HistorySize:     roulette.DefaultHistorySize,
		DepartedPolicy:  DepartedRetain,
		WagerPolicy:     roulette.WagerPolicyStrict,
		BroadcastClears: true,
		ReconnectGrace:  5 * time.Minute,
	}
}
