package roulette

import (
	"fmt"
	"slices"
	"time"
)

// Bet is one logical wager in the current round. Repeated wagers on the same
// selection by the same player are merged into a single Bet.
type Bet struct {
	PlayerID       string    `json:"playerId"`
	WagerType      WagerType `json:"wagerType"`
	CoveredNumbers []int     `json:"coveredNumbers"`
	Amount         int       `json:"amount"`
	PlacedAt       time.Time `json:"placedAt"`
}

func (b Bet) key() string {
	return b.PlayerID + "|" + string(b.WagerType) + "|" + numbersKey(b.CoveredNumbers)
}

func (b Bet) clone() Bet {
	b.CoveredNumbers = slices.Clone(b.CoveredNumbers)
	return b
}

// BetLedger is the current round's collection of wagers. Funds are escrowed by
// the caller before Place; the ledger only tracks what is at stake.
type BetLedger struct {
	bets   []*Bet
	index  map[string]*Bet
	frozen bool
}

// NewBetLedger creates an empty, open ledger
func NewBetLedger() *BetLedger {
	return &BetLedger{index: make(map[string]*Bet)}
}

// Place adds a normalized wager for playerID, merging it into an existing bet
// on the same selection. It returns the resulting (possibly merged) bet.
func (l *BetLedger) Place(playerID string, w Wager, at time.Time) (Bet, error) {
	if l.frozen {
		return Bet{}, fmt.Errorf("%w: bets are frozen", ErrPhaseViolation)
	}
	if w.Amount <= 0 || len(w.Numbers) == 0 {
		return Bet{}, fmt.Errorf("%w: empty wager", ErrInvalidWager)
	}

	candidate := Bet{
		PlayerID:       playerID,
		WagerType:      w.Type,
		CoveredNumbers: slices.Clone(w.Numbers),
		Amount:         w.Amount,
		PlacedAt:       at,
	}
	key := candidate.key()
	if existing, ok := l.index[key]; ok {
		existing.Amount += w.Amount
		return existing.clone(), nil
	}

	l.bets = append(l.bets, &candidate)
	l.index[key] = &candidate
	return candidate.clone(), nil
}

// ClearPlayer removes all of playerID's bets and returns the total stake that
// must be refunded.
func (l *BetLedger) ClearPlayer(playerID string) (int, error) {
	if l.frozen {
		return 0, fmt.Errorf("%w: bets are frozen", ErrPhaseViolation)
	}
	refund := 0
	l.bets = slices.DeleteFunc(l.bets, func(b *Bet) bool {
		if b.PlayerID != playerID {
			return false
		}
		refund += b.Amount
		delete(l.index, b.key())
		return true
	})
	return refund, nil
}

// Freeze stops the ledger from accepting or refunding bets until Reset.
func (l *BetLedger) Freeze() {
	l.frozen = true
}

// Frozen reports whether the ledger is frozen
func (l *BetLedger) Frozen() bool {
	return l.frozen
}

// Reset drops every bet and reopens the ledger.
func (l *BetLedger) Reset() {
	l.bets = nil
	l.index = make(map[string]*Bet)
	l.frozen = false
}

// Bets returns copies of the bets in placement order.
func (l *BetLedger) Bets() []Bet {
	out := make([]Bet, 0, len(l.bets))
	for _, b := range l.bets {
		out = append(out, b.clone())
	}
	return out
}

// Len returns the number of logical bets
func (l *BetLedger) Len() int {
	return len(l.bets)
}

// TotalEscrow sums the stakes of every bet.
func (l *BetLedger) TotalEscrow() int {
	total := 0
	for _, b := range l.bets {
		total += b.Amount
	}
	return total
}

// PlayerTotal sums the stakes of playerID's bets.
func (l *BetLedger) PlayerTotal(playerID string) int {
	total := 0
	for _, b := range l.bets {
		if b.PlayerID == playerID {
			total += b.Amount
		}
	}
	return total
}
