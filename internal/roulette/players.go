package roulette

import (
	"fmt"
	"slices"
)

// Player is a participant's ledger entry. TotalWon accumulates net winnings
// (credit minus stake) of winning bets and TotalLost the stakes of losing
// bets.
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Balance     int    `json:"balance"`
	TotalWon    int    `json:"totalWon"`
	TotalLost   int    `json:"totalLost"`
}

// PlayerLedger maps participant ids to balances and stats. Players are kept in
// join order so snapshots are stable.
type PlayerLedger struct {
	players map[string]*Player
	order   []string
}

// NewPlayerLedger creates an empty ledger
func NewPlayerLedger() *PlayerLedger {
	return &PlayerLedger{players: make(map[string]*Player)}
}

// Add registers a new player. Balances start wherever the caller says, but
// never below zero.
func (l *PlayerLedger) Add(p Player) error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrUnknownPlayer)
	}
	if _, exists := l.players[p.ID]; exists {
		return fmt.Errorf("roulette: player %s already in ledger", p.ID)
	}
	if p.Balance < 0 {
		return fmt.Errorf("%w: player %s would start at %d", ErrNegativeBalance, p.ID, p.Balance)
	}
	l.players[p.ID] = &p
	l.order = append(l.order, p.ID)
	return nil
}

// Get returns a copy of the player's entry
func (l *PlayerLedger) Get(id string) (Player, bool) {
	p, ok := l.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Has reports whether id is in the ledger
func (l *PlayerLedger) Has(id string) bool {
	_, ok := l.players[id]
	return ok
}

// Remove deletes the player and returns their final entry.
func (l *PlayerLedger) Remove(id string) (Player, bool) {
	p, ok := l.players[id]
	if !ok {
		return Player{}, false
	}
	delete(l.players, id)
	l.order = slices.DeleteFunc(l.order, func(other string) bool { return other == id })
	return *p, true
}

// Len returns the number of players
func (l *PlayerLedger) Len() int {
	return len(l.players)
}

// Debit escrows amount from the player's balance.
func (l *PlayerLedger) Debit(id string, amount int) (Player, error) {
	p, ok := l.players[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if amount <= 0 {
		return Player{}, fmt.Errorf("%w: debit of %d", ErrInvalidWager, amount)
	}
	if p.Balance < amount {
		return Player{}, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, p.Balance, amount)
	}
	p.Balance -= amount
	return *p, nil
}

// Credit adds amount to the player's balance. A zero credit is a no-op.
func (l *PlayerLedger) Credit(id string, amount int) (Player, error) {
	p, ok := l.players[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if amount < 0 {
		return Player{}, fmt.Errorf("roulette: negative credit %d for %s", amount, id)
	}
	p.Balance += amount
	return *p, nil
}

// RecordResult updates the win/loss stats for one settled bet. It does not
// move money; the credit is applied separately.
func (l *PlayerLedger) RecordResult(id string, staked, credited int) error {
	p, ok := l.players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if credited > 0 {
		p.TotalWon += credited - staked
	} else {
		p.TotalLost += staked
	}
	return nil
}

// Snapshot returns copies of every entry in join order.
func (l *PlayerLedger) Snapshot() []Player {
	out := make([]Player, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.players[id])
	}
	return out
}

// TotalBalance sums every player's balance.
func (l *PlayerLedger) TotalBalance() int {
	total := 0
	for _, p := range l.players {
		total += p.Balance
	}
	return total
}

// Check verifies the non-negative balance invariant.
func (l *PlayerLedger) Check() error {
	for _, id := range l.order {
		if p := l.players[id]; p.Balance < 0 {
			return fmt.Errorf("%w: player %s has %d", ErrNegativeBalance, id, p.Balance)
		}
	}
	return nil
}
