package roulette

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayers(t *testing.T, ids ...string) *PlayerLedger {
	t.Helper()
	l := NewPlayerLedger()
	for _, id := range ids {
		require.NoError(t, l.Add(Player{ID: id, DisplayName: "name-" + id, Balance: 10000}))
	}
	return l
}

func TestPlayerLedgerDebitCredit(t *testing.T) {
	l := newTestPlayers(t, "p1")

	p, err := l.Debit("p1", 400)
	require.NoError(t, err)
	assert.Equal(t, 9600, p.Balance)

	_, err = l.Debit("p1", 9601)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = l.Debit("p1", 0)
	assert.ErrorIs(t, err, ErrInvalidWager)

	_, err = l.Debit("nobody", 10)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	p, err = l.Credit("p1", 400)
	require.NoError(t, err)
	assert.Equal(t, 10000, p.Balance)

	_, err = l.Credit("p1", -1)
	assert.Error(t, err)
	require.NoError(t, l.Check())
}

func TestPlayerLedgerDebitEntireBalance(t *testing.T) {
	l := newTestPlayers(t, "p1")
	p, err := l.Debit("p1", 10000)
	require.NoError(t, err)
	assert.Zero(t, p.Balance)
	require.NoError(t, l.Check())
}

func TestPlayerLedgerAddRemove(t *testing.T) {
	l := newTestPlayers(t, "a", "b", "c")

	assert.Error(t, l.Add(Player{ID: "a"}))
	assert.ErrorIs(t, l.Add(Player{ID: "d", Balance: -1}), ErrNegativeBalance)

	removed, ok := l.Remove("b")
	require.True(t, ok)
	assert.Equal(t, "b", removed.ID)
	_, ok = l.Remove("b")
	assert.False(t, ok)

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, "c", snapshot[1].ID)
	assert.Equal(t, 20000, l.TotalBalance())
}

func TestPlayerLedgerRecordResult(t *testing.T) {
	l := newTestPlayers(t, "p1")
	require.NoError(t, l.RecordResult("p1", 100, 3600))
	require.NoError(t, l.RecordResult("p1", 50, 0))

	p, _ := l.Get("p1")
	assert.Equal(t, 3500, p.TotalWon)
	assert.Equal(t, 50, p.TotalLost)
	assert.ErrorIs(t, l.RecordResult("nobody", 1, 0), ErrUnknownPlayer)
}

func TestPlayerLedgerCheckDetectsNegativeBalance(t *testing.T) {
	l := newTestPlayers(t, "p1")
	l.players["p1"].Balance = -5
	assert.ErrorIs(t, l.Check(), ErrNegativeBalance)
}

func TestBetLedgerMergesSameSelection(t *testing.T) {
	l := NewBetLedger()
	now := time.Now()

	first, err := l.Place("p1", Wager{Type: Straight, Numbers: []int{7}, Amount: 100}, now)
	require.NoError(t, err)
	assert.Equal(t, 100, first.Amount)

	merged, err := l.Place("p1", Wager{Type: Straight, Numbers: []int{7}, Amount: 50}, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 150, merged.Amount)
	assert.Equal(t, now, merged.PlacedAt)

	_, err = l.Place("p2", Wager{Type: Straight, Numbers: []int{7}, Amount: 25}, now)
	require.NoError(t, err)
	_, err = l.Place("p1", Wager{Type: Split, Numbers: []int{7, 8}, Amount: 10}, now)
	require.NoError(t, err)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 185, l.TotalEscrow())
	assert.Equal(t, 160, l.PlayerTotal("p1"))
}

func TestBetLedgerClearPlayer(t *testing.T) {
	l := NewBetLedger()
	now := time.Now()
	_, _ = l.Place("p1", Wager{Type: Straight, Numbers: []int{7}, Amount: 100}, now)
	_, _ = l.Place("p2", Wager{Type: Straight, Numbers: []int{7}, Amount: 30}, now)
	_, _ = l.Place("p1", Wager{Type: Split, Numbers: []int{7, 8}, Amount: 20}, now)

	refund, err := l.ClearPlayer("p1")
	require.NoError(t, err)
	assert.Equal(t, 120, refund)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, "p2", l.Bets()[0].PlayerID)

	// Placing again after a clear starts a fresh bet rather than merging.
	again, err := l.Place("p1", Wager{Type: Straight, Numbers: []int{7}, Amount: 5}, now)
	require.NoError(t, err)
	assert.Equal(t, 5, again.Amount)

	refund, err = l.ClearPlayer("nobody")
	require.NoError(t, err)
	assert.Zero(t, refund)
}

func TestBetLedgerFreeze(t *testing.T) {
	l := NewBetLedger()
	_, _ = l.Place("p1", Wager{Type: Straight, Numbers: []int{7}, Amount: 100}, time.Now())
	l.Freeze()

	_, err := l.Place("p1", Wager{Type: Straight, Numbers: []int{7}, Amount: 100}, time.Now())
	assert.ErrorIs(t, err, ErrPhaseViolation)
	_, err = l.ClearPlayer("p1")
	assert.ErrorIs(t, err, ErrPhaseViolation)
	assert.Equal(t, 100, l.TotalEscrow())

	l.Reset()
	assert.False(t, l.Frozen())
	assert.Zero(t, l.Len())
}

func TestBetLedgerReturnsCopies(t *testing.T) {
	l := NewBetLedger()
	bet, _ := l.Place("p1", Wager{Type: Split, Numbers: []int{7, 8}, Amount: 10}, time.Now())
	bet.CoveredNumbers[0] = 99

	bets := l.Bets()
	bets[0].Amount = 1000
	assert.Equal(t, []int{7, 8}, l.Bets()[0].CoveredNumbers)
	assert.Equal(t, 10, l.TotalEscrow())
}

func TestHistoryBound(t *testing.T) {
	h := NewHistory(3)
	for n := 1; n <= 5; n++ {
		h.Push(n)
	}
	assert.Equal(t, []int{5, 4, 3}, h.Numbers())
	assert.Equal(t, 3, h.Len())

	assert.Equal(t, DefaultHistorySize, NewHistory(0).limit)
	assert.Empty(t, NewHistory(2).Numbers())
}
