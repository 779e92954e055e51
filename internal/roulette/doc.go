// Package roulette implements the single-zero roulette domain used by the
// round coordinator: the wheel, wager types and their payout table, the
// player and bet ledgers, and the bounded outcome history.
//
// Nothing in this package is safe for concurrent use. The coordinator owns
// every ledger and mutates it from a single goroutine; other components only
// ever see the value copies returned by the Snapshot and Bets methods.
//
// # Basic Usage
//
//	players := roulette.NewPlayerLedger()
//	_ = players.Add(roulette.Player{ID: "p1", DisplayName: "Ann", Balance: 10000})
//
//	wager, _ := roulette.Wager{Type: roulette.Straight, Numbers: []int{7}, Amount: 100}.
//		Normalize(roulette.WagerPolicyStrict)
//	bets := roulette.NewBetLedger()
//	_, _ = players.Debit("p1", wager.Amount)
//	bet, _ := bets.Place("p1", wager, time.Now())
//
//	outcome := roulette.NewSeededWheel(42).Spin()
//	won, credit := roulette.Payout(bet, outcome)
//
// # Deterministic Testing
//
// NewSeededWheel derives its PCG state from a single int64 so a seed logged
// by the server reproduces the exact outcome sequence.
package roulette
