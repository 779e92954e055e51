package roulette

import "slices"

// Payout settles a single bet against an outcome. The returned amount is the
// total credited to the player (stake plus winnings) and replaces the escrowed
// stake; a losing bet credits nothing.
func Payout(bet Bet, outcome Outcome) (won bool, amount int) {
	if !slices.Contains(bet.CoveredNumbers, outcome.Number) {
		return false, 0
	}
	multiplier, _ := bet.WagerType.Multiplier()
	return true, bet.Amount * multiplier
}
