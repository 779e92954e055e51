package bot

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/bluess1/Troulette/internal/roulette"
)

// Result is what a bot learns about its own stake after a spin.
type Result struct {
	Staked int
	Won    bool
}

// Strategy picks the next wager. It returns false when the bot should sit the
// round out.
type Strategy interface {
	Name() string
	NextWager(rng *rand.Rand, balance int, last *Result) (roulette.Wager, bool)
}

// NewStrategy returns the strategy registered under name.
func NewStrategy(name string, stake int) (Strategy, error) {
	switch name {
	case "random":
		return &RandomStrategy{Stake: stake}, nil
	case "martingale":
		return &MartingaleStrategy{Base: stake, Limit: stake * 64}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

var outsideTypes = []roulette.WagerType{
	roulette.RedBet, roulette.BlackBet,
	roulette.EvenBet, roulette.OddBet,
	roulette.LowBet, roulette.HighBet,
	roulette.Dozen, roulette.Column,
}

// RandomStrategy places a flat stake on a uniformly chosen outside, dozen or
// column bet every round.
type RandomStrategy struct {
	Stake int
}

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) NextWager(rng *rand.Rand, balance int, _ *Result) (roulette.Wager, bool) {
	amount := min(s.Stake, balance)
	if amount <= 0 {
		return roulette.Wager{}, false
	}

	t := outsideTypes[rng.IntN(len(outsideTypes))]
	numbers, err := roulette.NumbersFor(t, 1+rng.IntN(3))
	if err != nil {
		return roulette.Wager{}, false
	}
	return roulette.Wager{Type: t, Numbers: numbers, Amount: amount}, true
}

// MartingaleStrategy always backs red, doubling the stake after each loss and
// resetting to Base after a win or once the doubled stake would pass Limit.
type MartingaleStrategy struct {
	Base  int
	Limit int
	next  int
}

func (s *MartingaleStrategy) Name() string { return "martingale" }

func (s *MartingaleStrategy) NextWager(_ *rand.Rand, balance int, last *Result) (roulette.Wager, bool) {
	switch {
	case s.next == 0 || last == nil || last.Staked == 0:
		if s.next == 0 {
			s.next = s.Base
		}
	case last.Won:
		s.next = s.Base
	default:
		s.next = last.Staked * 2
		if s.Limit > 0 && s.next > s.Limit {
			s.next = s.Base
		}
	}

	amount := min(s.next, balance)
	if amount <= 0 {
		return roulette.Wager{}, false
	}
	numbers, _ := roulette.NumbersFor(roulette.RedBet, 0)
	return roulette.Wager{Type: roulette.RedBet, Numbers: numbers, Amount: amount}, true
}
