// Package statistics accumulates table results across settled rounds.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/bluess1/Troulette/internal/roulette"
)

// RoundResult is the table-wide settlement of one round
type RoundResult struct {
	Number int // Winning pocket
	Bets   int // Bets settled
	Staked int // Total escrowed
	Paid   int // Total returned to players, stakes included
}

// Statistics tracks the house result per round and pocket frequencies
type Statistics struct {
	Rounds  int
	SumNet  float64
	SumNet2 float64   // Sum of squares for variance calculation
	Values  []float64 // House net per round, for median/percentile

	Bets        int
	TotalStaked int
	TotalPaid   int
	EmptyRounds int // Rounds spun with no bets
	MaxPaid     int // Largest total payout of a single round

	Pockets [roulette.Pockets]int
}

// Add incorporates a settled round
func (s *Statistics) Add(result RoundResult) {
	net := float64(result.Staked - result.Paid)
	s.Rounds++
	s.SumNet += net
	s.SumNet2 += net * net
	s.Values = append(s.Values, net)

	s.Bets += result.Bets
	s.TotalStaked += result.Staked
	s.TotalPaid += result.Paid
	if result.Bets == 0 {
		s.EmptyRounds++
	}
	s.MaxPaid = max(s.MaxPaid, result.Paid)

	if result.Number >= roulette.MinNumber && result.Number <= roulette.MaxNumber {
		s.Pockets[result.Number]++
	}
}

// Mean returns the house net per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumNet / float64(s.Rounds)
}

// Variance returns the sample variance of the house net
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// HouseEdge is the house net as a fraction of everything staked. A single
// zero wheel converges on 1/37.
func (s *Statistics) HouseEdge() float64 {
	if s.TotalStaked == 0 {
		return 0
	}
	return float64(s.TotalStaked-s.TotalPaid) / float64(s.TotalStaked)
}

// Median returns the median house net per round
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// HotNumbers returns up to n pockets that came up most often, most frequent
// first and lowest number first on ties.
func (s *Statistics) HotNumbers(n int) []int {
	numbers := make([]int, 0, roulette.Pockets)
	for number, count := range s.Pockets {
		if count > 0 {
			numbers = append(numbers, number)
		}
	}
	sort.SliceStable(numbers, func(i, j int) bool {
		return s.Pockets[numbers[i]] > s.Pockets[numbers[j]]
	})
	if len(numbers) > n {
		numbers = numbers[:n]
	}
	return numbers
}

// IsLedgerBalanced checks that the per-round values add up to the totals
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.SumNet-float64(s.TotalStaked-s.TotalPaid)) <= 1e-6
}

// Validate performs consistency checks on the accumulated data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: net=%.0f, staked=%d, paid=%d", s.SumNet, s.TotalStaked, s.TotalPaid)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds (%d)", len(s.Values), s.Rounds)
	}
	spins := 0
	for _, count := range s.Pockets {
		spins += count
	}
	if spins != s.Rounds {
		return fmt.Errorf("pocket counts total (%d) does not match rounds (%d)", spins, s.Rounds)
	}
	return nil
}

// Summary is a JSON friendly digest of the statistics
type Summary struct {
	Rounds      int     `json:"rounds"`
	Bets        int     `json:"bets"`
	TotalStaked int     `json:"totalStaked"`
	TotalPaid   int     `json:"totalPaid"`
	HouseNet    int     `json:"houseNet"`
	HouseEdge   float64 `json:"houseEdge"`
	MeanNet     float64 `json:"meanNet"`
	StdDev      float64 `json:"stdDev"`
	CI95Low     float64 `json:"ci95Low"`
	CI95High    float64 `json:"ci95High"`
	MaxPaid     int     `json:"maxPaid"`
	EmptyRounds int     `json:"emptyRounds"`
	HotNumbers  []int   `json:"hotNumbers"`
}

// Summary digests the statistics
func (s *Statistics) Summary() Summary {
	low, high := s.ConfidenceInterval95()
	return Summary{
		Rounds:      s.Rounds,
		Bets:        s.Bets,
		TotalStaked: s.TotalStaked,
		TotalPaid:   s.TotalPaid,
		HouseNet:    s.TotalStaked - s.TotalPaid,
		HouseEdge:   s.HouseEdge(),
		MeanNet:     s.Mean(),
		StdDev:      s.StdDev(),
		CI95Low:     low,
		CI95High:    high,
		MaxPaid:     s.MaxPaid,
		EmptyRounds: s.EmptyRounds,
		HotNumbers:  s.HotNumbers(5),
	}
}
