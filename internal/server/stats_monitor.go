package server

import (
	"os"
	"sync"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/fileutil"
	"github.com/bluess1/Troulette/internal/statistics"
)

// StatsMonitor implements RoundMonitor by folding every settled round into
// table statistics.
type StatsMonitor struct {
	mu    sync.Mutex
	stats statistics.Statistics
}

// NewStatsMonitor creates an empty stats monitor.
func NewStatsMonitor() *StatsMonitor {
	return &StatsMonitor{}
}

// OnRoundComplete implements RoundMonitor.
func (m *StatsMonitor) OnRoundComplete(result coordinator.SpinResultEvent) {
	round := statistics.RoundResult{
		Number: result.Outcome.Number,
		Bets:   len(result.Results),
	}
	for _, r := range result.Results {
		round.Staked += r.Staked
		round.Paid += r.Amount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Add(round)
}

// Summary returns a digest of the rounds seen so far.
func (m *StatsMonitor) Summary() statistics.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.Summary()
}

// Validate checks the accumulated totals against each other.
func (m *StatsMonitor) Validate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.Validate()
}

// WriteSummary writes the summary to filename as JSON.
func (m *StatsMonitor) WriteSummary(filename string) error {
	return fileutil.WriteJSONAtomic(filename, m.Summary(), os.FileMode(0644))
}
