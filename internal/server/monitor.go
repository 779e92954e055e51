package server

import "github.com/bluess1/Troulette/internal/coordinator"

// RoundMonitor receives every settled round.
type RoundMonitor interface {
	// OnRoundComplete is called after payouts are applied, before the next
	// round opens.
	OnRoundComplete(result coordinator.SpinResultEvent)
}

// NullRoundMonitor is a no-op implementation.
type NullRoundMonitor struct{}

func (NullRoundMonitor) OnRoundComplete(coordinator.SpinResultEvent) {}

// MultiRoundMonitor fan-outs results to multiple monitors.
type MultiRoundMonitor struct {
	monitors []RoundMonitor
}

// NewMultiRoundMonitor builds a composite monitor, pruning nil entries and
// returning a NullRoundMonitor when no monitors are provided.
func NewMultiRoundMonitor(monitors ...RoundMonitor) RoundMonitor {
	filtered := make([]RoundMonitor, 0, len(monitors))
	for _, monitor := range monitors {
		if monitor != nil {
			filtered = append(filtered, monitor)
		}
	}

	switch len(filtered) {
	case 0:
		return NullRoundMonitor{}
	case 1:
		return filtered[0]
	default:
		return MultiRoundMonitor{monitors: filtered}
	}
}

func (m MultiRoundMonitor) OnRoundComplete(result coordinator.SpinResultEvent) {
	for _, monitor := range m.monitors {
		monitor.OnRoundComplete(result)
	}
}
