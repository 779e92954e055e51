package server

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/charmbracelet/lipgloss"
)

const dot = "●"

var dotStyles = map[roulette.Color]lipgloss.Style{
	roulette.Red:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	roulette.Black: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	roulette.Green: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
}

// DotsMonitor implements RoundMonitor for minimal progress output: one dot per
// settled round, colored like the winning pocket.
type DotsMonitor struct {
	writer    io.Writer
	mu        sync.Mutex
	dotCount  int
	lineWidth int // Wrap after this many dots
}

// NewDotsMonitor creates a new dots monitor.
func NewDotsMonitor(writer io.Writer) *DotsMonitor {
	if writer == nil {
		writer = os.Stdout
	}

	return &DotsMonitor{
		writer:    writer,
		lineWidth: 80,
	}
}

// OnRoundComplete implements RoundMonitor.
func (d *DotsMonitor) OnRoundComplete(result coordinator.SpinResultEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprint(d.writer, dotStyles[result.Outcome.Color].Render(dot))

	d.dotCount++
	if d.dotCount >= d.lineWidth {
		fmt.Fprintln(d.writer)
		d.dotCount = 0
	}
}
