package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/bluess1/Troulette/internal/statistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMonitor struct {
	calls int
	last  coordinator.SpinResultEvent
}

func (tm *testMonitor) OnRoundComplete(result coordinator.SpinResultEvent) {
	tm.calls++
	tm.last = result
}

func TestNewMultiRoundMonitor(t *testing.T) {
	m1 := &testMonitor{}
	m2 := &testMonitor{}

	monitor := NewMultiRoundMonitor(nil, m1, m2)
	monitor.OnRoundComplete(coordinator.SpinResultEvent{Round: 4})

	assert.Equal(t, 1, m1.calls)
	assert.Equal(t, 1, m2.calls)
	assert.Equal(t, 4, m1.last.Round)
	assert.Equal(t, 4, m2.last.Round)
}

func TestNewMultiRoundMonitorReturnsNullWhenEmpty(t *testing.T) {
	_, ok := NewMultiRoundMonitor(nil).(NullRoundMonitor)
	assert.True(t, ok, "expected null monitor when no monitors provided")
}

func TestNewMultiRoundMonitorReturnsMonitorWhenSingle(t *testing.T) {
	m := &testMonitor{}
	assert.Same(t, m, NewMultiRoundMonitor(m))
}

func TestDotsMonitorWraps(t *testing.T) {
	var buf bytes.Buffer
	monitor := NewDotsMonitor(&buf)
	monitor.lineWidth = 3

	for _, n := range []int{0, 1, 2, 3} {
		monitor.OnRoundComplete(coordinator.SpinResultEvent{Outcome: roulette.Classify(n)})
	}

	out := buf.String()
	assert.Equal(t, 4, strings.Count(out, dot))
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestStatsMonitor(t *testing.T) {
	monitor := NewStatsMonitor()

	monitor.OnRoundComplete(coordinator.SpinResultEvent{
		Round:   1,
		Outcome: roulette.Classify(17),
		Results: []coordinator.BetResult{
			{PlayerID: "a", WagerType: roulette.Straight, CoveredNumbers: []int{17}, Won: true, Amount: 3600, Staked: 100},
			{PlayerID: "b", WagerType: roulette.RedBet, Staked: 50},
		},
	})
	monitor.OnRoundComplete(coordinator.SpinResultEvent{Round: 2, Outcome: roulette.Classify(0)})

	require.NoError(t, monitor.Validate())
	summary := monitor.Summary()
	assert.Equal(t, 2, summary.Rounds)
	assert.Equal(t, 2, summary.Bets)
	assert.Equal(t, 150, summary.TotalStaked)
	assert.Equal(t, 3600, summary.TotalPaid)
	assert.Equal(t, 1, summary.EmptyRounds)

	file := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, monitor.WriteSummary(file))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalPaid": 3600`)
}

func TestStatsEndpoint(t *testing.T) {
	srv, err := NewServer("", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	stats := NewStatsMonitor()
	srv.SetMonitor(NewDotsMonitor(io.Discard), stats)
	srv.Broadcast(coordinator.SpinResultEvent{Round: 1, Outcome: roulette.Classify(5)})

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var summary statistics.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Rounds)
	assert.Equal(t, []int{5}, summary.HotNumbers)
}
