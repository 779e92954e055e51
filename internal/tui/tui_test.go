package tui

import (
	"io"
	"os"
	"testing"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/protocol"
	"github.com/bluess1/Troulette/internal/roulette"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Plain text makes rendered log entries comparable.
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeTable struct {
	id     string
	wagers []roulette.Wager
	clears int
	spins  int
}

func (f *fakeTable) PlayerID() string { return f.id }

func (f *fakeTable) PlaceBet(w roulette.Wager) (string, error) {
	f.wagers = append(f.wagers, w)
	return "req", nil
}

func (f *fakeTable) ClearBets() (string, error) {
	f.clears++
	return "req", nil
}

func (f *fakeTable) Spin() (string, error) {
	f.spins++
	return "req", nil
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}) // Quiet logger for tests
}

func newTestModel(t *testing.T) (*TUIModel, *fakeTable) {
	t.Helper()
	table := &fakeTable{id: "me"}
	return NewTUIModelWithOptions(table, 25, testLogger(), true), table
}

func serverMsg(t *testing.T, ev coordinator.Event) ServerMsg {
	t.Helper()
	msg, err := protocol.EventMessage(ev)
	require.NoError(t, err)
	return ServerMsg{Message: msg}
}

func TestTUITestMode(t *testing.T) {
	t.Run("test mode captures log entries", func(t *testing.T) {
		tui, _ := newTestModel(t)

		assert.True(t, tui.IsTestMode())
		assert.Empty(t, tui.GetCapturedLog())

		tui.AddLogEntry("Alice joined the table")
		tui.AddLogEntry("*** ROUND 1 ***")

		assert.Equal(t, []string{"Alice joined the table", "*** ROUND 1 ***"}, tui.GetCapturedLog())
	})

	t.Run("production mode does not capture logs", func(t *testing.T) {
		tui := NewTUIModel(&fakeTable{}, 25, testLogger())

		assert.False(t, tui.IsTestMode())
		tui.AddLogEntry("Some log entry")
		assert.Nil(t, tui.GetCapturedLog())
	})
}

func TestRoundRendering(t *testing.T) {
	tui, _ := newTestModel(t)

	me := roulette.Player{ID: "me", DisplayName: "Alice", Balance: 1000}
	bob := roulette.Player{ID: "bob", DisplayName: "Bob", Balance: 500}

	steps := []coordinator.Event{
		coordinator.JoinedEvent{PlayerID: "me", Player: me, Round: coordinator.Snapshot{Round: 1, Phase: coordinator.PhaseIdle, Players: []roulette.Player{me}}},
		coordinator.PlayerJoinedEvent{Player: bob},
		coordinator.BettingStartedEvent{Round: 1, WindowSeconds: 20},
		coordinator.BetPlacedEvent{
			Bet:    roulette.Bet{PlayerID: "me", WagerType: roulette.Straight, CoveredNumbers: []int{17}, Amount: 100},
			Player: roulette.Player{ID: "me", DisplayName: "Alice", Balance: 900},
		},
		coordinator.SpinStartedEvent{Round: 1, Trigger: coordinator.TriggerManual, PlayerID: "bob"},
		coordinator.SpinResultEvent{
			Round:   1,
			Outcome: roulette.Classify(17),
			Results: []coordinator.BetResult{
				{PlayerID: "me", DisplayName: "Alice", WagerType: roulette.Straight, CoveredNumbers: []int{17}, Won: true, Amount: 3600, Staked: 100},
			},
			UpdatedPlayers: []roulette.Player{{ID: "me", DisplayName: "Alice", Balance: 4500, TotalWon: 3500}},
			History:        []int{17},
		},
	}
	for _, ev := range steps {
		tui.Update(serverMsg(t, ev))
	}

	assert.Equal(t, []string{
		"Joined as Alice with $1000",
		"Bob joined the table",
		"",
		"*** ROUND 1 *** 20s to bet",
		"Alice: bets $100 on straight 17",
		"No more bets: Bob spins",
		"Ball lands on 17 (black, odd, low)",
		"  straight 17 wins $3600",
		"You are up $3500 this round",
	}, tui.GetCapturedLog())

	assert.Equal(t, 4500, tui.Balance())
	assert.Equal(t, coordinator.PhaseResolving, tui.phase)
	assert.Equal(t, []int{17}, tui.history)
	assert.Zero(t, tui.myStake)
}

func TestPlayerLeftAndCleared(t *testing.T) {
	tui, _ := newTestModel(t)

	tui.Update(serverMsg(t, coordinator.PlayerJoinedEvent{Player: roulette.Player{ID: "bob", DisplayName: "Bob", Balance: 400}}))
	tui.Update(serverMsg(t, coordinator.BetsClearedEvent{PlayerID: "bob", RefundedAmount: 100, Balance: 500}))
	require.Len(t, tui.players, 1)
	assert.Equal(t, 500, tui.players[0].Balance)

	tui.Update(serverMsg(t, coordinator.PlayerLeftEvent{PlayerID: "bob"}))
	assert.Empty(t, tui.players)

	assert.Equal(t, []string{
		"Bob joined the table",
		"Bob: clears bets, $100 refunded",
		"Bob left the table",
	}, tui.GetCapturedLog())
}

func TestErrorMessage(t *testing.T) {
	tui, _ := newTestModel(t)

	msg, err := protocol.NewMessage(protocol.MessageTypeError, protocol.ErrorData{
		Code:    protocol.CodeInsufficientFunds,
		Message: "balance 10 < 100",
	})
	require.NoError(t, err)
	tui.Update(ServerMsg{Message: msg})

	assert.Equal(t, []string{"insufficient_funds: balance 10 < 100"}, tui.GetCapturedLog())
}

func TestPromptCommands(t *testing.T) {
	tui, table := newTestModel(t)

	assert.Nil(t, tui.processCommand("/bet red"))
	assert.Nil(t, tui.processCommand("/bet dozen 2 50"))
	assert.Nil(t, tui.processCommand("/clear"))
	assert.Nil(t, tui.processCommand("/spin"))
	assert.Nil(t, tui.processCommand("/bet purple"))

	require.Len(t, table.wagers, 2)
	assert.Equal(t, roulette.RedBet, table.wagers[0].Type)
	assert.Equal(t, 25, table.wagers[0].Amount)
	assert.Equal(t, roulette.Dozen, table.wagers[1].Type)
	assert.Equal(t, 50, table.wagers[1].Amount)
	assert.Equal(t, 1, table.clears)
	assert.Equal(t, 1, table.spins)
	assert.Equal(t, []string{`unknown bet type "purple"`}, tui.GetCapturedLog())

	assert.NotNil(t, tui.processCommand("/quit"))
	assert.True(t, tui.quitting)
}

func TestDisconnectedQuits(t *testing.T) {
	tui, _ := newTestModel(t)

	_, cmd := tui.Update(DisconnectedMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, tui.quitting)
	assert.Empty(t, tui.View())
}

func TestViewRendersSidebar(t *testing.T) {
	tui, _ := newTestModel(t)
	assert.Equal(t, "Loading...", tui.View())

	tui.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	tui.Update(serverMsg(t, coordinator.JoinedEvent{
		PlayerID: "me",
		Player:   roulette.Player{ID: "me", DisplayName: "Alice", Balance: 750},
		Round: coordinator.Snapshot{
			Round:   3,
			Phase:   coordinator.PhaseBetting,
			Players: []roulette.Player{{ID: "me", DisplayName: "Alice", Balance: 750}},
			History: []int{0, 32},
		},
	}))

	view := tui.View()
	assert.Contains(t, view, "Round 3")
	assert.Contains(t, view, "betting")
	assert.Contains(t, view, "Balance: $750")
	assert.Contains(t, view, "* Alice: $750")
	assert.Contains(t, view, "0 32")
}

func TestDescribeBet(t *testing.T) {
	tests := []struct {
		wagerType roulette.WagerType
		numbers   []int
		want      string
	}{
		{roulette.RedBet, nil, "red"},
		{roulette.Split, []int{1, 2}, "split 1,2"},
		{roulette.Dozen, []int{13, 14, 15}, "dozen 2"},
		{roulette.Column, []int{3, 6, 9}, "column 3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, describeBet(tt.wagerType, tt.numbers))
		})
	}
}
