package tui

import (
	"testing"

	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr string
	}{
		{"spin", "/spin", Command{Kind: CmdSpin}, ""},
		{"spin alias without slash", "s", Command{Kind: CmdSpin}, ""},
		{"clear", "/clear", Command{Kind: CmdClear}, ""},
		{"quit", "exit", Command{Kind: CmdQuit}, ""},
		{"help", "?", Command{Kind: CmdHelp}, ""},
		{
			"even money with default stake", "/bet red",
			Command{Kind: CmdBet, Wager: roulette.Wager{Type: roulette.RedBet, Numbers: mustNumbers(t, roulette.RedBet, 0), Amount: 10}}, "",
		},
		{
			"dollar amount", "/BET High $75",
			Command{Kind: CmdBet, Wager: roulette.Wager{Type: roulette.HighBet, Numbers: mustNumbers(t, roulette.HighBet, 0), Amount: 75}}, "",
		},
		{
			"column", "b column 3 20",
			Command{Kind: CmdBet, Wager: roulette.Wager{Type: roulette.Column, Numbers: mustNumbers(t, roulette.Column, 3), Amount: 20}}, "",
		},
		{
			"corner", "/bet corner 1,2,4,5 5",
			Command{Kind: CmdBet, Wager: roulette.Wager{Type: roulette.Corner, Numbers: []int{1, 2, 4, 5}, Amount: 5}}, "",
		},
		{"empty", "   ", Command{}, "empty command"},
		{"unknown command", "/fold", Command{}, "unknown command"},
		{"bet without type", "/bet", Command{}, "usage"},
		{"dozen without index", "/bet dozen", Command{}, "usage"},
		{"dozen out of range", "/bet dozen 4", Command{}, "dozen"},
		{"bad number", "/bet split 1,x", Command{}, "invalid number"},
		{"zero amount", "/bet odd 0", Command{}, "invalid amount"},
		{"too many args", "/bet odd 5 6", Command{}, "too many arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.input, 10)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustNumbers(t *testing.T, wt roulette.WagerType, index int) []int {
	t.Helper()
	numbers, err := roulette.NumbersFor(wt, index)
	require.NoError(t, err)
	return numbers
}
