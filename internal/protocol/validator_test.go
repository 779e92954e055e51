package protocol

import (
	"encoding/json"
	"testing"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestDecodeValidCommands(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name      string
		raw       string
		want      Command
		requestID string
	}{
		{
			name:      "join",
			raw:       `{"type":"join","data":{"displayName":"Ann"},"requestId":"r1"}`,
			want:      JoinCommand{DisplayName: "Ann"},
			requestID: "r1",
		},
		{
			name: "join with resume",
			raw:  `{"type":"join","data":{"displayName":"Ann","resumeId":"old"}}`,
			want: JoinCommand{DisplayName: "Ann", ResumeID: "old"},
		},
		{
			name: "place bet",
			raw:  `{"type":"placeBet","data":{"wagerType":"split","coveredNumbers":[8,7],"amount":50}}`,
			want: PlaceBetCommand{Wager: roulette.Wager{Type: roulette.Split, Numbers: []int{8, 7}, Amount: 50}},
		},
		{
			name: "clear bets without data",
			raw:  `{"type":"clearBets"}`,
			want: ClearBetsCommand{},
		},
		{
			name: "spin with empty data",
			raw:  `{"type":"spin","data":{},"timestamp":"2025-01-01T00:00:00Z"}`,
			want: SpinCommand{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, requestID, err := v.Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
			assert.Equal(t, tt.want.Type(), cmd.Type())
			assert.Equal(t, tt.requestID, requestID)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"type":`},
		{"not an object", `[1,2,3]`},
		{"missing type", `{"data":{}}`},
		{"unknown type", `{"type":"cheat","data":{}}`},
		{"unexpected envelope field", `{"type":"spin","extra":1}`},
		{"join without name", `{"type":"join","data":{}}`},
		{"join with empty name", `{"type":"join","data":{"displayName":""}}`},
		{"join with long name", `{"type":"join","data":{"displayName":"abcdefghijklmnopqrstuvwxyz0123456789"}}`},
		{"bet without amount", `{"type":"placeBet","data":{"wagerType":"red","coveredNumbers":[1]}}`},
		{"bet with string amount", `{"type":"placeBet","data":{"wagerType":"red","coveredNumbers":[1],"amount":"10"}}`},
		{"bet with fractional number", `{"type":"placeBet","data":{"wagerType":"straight","coveredNumbers":[1.5],"amount":10}}`},
		{"bet with numbers as object", `{"type":"placeBet","data":{"wagerType":"straight","coveredNumbers":{"a":1},"amount":10}}`},
		{"spin with payload", `{"type":"spin","data":{"force":true}}`},
		{"data not an object", `{"type":"spin","data":"now"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := v.Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrMalformedMessage)
			assert.Nil(t, cmd)
		})
	}
}

func TestDecodeLeavesRangeChecksToCoordinator(t *testing.T) {
	v := newTestValidator(t)
	cmd, _, err := v.Decode([]byte(`{"type":"placeBet","data":{"wagerType":"straight","coveredNumbers":[40],"amount":-5}}`))
	require.NoError(t, err)

	_, err = cmd.(PlaceBetCommand).Wager.Normalize(roulette.WagerPolicyLenient)
	assert.ErrorIs(t, err, roulette.ErrInvalidWager)
}

func TestDecodeEchoesRequestIDOnRejection(t *testing.T) {
	v := newTestValidator(t)
	_, requestID, err := v.Decode([]byte(`{"type":"join","data":{},"requestId":"abc"}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
	assert.Equal(t, "abc", requestID)
}

func TestEventMessageUsesEventType(t *testing.T) {
	msg, err := EventMessage(coordinator.BettingStartedEvent{Round: 3, WindowSeconds: 20})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeBettingStarted, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())

	var data map[string]int
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, map[string]int{"round": 3, "windowSeconds": 20}, data)
}
