package protocol

import (
	"fmt"
	"sync"
	"testing"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalEnvelope(t *testing.T) {
	msg, err := EventMessage(coordinator.BettingStartedEvent{Round: 3, WindowSeconds: 20})
	require.NoError(t, err)
	msg.RequestID = "r-1"

	data, err := Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeBettingStarted, decoded.Type)
	assert.Equal(t, "r-1", decoded.RequestID)

	var ev coordinator.BettingStartedEvent
	require.NoError(t, decoded.Decode(&ev))
	assert.Equal(t, 3, ev.Round)
	assert.Equal(t, 20, ev.WindowSeconds)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = Unmarshal([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecodeWithoutData(t *testing.T) {
	msg := &Message{Type: MessageTypeSpin}
	var v struct{}
	assert.ErrorContains(t, msg.Decode(&v), "spin message has no data")
}

// TestMarshalRaceCondition checks that pooled buffers never leak into returned
// slices. Run with -race.
func TestMarshalRaceCondition(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping race condition test in short mode")
	}

	const numGoroutines = 20
	const numMessages = 100

	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			for j := range numMessages {
				msg, err := EventMessage(coordinator.BetPlacedEvent{
					Bet: roulette.Bet{
						PlayerID:       fmt.Sprintf("player-%d", id),
						WagerType:      roulette.Street,
						CoveredNumbers: []int{1, 2, 3},
						Amount:         100 + j,
					},
				})
				if !assert.NoError(t, err) {
					return
				}

				data, err := Marshal(msg)
				if !assert.NoError(t, err) {
					return
				}

				decoded, err := Unmarshal(data)
				if !assert.NoError(t, err) {
					return
				}
				var ev coordinator.BetPlacedEvent
				if !assert.NoError(t, decoded.Decode(&ev)) {
					return
				}
				assert.Equal(t, fmt.Sprintf("player-%d", id), ev.Bet.PlayerID)
				assert.Equal(t, 100+j, ev.Bet.Amount)
				assert.Len(t, ev.Bet.CoveredNumbers, 3)
			}
		}(i)
	}
	wg.Wait()
}
