package roulette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		number int
		want   Outcome
	}{
		{0, Outcome{Number: 0, Color: Green}},
		{1, Outcome{Number: 1, Color: Red, Parity: ParityOdd, Half: HalfLow, Dozen: 1, Column: 1}},
		{2, Outcome{Number: 2, Color: Black, Parity: ParityEven, Half: HalfLow, Dozen: 1, Column: 2}},
		{18, Outcome{Number: 18, Color: Red, Parity: ParityEven, Half: HalfLow, Dozen: 2, Column: 3}},
		{19, Outcome{Number: 19, Color: Red, Parity: ParityOdd, Half: HalfHigh, Dozen: 2, Column: 1}},
		{29, Outcome{Number: 29, Color: Black, Parity: ParityOdd, Half: HalfHigh, Dozen: 3, Column: 2}},
		{36, Outcome{Number: 36, Color: Red, Parity: ParityEven, Half: HalfHigh, Dozen: 3, Column: 3}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.number), "number %d", tt.number)
	}
}

func TestColorPartition(t *testing.T) {
	red, black := 0, 0
	for n := 1; n <= MaxNumber; n++ {
		switch Classify(n).Color {
		case Red:
			red++
		case Black:
			black++
		default:
			t.Fatalf("number %d has no color", n)
		}
	}
	assert.Equal(t, 18, red)
	assert.Equal(t, 18, black)
	assert.False(t, IsRed(0))
}

func TestSeededWheelIsDeterministic(t *testing.T) {
	a := NewSeededWheel(42)
	b := NewSeededWheel(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Spin(), b.Spin(), "spin %d", i)
	}
}

func TestWheelCoversEveryPocket(t *testing.T) {
	w := NewSeededWheel(7)
	counts := make([]int, Pockets)
	const spins = Pockets * 2000
	for i := 0; i < spins; i++ {
		o := w.Spin()
		require.GreaterOrEqual(t, o.Number, MinNumber)
		require.LessOrEqual(t, o.Number, MaxNumber)
		counts[o.Number]++
	}

	// Each pocket expects 2000 hits; 30% either way is far outside noise.
	for n, c := range counts {
		assert.InDelta(t, 2000, c, 600, "pocket %d", n)
	}
}

func TestNewWheelWithoutSource(t *testing.T) {
	w := NewWheel(nil)
	o := w.Spin()
	assert.Equal(t, Classify(o.Number), o)
}
