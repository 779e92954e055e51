package roulette

import (
	rand "math/rand/v2"
)

const (
	// MinNumber and MaxNumber bound the pockets of a single-zero wheel.
	MinNumber = 0
	MaxNumber = 36

	// Pockets is the number of positions on the wheel.
	Pockets = MaxNumber - MinNumber + 1

	goldenRatio64 = 0x9e3779b97f4a7c15
)

// Color of a pocket
type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Black Color = "black"
)

// Parity of a non-zero pocket
type Parity string

const (
	ParityNone Parity = ""
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

// Half of the layout a non-zero pocket falls in
type Half string

const (
	HalfNone Half = ""
	HalfLow  Half = "low"
	HalfHigh Half = "high"
)

var redPockets = [Pockets]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// Outcome is a resolved spin with its derived classification. Zero has no
// color other than green and no parity, half, dozen or column.
type Outcome struct {
	Number int    `json:"number"`
	Color  Color  `json:"color"`
	Parity Parity `json:"parity,omitempty"`
	Half   Half   `json:"half,omitempty"`
	Dozen  int    `json:"dozen,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Classify derives the outcome classification for a pocket number.
func Classify(number int) Outcome {
	o := Outcome{Number: number, Color: Green}
	if number <= MinNumber || number > MaxNumber {
		return o
	}

	o.Color = Black
	if redPockets[number] {
		o.Color = Red
	}

	o.Parity = ParityOdd
	if number%2 == 0 {
		o.Parity = ParityEven
	}

	o.Half = HalfLow
	if number > 18 {
		o.Half = HalfHigh
	}

	o.Dozen = (number-1)/12 + 1
	o.Column = (number-1)%3 + 1
	return o
}

// IsRed reports whether number is one of the eighteen red pockets.
func IsRed(number int) bool {
	return number > MinNumber && number <= MaxNumber && redPockets[number]
}

// Wheel produces uniformly distributed outcomes. It is not safe for
// concurrent use.
type Wheel struct {
	rng *rand.Rand
}

// NewWheel creates a wheel drawing from rng. A nil rng gets a randomly
// seeded PCG source.
func NewWheel(rng *rand.Rand) *Wheel {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Wheel{rng: rng}
}

// NewSeededWheel creates a wheel whose outcome sequence is fully determined by
// seed.
func NewSeededWheel(seed int64) *Wheel {
	return NewWheel(NewRand(seed))
}

// Spin draws the next outcome.
func (w *Wheel) Spin() Outcome {
	return Classify(w.rng.IntN(Pockets))
}

// NewRand returns a *rand.Rand seeded deterministically from seed. Both PCG
// words are derived from the one value so that call sites only carry an int64.
func NewRand(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(u), splitmix(u+goldenRatio64)))
}

func splitmix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
