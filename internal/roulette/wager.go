package roulette

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// WagerType is the bet category. It fixes the payout multiplier and, under the
// strict policy, the shape of the covered numbers.
type WagerType string

const (
	Straight WagerType = "straight"
	Split    WagerType = "split"
	Street   WagerType = "street"
	Corner   WagerType = "corner"
	Line     WagerType = "line"
	Dozen    WagerType = "dozen"
	Column   WagerType = "column"
	RedBet   WagerType = "red"
	BlackBet WagerType = "black"
	EvenBet  WagerType = "even"
	OddBet   WagerType = "odd"
	LowBet   WagerType = "low"
	HighBet  WagerType = "high"
)

// EvenMoneyMultiplier is paid on outside bets and on unknown wager types.
const EvenMoneyMultiplier = 2

var multipliers = map[WagerType]int{
	Straight: 36,
	Split:    18,
	Street:   12,
	Corner:   9,
	Line:     6,
	Dozen:    3,
	Column:   3,
	RedBet:   EvenMoneyMultiplier,
	BlackBet: EvenMoneyMultiplier,
	EvenBet:  EvenMoneyMultiplier,
	OddBet:   EvenMoneyMultiplier,
	LowBet:   EvenMoneyMultiplier,
	HighBet:  EvenMoneyMultiplier,
}

// WagerTypes lists every known wager type in payout order.
var WagerTypes = []WagerType{
	Straight, Split, Street, Corner, Line, Dozen, Column,
	RedBet, BlackBet, EvenBet, OddBet, LowBet, HighBet,
}

// String returns the wire name of the wager type
func (t WagerType) String() string {
	return string(t)
}

// Known reports whether t is in the payout table.
func (t WagerType) Known() bool {
	_, ok := multipliers[t]
	return ok
}

// Multiplier returns the total-credit multiplier for t. Unknown types fall
// back to even money; ok reports whether the type was in the table.
func (t WagerType) Multiplier() (multiplier int, ok bool) {
	m, ok := multipliers[t]
	if !ok {
		return EvenMoneyMultiplier, false
	}
	return m, true
}

// Cardinality is the number of pockets a well-formed wager of type t covers,
// or 0 for unknown types.
func (t WagerType) Cardinality() int {
	m, ok := multipliers[t]
	if !ok {
		return 0
	}
	return MaxNumber / m
}

// WagerPolicy decides what the bet ledger accepts beyond the base checks.
type WagerPolicy string

const (
	// WagerPolicyStrict rejects unknown wager types and coverage that does not
	// match a real table position for the type.
	WagerPolicyStrict WagerPolicy = "strict"
	// WagerPolicyLenient only enforces the base checks and pays unknown types
	// even money.
	WagerPolicyLenient WagerPolicy = "lenient"
)

// Wager is a participant's request to stake Amount on Numbers.
type Wager struct {
	Type    WagerType
	Numbers []int
	Amount  int
}

// Normalize validates the wager and returns a copy whose numbers are sorted
// and de-duplicated. Every failure wraps ErrInvalidWager.
func (w Wager) Normalize(policy WagerPolicy) (Wager, error) {
	if w.Amount <= 0 {
		return Wager{}, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidWager, w.Amount)
	}
	if len(w.Numbers) == 0 {
		return Wager{}, fmt.Errorf("%w: no numbers covered", ErrInvalidWager)
	}
	for _, n := range w.Numbers {
		if n < MinNumber || n > MaxNumber {
			return Wager{}, fmt.Errorf("%w: number %d outside %d-%d", ErrInvalidWager, n, MinNumber, MaxNumber)
		}
	}
	if w.Type == "" {
		return Wager{}, fmt.Errorf("%w: wager type required", ErrInvalidWager)
	}

	numbers := slices.Clone(w.Numbers)
	slices.Sort(numbers)
	numbers = slices.Compact(numbers)
	out := Wager{Type: w.Type, Numbers: numbers, Amount: w.Amount}

	if policy == WagerPolicyLenient {
		return out, nil
	}

	positions, ok := layouts[w.Type]
	if !ok {
		return Wager{}, fmt.Errorf("%w: unknown wager type %q", ErrInvalidWager, w.Type)
	}
	if _, ok := positions[numbersKey(numbers)]; !ok {
		return Wager{}, fmt.Errorf("%w: %v is not a %s position", ErrInvalidWager, numbers, w.Type)
	}
	return out, nil
}

// NumbersFor returns the canonical covered numbers for outside, dozen and
// column bets. index selects the dozen or column (1-3) and is ignored for the
// even-money types.
func NumbersFor(t WagerType, index int) ([]int, error) {
	var numbers []int
	switch t {
	case RedBet, BlackBet:
		for n := 1; n <= MaxNumber; n++ {
			if IsRed(n) == (t == RedBet) {
				numbers = append(numbers, n)
			}
		}
	case EvenBet, OddBet:
		start := 2
		if t == OddBet {
			start = 1
		}
		for n := start; n <= MaxNumber; n += 2 {
			numbers = append(numbers, n)
		}
	case LowBet, HighBet:
		start := 1
		if t == HighBet {
			start = 19
		}
		for n := start; n < start+18; n++ {
			numbers = append(numbers, n)
		}
	case Dozen:
		if index < 1 || index > 3 {
			return nil, fmt.Errorf("%w: dozen must be 1-3, got %d", ErrInvalidWager, index)
		}
		for n := (index-1)*12 + 1; n <= index*12; n++ {
			numbers = append(numbers, n)
		}
	case Column:
		if index < 1 || index > 3 {
			return nil, fmt.Errorf("%w: column must be 1-3, got %d", ErrInvalidWager, index)
		}
		for n := index; n <= MaxNumber; n += 3 {
			numbers = append(numbers, n)
		}
	default:
		return nil, fmt.Errorf("%w: %s has no canonical numbers", ErrInvalidWager, t)
	}
	return numbers, nil
}

// layouts holds every legal table position per wager type, keyed by the
// sorted covered numbers.
var layouts = buildLayouts()

func buildLayouts() map[WagerType]map[string]struct{} {
	l := make(map[WagerType]map[string]struct{}, len(multipliers))
	add := func(t WagerType, numbers ...int) {
		if l[t] == nil {
			l[t] = make(map[string]struct{})
		}
		sorted := slices.Clone(numbers)
		slices.Sort(sorted)
		l[t][numbersKey(sorted)] = struct{}{}
	}

	for n := MinNumber; n <= MaxNumber; n++ {
		add(Straight, n)
	}

	// Rows run 1-2-3, 4-5-6, ... 34-35-36; zero touches the whole first row.
	add(Split, 0, 1)
	add(Split, 0, 2)
	add(Split, 0, 3)
	add(Street, 0, 1, 2)
	add(Street, 0, 2, 3)
	add(Corner, 0, 1, 2, 3)
	for n := 1; n <= MaxNumber; n++ {
		if n%3 != 0 {
			add(Split, n, n+1)
		}
		if n+3 <= MaxNumber {
			add(Split, n, n+3)
		}
		if n%3 != 0 && n+4 <= MaxNumber {
			add(Corner, n, n+1, n+3, n+4)
		}
	}
	for row := 0; row < 12; row++ {
		first := row*3 + 1
		add(Street, first, first+1, first+2)
		if row < 11 {
			add(Line, first, first+1, first+2, first+3, first+4, first+5)
		}
	}

	for _, t := range []WagerType{RedBet, BlackBet, EvenBet, OddBet, LowBet, HighBet} {
		numbers, _ := NumbersFor(t, 0)
		add(t, numbers...)
	}
	for i := 1; i <= 3; i++ {
		dozen, _ := NumbersFor(Dozen, i)
		add(Dozen, dozen...)
		column, _ := NumbersFor(Column, i)
		add(Column, column...)
	}
	return l
}

func numbersKey(numbers []int) string {
	var b strings.Builder
	for i, n := range numbers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
