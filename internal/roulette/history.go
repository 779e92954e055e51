package roulette

import "slices"

// DefaultHistorySize is how many past outcomes are kept for display.
const DefaultHistorySize = 10

// History is a bounded, newest-first list of winning numbers.
type History struct {
	limit   int
	numbers []int
}

// NewHistory creates a history keeping at most limit entries. A non-positive
// limit falls back to DefaultHistorySize.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit, numbers: make([]int, 0, limit)}
}

// Push records number as the most recent outcome, dropping the oldest entry
// once the bound is exceeded.
func (h *History) Push(number int) {
	h.numbers = slices.Insert(h.numbers, 0, number)
	if len(h.numbers) > h.limit {
		h.numbers = h.numbers[:h.limit]
	}
}

// Numbers returns a copy, newest first
func (h *History) Numbers() []int {
	return slices.Clone(h.numbers)
}

// Len returns the number of recorded outcomes
func (h *History) Len() int {
	return len(h.numbers)
}
