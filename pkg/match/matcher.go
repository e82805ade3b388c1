package match

import (
	"errors"
	"iter"
)

// ErrEmptyPattern is the panic value of New with an empty pattern.
var ErrEmptyPattern = errors.New("empty pattern")

// Result is the outcome of feeding one symbol.
type Result int

const (
	// ResultReset indicates a mismatch, matching restarts from the next symbol.
	ResultReset Result = iota
	// ResultProgress indicates the partial match is extended.
	ResultProgress
	// ResultMatch indicates the whole pattern has been matched.
	ResultMatch
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch r {
	case ResultReset:
		return "Reset"
	case ResultProgress:
		return "Progress"
	case ResultMatch:
		return "Match"
	}
	return "Unknown"
}

// Matcher detects a pattern in a stream of symbols.
type Matcher[T comparable] struct {
	pattern []T
	matched int
}

// New creates a Matcher borrowing pattern.
// It panics if pattern is empty.
func New[T comparable](pattern []T) *Matcher[T] {
	if len(pattern) == 0 {
		panic(ErrEmptyPattern)
	}
	return &Matcher[T]{pattern: pattern}
}

// NewCopy creates a Matcher with its own copy of pattern.
func NewCopy[T comparable](pattern []T) *Matcher[T] {
	return New(append([]T(nil), pattern...))
}

// NewString creates a byte Matcher for s.
func NewString(s string) *Matcher[byte] {
	return New([]byte(s))
}

// Pattern returns the pattern.
func (m *Matcher[T]) Pattern() []T {
	return m.pattern
}

// Matched returns the number of leading pattern symbols matched so far.
// It equals len(Pattern()) right after a match.
func (m *Matcher[T]) Matched() int {
	return m.matched
}

// Reset discards any partial match.
func (m *Matcher[T]) Reset() {
	m.matched = 0
}

// Add feeds one symbol.
func (m *Matcher[T]) Add(sym T) Result {
	if m.matched >= len(m.pattern) {
		m.matched = 0
	}
	if sym != m.pattern[m.matched] {
		m.matched = 0
		return ResultReset
	}
	m.matched++
	if m.matched == len(m.pattern) {
		return ResultMatch
	}
	return ResultProgress
}

// SkipIn consumes symbols until the pattern is matched and returns true,
// or returns false when seq is exhausted. No symbol after the match is
// pulled from seq.
func (m *Matcher[T]) SkipIn(seq iter.Seq[T]) bool {
	for sym := range seq {
		if m.Add(sym) == ResultMatch {
			return true
		}
	}
	return false
}

// FindIn consumes all symbols in seq and reports whether the pattern
// was matched anywhere.
func (m *Matcher[T]) FindIn(seq iter.Seq[T]) bool {
	var found bool
	for sym := range seq {
		if m.Add(sym) == ResultMatch {
			found = true
		}
	}
	return found
}
