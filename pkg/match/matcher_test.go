package match

import (
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func bytesOf(s string) iter.Seq[byte] {
	return slices.Values([]byte(s))
}

// counted wraps seq and counts symbols pulled from it.
func counted[T any](seq iter.Seq[T], n *int) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			*n++
			if !yield(v) {
				return
			}
		}
	}
}

func TestNewEmptyPattern(t *testing.T) {
	require.PanicsWithValue(t, ErrEmptyPattern, func() { New([]byte{}) })
	require.PanicsWithValue(t, ErrEmptyPattern, func() { NewString("") })
	require.PanicsWithValue(t, ErrEmptyPattern, func() { NewCopy[int](nil) })
}

func TestMatcherAdd(t *testing.T) {
	m := NewString("hello!")
	require.Equal(t, ResultProgress, m.Add('h'))
	require.Equal(t, ResultProgress, m.Add('e'))
	require.Equal(t, ResultReset, m.Add('#'))
	require.Equal(t, 0, m.Matched())
	for _, b := range []byte("hello") {
		require.Equal(t, ResultProgress, m.Add(b))
	}
	require.Equal(t, ResultMatch, m.Add('!'))
	require.Equal(t, 6, m.Matched())
}

func TestMatcherPrefixProgress(t *testing.T) {
	testCases := []struct {
		name    string
		pattern []int
	}{
		{"single", []int{7}},
		{"pair", []int{1, 2}},
		{"repeated", []int{3, 3, 3, 3}},
		{"long", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(tc.pattern)
			for i, sym := range tc.pattern {
				r := m.Add(sym)
				if i+1 < len(tc.pattern) {
					require.Equalf(t, ResultProgress, r, "symbol[%d]", i)
				} else {
					require.Equalf(t, ResultMatch, r, "symbol[%d]", i)
				}
				require.Equal(t, i+1, m.Matched())
			}
		})
	}
}

func TestMatcherRearmAfterMatch(t *testing.T) {
	m := NewString("ab")
	require.Equal(t, ResultProgress, m.Add('a'))
	require.Equal(t, ResultMatch, m.Add('b'))
	require.Equal(t, 2, m.Matched())
	// the next symbol starts over without an explicit Reset.
	require.Equal(t, ResultProgress, m.Add('a'))
	require.Equal(t, 1, m.Matched())
	require.Equal(t, ResultMatch, m.Add('b'))
	require.Equal(t, ResultReset, m.Add('b'))
	require.Equal(t, 0, m.Matched())
}

func TestMatcherMismatchNotReexamined(t *testing.T) {
	m := NewString("ab")
	require.Equal(t, ResultProgress, m.Add('a'))
	// 'a' mismatches 'b' and is dropped instead of starting a new match.
	require.Equal(t, ResultReset, m.Add('a'))
	require.Equal(t, ResultReset, m.Add('b'))
}

func TestMatcherReset(t *testing.T) {
	input := []byte("xhelhello!hel")
	fresh := NewString("hello!")
	var want []Result
	for _, b := range input {
		want = append(want, fresh.Add(b))
	}

	for _, prefix := range []string{"", "hel", "hello!", "zz"} {
		t.Run(prefix, func(t *testing.T) {
			m := NewString("hello!")
			for _, b := range []byte(prefix) {
				m.Add(b)
			}
			m.Reset()
			require.Equal(t, 0, m.Matched())
			m.Reset()
			require.Equal(t, 0, m.Matched())
			for i, b := range input {
				require.Equalf(t, want[i], m.Add(b), "input[%d]", i)
			}
		})
	}
}

func TestMatcherSkipIn(t *testing.T) {
	testCases := []struct {
		input  string
		expect bool
		pulled int
	}{
		{"hello!", true, 6},
		{"hello! world!", true, 6},
		{"-hello!", true, 7},
		{"hello", false, 5},
		{"", false, 0},
		{"hehello!", false, 8},
	}
	m := NewString("hello!")
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			m.Reset()
			var pulled int
			require.Equal(t, tc.expect, m.SkipIn(counted(bytesOf(tc.input), &pulled)))
			require.Equal(t, tc.pulled, pulled)
		})
	}
}

func TestMatcherSkipInLeavesMatchedState(t *testing.T) {
	m := NewString("hello!")
	require.True(t, m.SkipIn(bytesOf("hello!")))
	require.Equal(t, 6, m.Matched())
	require.Equal(t, ResultProgress, m.Add('h'))
	require.Equal(t, 1, m.Matched())
}

func TestMatcherFindIn(t *testing.T) {
	testCases := []struct {
		input  string
		expect bool
	}{
		{"hello!", true},
		{"--->hello!<----", true},
		{"hello", false},
		{"", false},
		{"hello!hello!", true},
	}
	m := NewString("hello!")
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			m.Reset()
			var pulled int
			require.Equal(t, tc.expect, m.FindIn(counted(bytesOf(tc.input), &pulled)))
			require.Equal(t, len(tc.input), pulled)
		})
	}
}

func TestMatcherOverlapNotFound(t *testing.T) {
	m := NewString("aab")
	require.False(t, m.FindIn(bytesOf("aaab")))
	m.Reset()
	require.False(t, m.SkipIn(bytesOf("aaab")))
	m.Reset()
	require.True(t, m.FindIn(bytesOf("aab")))
}

func TestMatcherGenericSymbols(t *testing.T) {
	type token struct {
		kind string
		text string
	}
	pattern := []token{{"word", "AT"}, {"op", "+"}, {"word", "CREG"}}
	m := New(pattern)
	input := []token{{"op", "+"}, {"word", "AT"}, {"op", "+"}, {"word", "CREG"}, {"op", "?"}}
	require.True(t, m.FindIn(slices.Values(input)))
	require.Equal(t, ResultReset, m.Add(token{"op", "?"}))
}

func TestNewCopyOwnsPattern(t *testing.T) {
	pattern := []byte("abc")
	borrowed, owned := New(pattern), NewCopy(pattern)
	pattern[0] = 'x'
	require.Equal(t, []byte("xbc"), borrowed.Pattern())
	require.Equal(t, []byte("abc"), owned.Pattern())
	require.True(t, owned.FindIn(bytesOf("--abc")))
}

func TestResultString(t *testing.T) {
	require.Equal(t, "Reset", ResultReset.String())
	require.Equal(t, "Progress", ResultProgress.String())
	require.Equal(t, "Match", ResultMatch.String())
	require.Equal(t, "Unknown", Result(42).String())
}
