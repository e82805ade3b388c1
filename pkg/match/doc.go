// Package match provides a constant-memory matcher detecting a fixed
// pattern in a stream of symbols fed one at a time.
package match

// The matcher never buffers input. A mismatch restarts matching from
// the next symbol; the mismatching symbol itself is not compared with
// the first pattern symbol again. As a consequence, patterns with a
// self-overlapping prefix may be missed, e.g. "aab" is not found in
// "aaab". Protocol markers used with this package (AT result codes,
// echoed commands) don't overlap themselves.
//
// A Matcher borrows its pattern: the slice passed to New must not be
// modified while the Matcher is in use. Use NewCopy when the caller
// can't guarantee that.
//
// A Matcher is not safe for concurrent use.
