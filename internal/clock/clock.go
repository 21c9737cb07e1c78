// Package clock provides the monotonic time source used throughout the
// orchestrator so tests can inject a fixed Clock (§4.3's determinism
// requirement: "given the same inputs and Clock.Now()...").
package clock

import "time"

// Clock abstracts time.Now for deterministic testing.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock backed by time.Now.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// Fixed is a test Clock that always returns the same instant.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.At }
