package clock

import "time"

// Clocker reports the current time.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock in UTC, so stored expiries and rendered
// timestamps never depend on the host zone.
type System struct{}

// New returns the system clock.
func New() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
