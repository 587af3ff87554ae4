package clock

import "time"

// Clock abstracts time source for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Default is the global clock. Overwrite in tests via Set.
var Default Clock = systemClock{}

// Now returns current time from the default clock.
func Now() time.Time { return Default.Now() }

// Set replaces the default clock and returns a restore function.
func Set(c Clock) (restore func()) {
	prev := Default
	Default = c
	return func() { Default = prev }
}

// UTCNow returns the current time in UTC via the default clock.
func UTCNow() time.Time { return Now().UTC() }

// NowUTCFormatted formats current time in UTC with the given layout.
func NowUTCFormatted(layout string) string { return UTCNow().Format(layout) }
