// Package datemath holds the day-granularity helpers used for scheduling.
package datemath

import "time"

// Clock supplies the current instant. Tests inject a FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in local time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the pinned instant.
func (c FixedClock) Now() time.Time {
	return c.T
}

// NormalizeToDay returns the start of t's calendar day in t's location.
// It is only meant for comparisons, never for values that get stored.
func NormalizeToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping the wall-clock time of day.
// A day that contains a DST transition is not 24h long, so this uses AddDate
// rather than a multiple of 24 hours.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
