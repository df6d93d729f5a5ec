package data

import "time"

// storePrecision is the finest timestamp resolution shared by the three dialects
// (Postgres timestamptz, MySQL DATETIME(6), SQLite text). Truncating before writes lets
// a job read back compare Equal to the value that was stored.
const storePrecision = time.Microsecond

// TimeProvider supplies the clock for created_at, updated_at and closed_at stamps.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

// Now returns the current UTC time at store precision.
func (RealTimeProvider) Now() time.Time {
	return time.Now().UTC().Truncate(storePrecision)
}

// FixedTimeProvider returns a settable instant, for tests.
type FixedTimeProvider struct {
	at time.Time
}

// NewFixedTimeProvider pins the clock at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{at: t.UTC().Truncate(storePrecision)}
}

// Now returns the pinned instant.
func (f *FixedTimeProvider) Now() time.Time {
	return f.at
}

// Advance moves the pinned instant forward by d.
func (f *FixedTimeProvider) Advance(d time.Duration) {
	f.at = f.at.Add(d).Truncate(storePrecision)
}
