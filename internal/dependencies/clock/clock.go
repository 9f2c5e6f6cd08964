package clock

import "time"

// Clock provides the current time; swapped for a fixed clock in tests
type Clock interface {
	Now() time.Time
}

// SystemClock reports wall-clock time in UTC
type SystemClock struct{}

// New returns a SystemClock
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
