package timeutil

import "time"

// Clock returns the current time. Services accept one so tests can pin time.
type Clock func() time.Time

// Now returns the current time in UTC.
// Always use this instead of time.Now() to ensure timezone consistency.
func Now() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock that always reports t in UTC
func Fixed(t time.Time) Clock {
	t = t.UTC()
	return func() time.Time { return t }
}
