package auth

import "time"

// Clock returns the current time. Token issuance and validation share the
// same clock so tests can move it around expiry boundaries.
type Clock func() time.Time

// UTCNow is the default clock
func UTCNow() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a clock frozen at t
func FixedClock(t time.Time) Clock {
	return func() time.Time {
		return t.UTC()
	}
}
