// AngelaMos | 2026
// clock.go

package core

import "time"

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
