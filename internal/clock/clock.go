package clock

import (
	"context"
	"time"
)

// Clock is the single source of "now" for the application. Anything that
// makes a time-dependent decision (late-checkout detection, audit
// timestamps) takes a Clock so tests can pin the wall time.
type Clock interface {
	Now(ctx context.Context) time.Time
}

// DateOf truncates t to a calendar date at UTC midnight. Check-in and
// check-out are calendar dates, not timestamps.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar date (UTC).
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
