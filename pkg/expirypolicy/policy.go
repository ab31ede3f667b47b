// Decides whether a certificate's expiration warrants a notification today
package expirypolicy

import (
	"time"
)

type Kind int

const (
	NoAction Kind = iota
	Expired
	ExpiringToday
	ExpiringIn
)

func (k Kind) String() string {
	switch k {
	case NoAction:
		return "ok"
	case Expired:
		return "expired"
	case ExpiringToday:
		return "expiring-today"
	case ExpiringIn:
		return "expiring"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind Kind
	Days int // Expired: days overdue, ExpiringIn: days remaining. otherwise 0
}

func (e Event) ShouldNotify() bool {
	return e.Kind != NoAction
}

// pre-expiry reminders fire only when days left equals a deadline exactly, so each
// deadline fires once per certificate as long as we're run daily. expiration day and
// anything after it always fires.
func Evaluate(expiration time.Time, today time.Time, deadlines Deadlines) Event {
	delta := DaysUntil(expiration, today)

	switch {
	case delta < 0:
		return Event{Kind: Expired, Days: -delta}
	case delta == 0:
		return Event{Kind: ExpiringToday}
	}

	for _, deadline := range deadlines.days {
		if delta == deadline {
			return Event{Kind: ExpiringIn, Days: delta}
		}
	}

	return Event{Kind: NoAction}
}

// difference in calendar days. both timestamps are first collapsed to their date in
// their own location, so time of day and DST transitions don't skew the result.
// counted in whole Unix days, as time.Duration tops out at ~292 years and NotAfter
// can be 9999-12-31 ("no well-defined expiration")
func DaysUntil(expiration time.Time, today time.Time) int {
	return int(unixDay(expiration) - unixDay(today))
}

func unixDay(ts time.Time) int64 {
	return dateOf(ts).Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

func dateOf(ts time.Time) time.Time {
	year, month, day := ts.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
