package util

import (
	"fmt"
	"time"
)

const (
	// DateFormat is the standard date format for stored records.
	DateFormat = "2006-01-02"

	// DateTimeFormat is the standard datetime format for display.
	DateTimeFormat = "2006-01-02 15:04:05"

	// ISO8601Format is the RFC3339 format used in configuration and exports.
	ISO8601Format = time.RFC3339
)

// Clock provides the current time. Services take a Clock so that alert
// evaluation can be tested against a controlled "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a controllable clock for tests.
type FixedClock struct {
	current time.Time
}

// NewFixedClock creates a clock frozen at the given time.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{current: t}
}

// Now returns the frozen time.
func (c *FixedClock) Now() time.Time {
	return c.current
}

// Advance moves the frozen time forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// SetTime sets the frozen time to a specific time.
func (c *FixedClock) SetTime(t time.Time) {
	c.current = t
}

// FormatDate formats a time as a date string.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// FormatDateTime formats a time as a datetime string.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}

// FormatISO8601 formats a time as an ISO8601/RFC3339 string.
func FormatISO8601(t time.Time) string {
	return t.Format(ISO8601Format)
}

// ParseDate parses a date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ParseDateTime parses a datetime string.
func ParseDateTime(s string) (time.Time, error) {
	return time.Parse(DateTimeFormat, s)
}

// ParseISO8601 parses an ISO8601/RFC3339 string.
func ParseISO8601(s string) (time.Time, error) {
	return time.Parse(ISO8601Format, s)
}

// DaysSince calculates the number of calendar days between two dates.
func DaysSince(from, to time.Time) int {
	// Normalize to midnight
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())

	return int(to.Sub(from).Hours() / 24)
}

// DaysUntil calculates the number of calendar days until a future date.
func DaysUntil(from, to time.Time) int {
	return DaysSince(from, to)
}

// DaysOverdue returns how many days past the deadline now is, rounding
// any partial day up. Returns 0 when the deadline has not passed.
func DaysOverdue(deadline, now time.Time) int {
	diff := now.Sub(deadline)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// DaysRemaining returns how many days are left before the deadline,
// rounding any partial day up. Returns 0 when the deadline has passed.
func DaysRemaining(deadline, now time.Time) int {
	return DaysOverdue(now, deadline)
}

// IsSameDay checks if two times are on the same calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// StartOfDay returns midnight of the given day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the given day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// RelativeTimeString returns a human-readable relative time string.
func RelativeTimeString(t time.Time, now time.Time) string {
	diff := now.Sub(t)

	if diff < 0 {
		diff = -diff
		return futureTimeString(diff)
	}

	return pastTimeString(diff)
}

func pastTimeString(diff time.Duration) string {
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	case diff < 365*24*time.Hour:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := int(diff.Hours() / 24 / 365)
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}

func futureTimeString(diff time.Duration) string {
	switch {
	case diff < time.Minute:
		return "now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "in 1 minute"
		}
		return fmt.Sprintf("in %d minutes", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "in 1 hour"
		}
		return fmt.Sprintf("in %d hours", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "tomorrow"
		}
		return fmt.Sprintf("in %d days", days)
	default:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "in 1 week"
		}
		return fmt.Sprintf("in %d weeks", weeks)
	}
}
