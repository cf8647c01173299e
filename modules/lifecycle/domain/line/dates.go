package line

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// WireDateLayout is the date format exchanged with the API.
const WireDateLayout = "2006-01-02"

// NormalizeDay truncates t to midnight UTC of its calendar day.
func NormalizeDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	u := t.UTC()
	y, m, d := u.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD as well as RFC 3339 timestamps, which some
// endpoints return for date columns.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("missing date value")
	}
	if t, err := time.ParseInLocation(WireDateLayout, v, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return NormalizeDay(t), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return NormalizeDay(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid date: %s", v)
}

// ParseOptionalDate maps an absent or blank value to nil.
func ParseOptionalDate(v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := ParseDate(*v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders a date in the wire format; nil stays nil.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := NormalizeDay(*t).Format(WireDateLayout)
	return &s
}

// AddMonths adds calendar months, clamping to the last day of the target
// month (Aug 31 + 6 months = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	t = NormalizeDay(t)
	target := now.With(t).BeginningOfMonth().AddDate(0, months, 0)
	last := now.With(target).EndOfMonth().Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

// SameDay compares two optional dates by calendar day.
func SameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return NormalizeDay(*a).Equal(NormalizeDay(*b))
}

// Day is a convenience constructor for a UTC calendar date.
func Day(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
