package domain

import "time"

// Period selects transactions by calendar month and/or year. A nil
// selector matches everything on that axis; both set means logical
// AND. Out-of-range values are not validated, they simply match no
// record.
type Period struct {
	Month *int // 1-12
	Year  *int
}

// IsZero reports whether the period matches all records.
func (p Period) IsZero() bool {
	return p.Month == nil && p.Year == nil
}

// Matches reports whether the date's calendar bucket satisfies the
// period.
func (p Period) Matches(date time.Time) bool {
	month, year := Bucket(date)
	if p.Month != nil && *p.Month != month {
		return false
	}
	if p.Year != nil && *p.Year != year {
		return false
	}
	return true
}

// Bucket returns the calendar month (1-12) and year of a date. All
// bucketing in the ledger reads UTC components; dates are normalized
// to UTC midnight at the boundary so a record never shifts buckets.
func Bucket(date time.Time) (month, year int) {
	u := date.UTC()
	return int(u.Month()), u.Year()
}

// NormalizeDate truncates a timestamp to its UTC calendar date.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
