// Package civil converts instants to venue-local calendar dates.
//
// The one-reservation-per-day rule is a civil concept: a booking made at
// 23:58 Manila time belongs to that Manila date even though its UTC
// representation already reads the next day. Every "what day is it" decision
// in the booking engine goes through this package with an explicit location.
package civil

import "time"

// DateLayout is the canonical format for civil date strings.
const DateLayout = "2006-01-02"

// DefaultZone is the venue timezone used when configuration does not
// override it.
const DefaultZone = "Asia/Manila"

// DateOf returns the calendar date of t as observed in loc, formatted as
// "YYYY-MM-DD". It is a pure function of its inputs.
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a "YYYY-MM-DD" string into the midnight instant of that
// date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}
