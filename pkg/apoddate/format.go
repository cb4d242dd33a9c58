package apoddate

import (
	"fmt"
	"strconv"
	"time"

	errs "apodget/pkg/errors"
)

// Length is the number of digits in a compact date string (YYMMDD)
const Length = 6

// FirstPublished is the date of the first Astronomy Picture of the Day
var FirstPublished = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.Local)

// Format renders t as YYMMDD. Only the calendar date is used.
func Format(t time.Time) string {
	return fmt.Sprintf("%02d%02d%02d", t.Year()%100, int(t.Month()), t.Day())
}

// Today returns the compact form of now's calendar date
func Today(now time.Time) string {
	return Format(now)
}

// Parse decodes a YYMMDD string into midnight of that day in now's location.
//
// The century is inferred from now: a two-digit year less than or equal to
// now's two-digit year is placed in the 2000s, anything above in the 1900s.
func Parse(s string, now time.Time) (time.Time, error) {
	if len(s) != Length {
		return time.Time{}, errs.Newf(errs.ErrorTypeValidation, "date %q must be exactly %d digits (YYMMDD)", s, Length)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, errs.Newf(errs.ErrorTypeValidation, "date %q must contain only digits (YYMMDD)", s)
		}
	}

	// Digits are validated above so Atoi cannot fail
	yy, _ := strconv.Atoi(s[0:2])
	mm, _ := strconv.Atoi(s[2:4])
	dd, _ := strconv.Atoi(s[4:6])

	year := InferCentury(yy, now)

	if mm < 1 || mm > 12 {
		return time.Time{}, errs.Newf(errs.ErrorTypeValidation, "date %q has invalid month %02d", s, mm)
	}
	if dd < 1 || dd > daysIn(year, time.Month(mm)) {
		return time.Time{}, errs.Newf(errs.ErrorTypeValidation, "date %q has invalid day %02d for %s %d", s, dd, time.Month(mm), year)
	}

	return time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, now.Location()), nil
}

// InferCentury expands a two-digit year relative to now
func InferCentury(yy int, now time.Time) int {
	if yy <= now.Year()%100 {
		return 2000 + yy
	}
	return 1900 + yy
}

// daysIn returns the number of days in the given month
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month normalises to the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Midnight truncates t to the start of its calendar day in t's location
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
