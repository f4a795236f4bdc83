package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// Fields is a parsed wall-clock reading. The date is not yet checked
// against any calendar.
type Fields struct {
	Year, Month, Day int
	Hour, Minute     int
}

// momentPattern accepts "1990-02-04 11:14", "1990/2/4 11:14",
// "1990.02.04T11:14" and "19900204 1114".
var momentPattern = regexp.MustCompile(
	`^(\d{4})([-/.]?)(\d{1,2})([-/.]?)(\d{1,2})[ T]+(\d{1,2}):?(\d{2})$`)

// ParseMoment parses a birth moment string. Full-width digits and
// punctuation are folded to ASCII first.
func ParseMoment(s string) (Fields, error) {
	in := strings.TrimSpace(width.Fold.String(s))
	m := momentPattern.FindStringSubmatch(in)
	// Without separators both month and day need two digits.
	if m == nil || ((m[2] == "" || m[4] == "") && (len(m[3]) != 2 || len(m[5]) != 2)) {
		return Fields{}, fmt.Errorf("%w: birth moment %q, want YYYY-MM-DD HH:MM", ErrMalformedInput, s)
	}

	var f Fields
	for i, dst := range map[int]*int{1: &f.Year, 3: &f.Month, 5: &f.Day, 6: &f.Hour, 7: &f.Minute} {
		v, err := strconv.Atoi(m[i])
		if err != nil {
			return Fields{}, fmt.Errorf("%w: birth moment %q", ErrMalformedInput, s)
		}
		*dst = v
	}

	switch {
	case f.Month < 1 || f.Month > 12:
		return Fields{}, fmt.Errorf("%w: month %d", ErrMalformedInput, f.Month)
	case f.Day < 1 || f.Day > 31:
		return Fields{}, fmt.Errorf("%w: day %d", ErrMalformedInput, f.Day)
	case f.Hour > 23:
		return Fields{}, fmt.Errorf("%w: hour %d", ErrMalformedInput, f.Hour)
	case f.Minute > 59:
		return Fields{}, fmt.Errorf("%w: minute %d", ErrMalformedInput, f.Minute)
	}
	return f, nil
}

// Solar returns the fields as a civil wall-clock time, rejecting dates that
// do not exist such as February 30.
func (f Fields) Solar() (time.Time, error) {
	t := time.Date(f.Year, time.Month(f.Month), f.Day, f.Hour, f.Minute, 0, 0, time.UTC)
	if t.Day() != f.Day || int(t.Month()) != f.Month {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrMalformedInput, f.Year, f.Month, f.Day)
	}
	return t, nil
}
