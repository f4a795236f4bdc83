package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/zapponejosh/saju-api/internal/calendar"
)

// Errors reported to callers. All three are non-fatal: the caller is
// expected to show a corrective message and may retry with other input.
var (
	// ErrInputDateNotFound is returned when a lunar date has no civil match.
	ErrInputDateNotFound = calendar.ErrInputDateNotFound
	// ErrMissingCalendarRecord is returned when a civil date (or the solar
	// terms around it) falls outside the loaded tables.
	ErrMissingCalendarRecord = errors.New("missing calendar record")
	// ErrMalformedInput is returned for unparsable or out-of-domain input.
	ErrMalformedInput = calendar.ErrMalformedInput
)

// Error kind codes, stable across releases.
const (
	KindInputDateNotFound     = "INPUT_DATE_NOT_FOUND"
	KindMissingCalendarRecord = "MISSING_CALENDAR_RECORD"
	KindMalformedInput        = "MALFORMED_INPUT"
	KindInternal              = "INTERNAL_ERROR"
)

// Kind maps err to one of the Kind codes. It returns "" for a nil error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputDateNotFound):
		return KindInputDateNotFound
	case errors.Is(err, ErrMissingCalendarRecord):
		return KindMissingCalendarRecord
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	}
	return KindInternal
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedInput}, args...)...)
}

func missingTerm(t time.Time) error {
	return fmt.Errorf("%w: no solar terms around %s", ErrMissingCalendarRecord, t.Format("2006-01-02"))
}
