// Package localtime converts between the business wall clock (fixed UTC+9,
// no daylight saving) and the UTC instants stored in the database.  All
// conversions compose an explicit +09:00 offset so the result never depends
// on the host's timezone database or TZ setting.
package localtime

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Offset is the business timezone offset from UTC.
const Offset = 9 * time.Hour

const (
	// DateLayout is the calendar date format exchanged with callers.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24-hour time of day format exchanged with callers.
	ClockLayout = "15:04"
)

// Zone renders instants in business wall-clock time.
var Zone = time.FixedZone("KST", int(Offset/time.Second))

// ErrInvalidFormat is returned for malformed date or clock strings.
var ErrInvalidFormat = errors.New("invalid date/time format")

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// LocalDateTime is a wall-clock reading in the business timezone.
type LocalDateTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Date returns the reading as YYYY-MM-DD.
func (l LocalDateTime) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", l.Year, int(l.Month), l.Day)
}

// Clock returns the reading as HH:MM.
func (l LocalDateTime) Clock() string {
	return fmt.Sprintf("%02d:%02d", l.Hour, l.Minute)
}

// ParseDate validates a YYYY-MM-DD string and returns midnight UTC of that
// calendar date.  Out-of-range values such as 2025-02-30 are rejected.
func ParseDate(date string) (time.Time, error) {
	if len(date) != len(DateLayout) || !datePattern.MatchString(date) {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidFormat, date)
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidFormat, date)
	}
	return t, nil
}

// ToUTC interprets date and clock as business wall-clock time and returns the
// equivalent UTC instant.
func ToUTC(date, clock string) (time.Time, error) {
	if _, err := ParseDate(date); err != nil {
		return time.Time{}, err
	}
	if !clockPattern.MatchString(clock) {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidFormat, clock)
	}
	t, err := time.Parse(time.RFC3339, date+"T"+clock+":00+09:00")
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return t.UTC(), nil
}

// FromUTC shifts t by the business offset and reads the wall-clock fields.
// time.Time normalization handles day, month and year rollover.
func FromUTC(t time.Time) LocalDateTime {
	s := t.UTC().Add(Offset)
	return LocalDateTime{
		Year:   s.Year(),
		Month:  s.Month(),
		Day:    s.Day(),
		Hour:   s.Hour(),
		Minute: s.Minute(),
		Second: s.Second(),
	}
}

// NormalizeDateForQuery turns a date-only string into a UTC-day boundary:
// 00:00:00.000Z for the start, 23:59:59.999Z for the end.
func NormalizeDateForQuery(date string, isEnd bool) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if isEnd {
		return d.Add(24*time.Hour - time.Millisecond), nil
	}
	return d, nil
}

// DayRange returns the half-open UTC range covering the business days from
// and to inclusive.  Dates given in reverse order are swapped.
func DayRange(from, to string) (time.Time, time.Time, error) {
	start, err := ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start.Add(-Offset), end.AddDate(0, 0, 1).Add(-Offset), nil
}

// Format renders t in business wall-clock time using a Go layout.
func Format(t time.Time, layout string) string {
	return t.In(Zone).Format(layout)
}
