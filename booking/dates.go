package booking

import (
	"strings"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// ParseDate accepts an ISO-8601 date or an RFC 3339 date-time and returns
// midnight UTC of the calendar date it names. A date-time keeps the date of
// its own offset.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, invalid(field, "is required")
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, invalid(field, "must be an ISO-8601 date (YYYY-MM-DD) or date-time")
}

// DateOf truncates t to midnight UTC of its calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights is the number of whole calendar days between checkIn and checkOut.
func Nights(checkIn, checkOut time.Time) int {
	return int((DateOf(checkOut).Unix() - DateOf(checkIn).Unix()) / secondsPerDay)
}

// ValidateStay enforces checkIn < checkOut and that checkIn is not before today.
func ValidateStay(checkIn, checkOut, today time.Time) error {
	if !checkIn.Before(checkOut) {
		return invalid("checkOut", "must be after checkIn")
	}
	if checkIn.Before(DateOf(today)) {
		return invalid("checkIn", "cannot be in the past")
	}
	return nil
}

// Stay is a validated, normalized [CheckIn, CheckOut) pair.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (s Stay) Nights() int {
	return Nights(s.CheckIn, s.CheckOut)
}

func parseStay(checkIn, checkOut string, today time.Time) (Stay, error) {
	in, err := ParseDate("checkIn", checkIn)
	if err != nil {
		return Stay{}, err
	}
	out, err := ParseDate("checkOut", checkOut)
	if err != nil {
		return Stay{}, err
	}
	if err := ValidateStay(in, out, today); err != nil {
		return Stay{}, err
	}
	return Stay{CheckIn: in, CheckOut: out}, nil
}
