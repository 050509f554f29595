package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidServiceDate   = errors.New("invalid service date")
	ErrInvalidPreferredTime = errors.New("invalid preferred time")
)

// clockPattern accepts "14:30", "2:30 pm", "2pm", "02:30 P.M.".
var clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses a 12-hour ("2:30 pm") or 24-hour ("14:30") clock time.
// A 24-hour value must carry minutes; a bare number is only accepted with am/pm.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidPreferredTime, raw)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: minute out of range in %q", ErrInvalidPreferredTime, raw)
	}

	switch suffix := strings.ReplaceAll(m[3], ".", ""); suffix {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, fmt.Errorf("%w: hour out of range in %q", ErrInvalidPreferredTime, raw)
		}
		hour %= 12
		if suffix == "pm" {
			hour += 12
		}
	default:
		if m[2] == "" || hour > 23 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidPreferredTime, raw)
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// BaseInstant combines a booking's service date and preferred time into the
// first occurrence, in loc. An empty preferred time falls back to defaultTime.
func BaseInstant(serviceDate, preferredTime string, defaultTime TimeOfDay, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(serviceDate), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidServiceDate, serviceDate)
	}

	tod := defaultTime
	if strings.TrimSpace(preferredTime) != "" {
		if tod, err = ParseTimeOfDay(preferredTime); err != nil {
			return time.Time{}, err
		}
	}

	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, loc), nil
}
