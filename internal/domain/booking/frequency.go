package booking

import "strings"

// Frequency is the recurrence rule of a booking.
type Frequency int

const (
	OneTime Frequency = iota
	Daily
	Weekly
	Monthly
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "one-time"
	}
}

// ParseFrequency normalizes a stored cleaningFrequency value. Matching is
// case-insensitive; anything unrecognized, including an empty value, is OneTime.
func ParseFrequency(raw string) Frequency {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "daily":
		return Daily
	case "weekly":
		return Weekly
	case "monthly":
		return Monthly
	default:
		return OneTime
	}
}
