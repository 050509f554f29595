package schedule

import "time"

// DateLayout is the storage format of booking service dates.
const DateLayout = "2006-01-02"

// WindowConfig controls how "now" maps onto the windows of a reminder run.
type WindowConfig struct {
	LeadTime  time.Duration // how long before an occurrence the reminder goes out
	Lookback  time.Duration // covers scheduler latency and missed ticks
	Lookahead time.Duration
}

// DefaultWindowConfig is a 24h lead time with a one hour lookback.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		LeadTime: 24 * time.Hour,
		Lookback: time.Hour,
	}
}

// Window is a closed time interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// contains reports whether t lies in [Start, End].
func (w Window) contains(t time.Time) bool {
	return within(t, w.Start, w.End)
}

// Windows is the plan of a single reminder run.
type Windows struct {
	// Delivery is the slice of real time during which a reminder counts as due.
	Delivery Window
	// Occurrence is Delivery shifted forward by the lead time. An occurrence
	// inside it is due for a reminder now.
	Occurrence Window
	// MaxServiceDate is the calendar date of Occurrence.End. Bookings whose base
	// date is later cannot have an occurrence in the window.
	MaxServiceDate string
}

// PlanWindows computes the delivery and occurrence windows for now.
func PlanWindows(now time.Time, cfg WindowConfig) Windows {
	delivery := Window{
		Start: now.Add(-cfg.Lookback),
		End:   now.Add(cfg.Lookahead),
	}
	occurrence := Window{
		Start: delivery.Start.Add(cfg.LeadTime),
		End:   delivery.End.Add(cfg.LeadTime),
	}
	return Windows{
		Delivery:       delivery,
		Occurrence:     occurrence,
		MaxServiceDate: occurrence.End.Format(DateLayout),
	}
}
