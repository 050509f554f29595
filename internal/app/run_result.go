package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"cleaner_reminder_service/internal/schedule"
)

// RunResult aggregates the outcome of one reminder run. It is only used for
// logging and metrics.
type RunResult struct {
	RunID     string
	StartedAt time.Time
	Windows   schedule.Windows

	Scanned                int
	MatchedOccurrences     int
	Sent                   int
	SkippedAlreadySent     int
	SkippedNoCleaner       int
	SkippedNoEmail         int
	SkippedInvalidSchedule int
	Failed                 int
}

type dispatchOutcome int

const (
	outcomeSent dispatchOutcome = iota
	outcomeAlreadySent
	outcomeFailed
)

func (r *RunResult) record(o dispatchOutcome) {
	switch o {
	case outcomeSent:
		r.Sent++
	case outcomeAlreadySent:
		r.SkippedAlreadySent++
	case outcomeFailed:
		r.Failed++
	}
}

// Fields renders the counters for structured logging.
func (r *RunResult) Fields() logrus.Fields {
	return logrus.Fields{
		"scanned":                  r.Scanned,
		"matched_occurrences":      r.MatchedOccurrences,
		"sent":                     r.Sent,
		"skipped_already_sent":     r.SkippedAlreadySent,
		"skipped_no_cleaner":       r.SkippedNoCleaner,
		"skipped_no_email":         r.SkippedNoEmail,
		"skipped_invalid_schedule": r.SkippedInvalidSchedule,
		"failed":                   r.Failed,
	}
}
