// internal/domain/notification/reminder.go
package notification

import "time"

// ReminderType identifies which reminder a ledger entry stands for.
type ReminderType string

const (
	ReminderCleanerDayBefore ReminderType = "cleaner_24h_before"
)

// ReminderKey is the idempotency key of a dispatched reminder.
type ReminderKey struct {
	BookingID         string
	CleanerID         string
	OccurrenceStartAt time.Time
	Type              ReminderType
}

// ReminderRecord is a ledger entry. Its existence means the reminder identified
// by Key was already delivered. Corresponds to the 'cleaner_reminders' table /
// collection.
type ReminderRecord struct {
	ID             string
	Key            ReminderKey
	RecipientEmail string
	SentAt         time.Time
}
