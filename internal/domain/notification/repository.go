// internal/domain/notification/repository.go
package notification

import "context"

// Ledger persists dispatched reminders and is the only guard against duplicates.
type Ledger interface {
	Exists(ctx context.Context, key ReminderKey) (bool, error)
	// RecordOnce inserts rec unless its key is already present. It reports
	// whether this call created the record; a lost race is not an error.
	RecordOnce(ctx context.Context, rec *ReminderRecord) (bool, error)
}
