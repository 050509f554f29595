package database

import (
	"context"
	"database/sql"
	"fmt"
)

// reminderKeyConstraint guarantees at most one ledger row per reminder.
const reminderKeyConstraint = "cleaner_reminders_key_unique"

const reminderSchema = `
CREATE TABLE IF NOT EXISTS cleaner_reminders (
    id                  UUID PRIMARY KEY,
    booking_id          TEXT NOT NULL,
    cleaner_id          TEXT NOT NULL,
    occurrence_start_at TIMESTAMPTZ NOT NULL,
    reminder_type       TEXT NOT NULL,
    recipient_email     TEXT NOT NULL,
    sent_at             TIMESTAMPTZ NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ` + reminderKeyConstraint + ` UNIQUE (booking_id, cleaner_id, occurrence_start_at, reminder_type)
)`

// EnsureReminderSchema creates the reminder ledger table if it does not exist.
// The quotes and users tables belong to the booking application.
func EnsureReminderSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, reminderSchema); err != nil {
		return fmt.Errorf("error creating cleaner_reminders table: %w", err)
	}
	return nil
}
