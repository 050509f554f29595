// internal/infra/database/postgres_reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"cleaner_reminder_service/internal/domain/notification"
)

const uniqueViolation = "23505"

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func (r *PostgresReminderRepository) Exists(ctx context.Context, key notification.ReminderKey) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM cleaner_reminders
                 WHERE booking_id = $1 AND cleaner_id = $2 AND occurrence_start_at = $3 AND reminder_type = $4
               )`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, key.BookingID, key.CleanerID, key.OccurrenceStartAt, string(key.Type)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking cleaner reminder: %w", err)
	}
	return exists, nil
}

// RecordOnce inserts the ledger row and leaves an existing one untouched. The
// unique constraint decides between concurrent writers.
func (r *PostgresReminderRepository) RecordOnce(ctx context.Context, rec *notification.ReminderRecord) (bool, error) {
	query := `INSERT INTO cleaner_reminders (id, booking_id, cleaner_id, occurrence_start_at, reminder_type, recipient_email, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               ON CONFLICT ON CONSTRAINT ` + reminderKeyConstraint + ` DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Key.BookingID, rec.Key.CleanerID, rec.Key.OccurrenceStartAt, string(rec.Key.Type), rec.RecipientEmail, rec.SentAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == reminderKeyConstraint {
			return false, nil
		}
		return false, fmt.Errorf("error recording cleaner reminder: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading inserted cleaner reminder count: %w", err)
	}
	return n == 1, nil
}

// ensure the adapter satisfies the domain port
var _ notification.Ledger = (*PostgresReminderRepository)(nil)
