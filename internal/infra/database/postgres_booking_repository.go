package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"cleaner_reminder_service/internal/domain/booking"
)

type PostgresBookingRepository struct {
	db            *sql.DB
	eligibleTypes []string
}

func NewPostgresBookingRepository(db *sql.DB, eligibleTypes []string) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db, eligibleTypes: eligibleTypes}
}

// FindDueBookings relies on service_date being stored as YYYY-MM-DD text, which
// orders the same way as the dates themselves.
func (r *PostgresBookingRepository) FindDueBookings(ctx context.Context, maxServiceDate string) ([]*booking.Booking, error) {
	query := `SELECT id, service_date, preferred_time, cleaning_frequency,
                     assigned_cleaner_id, assigned_cleaner_ids, service_type, address
               FROM quotes
               WHERE is_deleted = FALSE
                 AND status <> 'cancelled'
                 AND booking_type = ANY($1)
                 AND service_date <= $2
               ORDER BY service_date, id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(r.eligibleTypes), maxServiceDate)
	if err != nil {
		return nil, fmt.Errorf("error listing due bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*booking.Booking, 0)
	for rows.Next() {
		var (
			b                                                      booking.Booking
			preferredTime, frequency, cleanerID, serviceType, addr sql.NullString
			cleanerIDs                                             pq.StringArray
		)
		if err := rows.Scan(&b.ID, &b.ServiceDate, &preferredTime, &frequency, &cleanerID, &cleanerIDs, &serviceType, &addr); err != nil {
			return nil, fmt.Errorf("error scanning due booking: %w", err)
		}
		b.PreferredTime = preferredTime.String
		b.CleaningFrequency = frequency.String
		b.AssignedCleaners = booking.NewRecipientSet(cleanerID.String, cleanerIDs...)
		b.ServiceType = serviceType.String
		b.Address = addr.String
		bookings = append(bookings, &b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due bookings: %w", err)
	}
	return bookings, nil
}
