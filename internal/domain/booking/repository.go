package booking

import "context"

// Repository loads reminder candidates from the booking store.
type Repository interface {
	// FindDueBookings returns bookings with serviceDate <= maxServiceDate (YYYY-MM-DD)
	// that are not soft-deleted, not cancelled and of a reminder-eligible booking type.
	FindDueBookings(ctx context.Context, maxServiceDate string) ([]*Booking, error)
}
