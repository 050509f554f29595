// internal/domain/notification/message.go
package notification

import (
	"context"
	"errors"
	"time"
)

// ErrNotifierUnavailable is returned by notifiers that refuse to send, e.g. an open circuit.
var ErrNotifierUnavailable = errors.New("notifier unavailable")

// Message carries the template fields of a cleaner reminder.
type Message struct {
	BookingID    string
	CleanerName  string
	ServiceType  string
	Address      string
	OccurrenceAt time.Time
}

// Notifier delivers a reminder to a single address.
type Notifier interface {
	Send(ctx context.Context, to string, msg Message) error
}
