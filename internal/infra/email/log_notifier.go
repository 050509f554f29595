package email

import (
	"context"

	"github.com/sirupsen/logrus"

	"cleaner_reminder_service/internal/domain/notification"
)

// LogNotifier renders reminders and logs them instead of sending. Used with NOTIFIER=log.
type LogNotifier struct {
	logger *logrus.Entry
}

func NewLogNotifier(logger *logrus.Entry) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, to string, msg notification.Message) error {
	rendered, err := RenderReminder(msg)
	if err != nil {
		return err
	}
	n.logger.WithFields(logrus.Fields{
		"booking_id": msg.BookingID,
		"email":      notification.RedactEmail(to),
		"subject":    rendered.Subject,
	}).Info("Reminder email (log only)")
	return nil
}
