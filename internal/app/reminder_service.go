// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cleaner_reminder_service/internal/domain/booking"
	"cleaner_reminder_service/internal/domain/cleaner"
	"cleaner_reminder_service/internal/domain/notification"
	"cleaner_reminder_service/internal/schedule"
)

// ReminderRunner executes a single reminder pass. The scheduler depends on this
// interface so tests can substitute slow or failing runs.
type ReminderRunner interface {
	Run(ctx context.Context, now time.Time) (*RunResult, error)
}

// ReminderConfig tunes a ReminderService.
type ReminderConfig struct {
	Windows     schedule.WindowConfig
	Location    *time.Location
	DefaultTime schedule.TimeOfDay // used when a booking has no preferred time
	// DispatchConcurrency bounds parallel sends within one booking. Values below 1 mean sequential.
	DispatchConcurrency int
}

// ReminderService sends the day-before reminder to cleaners assigned to
// upcoming bookings, at most once per (booking, cleaner, occurrence).
type ReminderService struct {
	bookingRepo booking.Repository
	cleanerRepo cleaner.Repository
	ledger      notification.Ledger
	notifier    notification.Notifier
	cfg         ReminderConfig
	logger      *logrus.Entry
	clock       func() time.Time
	newID       func() string
}

func NewReminderService(
	br booking.Repository,
	cr cleaner.Repository,
	ledger notification.Ledger,
	notifier notification.Notifier,
	cfg ReminderConfig,
	logger *logrus.Entry,
) *ReminderService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DispatchConcurrency < 1 {
		cfg.DispatchConcurrency = 1
	}
	return &ReminderService{
		bookingRepo: br,
		cleanerRepo: cr,
		ledger:      ledger,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
		clock:       time.Now,
		newID:       uuid.NewString,
	}
}

type dispatchJob struct {
	booking    *booking.Booking
	contact    cleaner.Contact
	occurrence time.Time
}

// Run performs one reminder pass for the given instant. Only a failure to load
// candidates is returned as an error; everything else is counted in the result.
func (s *ReminderService) Run(ctx context.Context, now time.Time) (*RunResult, error) {
	windows := schedule.PlanWindows(now.In(s.cfg.Location), s.cfg.Windows)
	result := &RunResult{
		RunID:     s.newID(),
		StartedAt: now,
		Windows:   windows,
	}

	runLogger := s.logger.WithField("run_id", result.RunID)
	runLogger.WithFields(logrus.Fields{
		"occurrence_start": windows.Occurrence.Start,
		"occurrence_end":   windows.Occurrence.End,
		"max_service_date": windows.MaxServiceDate,
	}).Debug("Reminder run started")

	candidates, err := s.bookingRepo.FindDueBookings(ctx, windows.MaxServiceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	for _, b := range candidates {
		if err := ctx.Err(); err != nil {
			runLogger.WithFields(result.Fields()).Warn("Reminder run interrupted")
			return result, fmt.Errorf("reminder run interrupted: %w", err)
		}
		result.Scanned++
		s.processBooking(ctx, runLogger.WithField("booking_id", b.ID), b, windows, result)
	}

	runLogger.WithFields(result.Fields()).Info("Reminder run finished")
	return result, nil
}

func (s *ReminderService) processBooking(ctx context.Context, log *logrus.Entry, b *booking.Booking, windows schedule.Windows, result *RunResult) {
	base, err := schedule.BaseInstant(b.ServiceDate, b.PreferredTime, s.cfg.DefaultTime, s.cfg.Location)
	if err != nil {
		result.SkippedInvalidSchedule++
		log.WithError(err).Warn("Skipping booking with invalid schedule")
		return
	}

	occurrences := schedule.OccurrencesInWindow(base, b.Frequency(), windows.Occurrence.Start, windows.Occurrence.End)
	if len(occurrences) == 0 {
		return
	}
	result.MatchedOccurrences += len(occurrences)

	if b.AssignedCleaners.Len() == 0 {
		result.SkippedNoCleaner++
		log.Warn("Booking is due for a reminder but has no assigned cleaner")
		return
	}

	cleanerIDs := b.AssignedCleaners.IDs()
	contacts, err := s.cleanerRepo.GetContactsByIDs(ctx, cleanerIDs)
	if err != nil {
		result.Failed += len(occurrences) * len(cleanerIDs)
		log.WithError(err).Error("Failed to resolve cleaner contacts")
		return
	}

	var jobs []dispatchJob
	for _, occ := range occurrences {
		for _, id := range cleanerIDs {
			contact, ok := contacts[id]
			if !ok || strings.TrimSpace(contact.Email) == "" {
				result.SkippedNoEmail++
				log.WithFields(logrus.Fields{"cleaner_id": id, "occurrence": occ}).Warn("Cleaner has no email address, skipping reminder")
				continue
			}
			jobs = append(jobs, dispatchJob{booking: b, contact: contact, occurrence: occ})
		}
	}

	s.dispatchAll(ctx, log, jobs, result)
}

func (s *ReminderService) dispatchAll(ctx context.Context, log *logrus.Entry, jobs []dispatchJob, result *RunResult) {
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.DispatchConcurrency)

	for _, job := range jobs {
		g.Go(func() error {
			outcome := s.dispatch(ctx, log, job)
			mu.Lock()
			result.record(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// dispatch checks the ledger, sends and records a single reminder. The ledger
// is consulted before sending; the record is only written after a successful send.
func (s *ReminderService) dispatch(ctx context.Context, log *logrus.Entry, job dispatchJob) dispatchOutcome {
	key := notification.ReminderKey{
		BookingID:         job.booking.ID,
		CleanerID:         job.contact.ID,
		OccurrenceStartAt: job.occurrence,
		Type:              notification.ReminderCleanerDayBefore,
	}
	entry := log.WithFields(logrus.Fields{
		"cleaner_id": job.contact.ID,
		"email":      notification.RedactEmail(job.contact.Email),
		"occurrence": job.occurrence,
	})

	alreadySent, err := s.ledger.Exists(ctx, key)
	if err != nil {
		entry.WithError(err).Error("Failed to check reminder ledger")
		return outcomeFailed
	}
	if alreadySent {
		entry.Debug("Reminder already sent")
		return outcomeAlreadySent
	}

	msg := notification.Message{
		BookingID:    job.booking.ID,
		CleanerName:  job.contact.FullName,
		ServiceType:  job.booking.ServiceType,
		Address:      job.booking.Address,
		OccurrenceAt: job.occurrence,
	}
	if err := s.notifier.Send(ctx, job.contact.Email, msg); err != nil {
		entry.WithError(err).Error("Failed to send cleaner reminder")
		return outcomeFailed
	}

	rec := &notification.ReminderRecord{
		ID:             s.newID(),
		Key:            key,
		RecipientEmail: job.contact.Email,
		SentAt:         s.clock(),
	}
	created, err := s.ledger.RecordOnce(ctx, rec)
	switch {
	case err != nil:
		// The reminder went out; the next run may send it again.
		entry.WithError(err).Error("Reminder sent but not recorded in ledger")
	case !created:
		entry.Warn("Reminder was recorded concurrently by another run")
	default:
		entry.Info("Cleaner reminder sent")
	}
	return outcomeSent
}
