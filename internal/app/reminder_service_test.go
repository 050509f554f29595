package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleaner_reminder_service/internal/domain/booking"
	"cleaner_reminder_service/internal/domain/cleaner"
	"cleaner_reminder_service/internal/domain/notification"
	"cleaner_reminder_service/internal/schedule"
)

// --- fakes ---

type fakeBookingRepo struct {
	bookings []*booking.Booking
	err      error
	gotMax   string
}

func (f *fakeBookingRepo) FindDueBookings(_ context.Context, maxServiceDate string) ([]*booking.Booking, error) {
	f.gotMax = maxServiceDate
	return f.bookings, f.err
}

type fakeCleanerRepo struct {
	contacts map[string]cleaner.Contact
	err      error
	calls    int
}

func (f *fakeCleanerRepo) GetContactsByIDs(_ context.Context, ids []string) (map[string]cleaner.Contact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]cleaner.Contact)
	for _, id := range ids {
		if c, ok := f.contacts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type memoryLedger struct {
	mu        sync.Mutex
	records   map[notification.ReminderKey]*notification.ReminderRecord
	existsErr error
	// lostRace makes RecordOnce report an existing key without storing.
	lostRace bool
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{records: make(map[notification.ReminderKey]*notification.ReminderRecord)}
}

func (l *memoryLedger) Exists(_ context.Context, key notification.ReminderKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.existsErr != nil {
		return false, l.existsErr
	}
	_, ok := l.records[key]
	return ok, nil
}

func (l *memoryLedger) RecordOnce(_ context.Context, rec *notification.ReminderRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lostRace {
		return false, nil
	}
	if _, ok := l.records[rec.Key]; ok {
		return false, nil
	}
	l.records[rec.Key] = rec
	return true, nil
}

func (l *memoryLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

type sentReminder struct {
	to  string
	msg notification.Message
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentReminder
	failTo map[string]bool
}

func (n *fakeNotifier) Send(_ context.Context, to string, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failTo[to] {
		return errors.New("smtp: 550 mailbox unavailable")
	}
	n.sent = append(n.sent, sentReminder{to: to, msg: msg})
	return nil
}

// --- helpers ---

// testNow puts the occurrence window at [2024-06-17 13:05, 2024-06-17 14:05].
var testNow = time.Date(2024, time.June, 16, 14, 5, 0, 0, time.UTC)

type harness struct {
	bookings *fakeBookingRepo
	cleaners *fakeCleanerRepo
	ledger   *memoryLedger
	notifier *fakeNotifier
	hook     *logtest.Hook
	svc      *ReminderService
}

func newHarness(bookings ...*booking.Booking) *harness {
	h := &harness{
		bookings: &fakeBookingRepo{bookings: bookings},
		cleaners: &fakeCleanerRepo{contacts: map[string]cleaner.Contact{
			"c1": {ID: "c1", FullName: "Ana Cleaner", Email: "ana@example.com"},
			"c2": {ID: "c2", FullName: "Ben Cleaner", Email: "ben@example.com"},
			"c3": {ID: "c3", FullName: "No Mail", Email: "  "},
		}},
		ledger:   newMemoryLedger(),
		notifier: &fakeNotifier{failTo: map[string]bool{}},
	}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h.hook = hook

	h.svc = NewReminderService(h.bookings, h.cleaners, h.ledger, h.notifier, ReminderConfig{
		Windows:     schedule.DefaultWindowConfig(),
		Location:    time.UTC,
		DefaultTime: schedule.TimeOfDay{Hour: 9},
	}, logger.WithField("component", "test"))

	ids := 0
	h.svc.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	h.svc.clock = func() time.Time { return testNow }
	return h
}

func weekly(id string, cleaners ...string) *booking.Booking {
	return &booking.Booking{
		ID:                id,
		ServiceDate:       "2024-06-10",
		PreferredTime:     "2:00 pm",
		CleaningFrequency: "weekly",
		AssignedCleaners:  booking.NewRecipientSet("", cleaners...),
		ServiceType:       "Deep clean",
		Address:           "12 Harbour St",
	}
}

// --- tests ---

func TestRunSendsReminderForDueWeeklyBooking(t *testing.T) {
	h := newHarness(weekly("b1", "c1"))

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-17", h.bookings.gotMax)
	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, 1, res.MatchedOccurrences)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, h.notifier.sent, 1)

	sent := h.notifier.sent[0]
	assert.Equal(t, "ana@example.com", sent.to)
	assert.Equal(t, notification.Message{
		BookingID:    "b1",
		CleanerName:  "Ana Cleaner",
		ServiceType:  "Deep clean",
		Address:      "12 Harbour St",
		OccurrenceAt: time.Date(2024, time.June, 17, 14, 0, 0, 0, time.UTC),
	}, sent.msg)

	key := notification.ReminderKey{
		BookingID:         "b1",
		CleanerID:         "c1",
		OccurrenceStartAt: time.Date(2024, time.June, 17, 14, 0, 0, 0, time.UTC),
		Type:              notification.ReminderCleanerDayBefore,
	}
	rec, ok := h.ledger.records[key]
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", rec.RecipientEmail)
	assert.Equal(t, testNow, rec.SentAt)
	assert.NotEmpty(t, rec.ID)
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(weekly("b1", "c1", "c2"), weekly("b2", "c2"))

	first, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)
	require.Equal(t, 3, first.Sent)

	second, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)

	assert.Zero(t, second.Sent)
	assert.Equal(t, 3, second.SkippedAlreadySent)
	assert.Len(t, h.notifier.sent, 3)
	assert.Equal(t, 3, h.ledger.len())
}

func TestRunIsolatesDeliveryFailures(t *testing.T) {
	h := newHarness(weekly("bx", "c1", "c2"), weekly("by", "c1"))
	h.notifier.failTo["ana@example.com"] = true

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)

	// c1 fails on both bookings, c2 on bx still goes out.
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "ben@example.com", h.notifier.sent[0].to)
	assert.Equal(t, 1, h.ledger.len())

	var failures int
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "Failed to send cleaner reminder" {
			failures++
			assert.Contains(t, e.Data, "booking_id")
			assert.Contains(t, e.Data, "cleaner_id")
			assert.Contains(t, e.Data, "occurrence")
			assert.Equal(t, "a***@example.com", e.Data["email"])
		}
	}
	assert.Equal(t, 2, failures)

	// The failed reminders are retried by the next run.
	delete(h.notifier.failTo, "ana@example.com")
	again, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Sent)
	assert.Equal(t, 1, again.SkippedAlreadySent)
}

func TestRunCountsSkips(t *testing.T) {
	invalidDate := weekly("bad-date", "c1")
	invalidDate.ServiceDate = "June 10th"
	invalidTime := weekly("bad-time", "c1")
	invalidTime.PreferredTime = "after lunch"
	noCleaner := weekly("no-cleaner")
	missing := weekly("missing", "c1", "ghost", "c3")
	notDue := weekly("not-due", "c1")
	notDue.PreferredTime = "9:00 am"

	h := newHarness(invalidDate, invalidTime, noCleaner, missing, notDue)

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Scanned)
	assert.Equal(t, 2, res.SkippedInvalidSchedule)
	assert.Equal(t, 1, res.SkippedNoCleaner)
	assert.Equal(t, 2, res.SkippedNoEmail) // ghost has no contact, c3 has a blank address
	assert.Equal(t, 2, res.MatchedOccurrences)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, h.cleaners.calls)
}

func TestRunCountsMissingEmailPerOccurrence(t *testing.T) {
	daily := &booking.Booking{
		ID:                "daily",
		ServiceDate:       "2024-06-01",
		PreferredTime:     "13:30",
		CleaningFrequency: "DAILY",
		AssignedCleaners:  booking.NewRecipientSet("ghost", "c1"),
	}
	h := newHarness(daily)
	h.svc.cfg.Windows.Lookback = 72 * time.Hour // June 15, 16 and 17 at 13:30

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 3, res.MatchedOccurrences)
	assert.Equal(t, 3, res.SkippedNoEmail)
	assert.Equal(t, 3, res.Sent)
}

func TestRunUsesDefaultTimeWhenPreferredTimeMissing(t *testing.T) {
	b := weekly("b1", "c1")
	b.PreferredTime = ""
	h := newHarness(b)

	res, err := h.svc.Run(context.Background(), time.Date(2024, time.June, 16, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, time.Date(2024, time.June, 17, 9, 0, 0, 0, time.UTC), h.notifier.sent[0].msg.OccurrenceAt)
}

func TestRunOneTimeBookingOutsideWindow(t *testing.T) {
	b := weekly("b1", "c1")
	b.CleaningFrequency = "one-time"
	h := newHarness(b)

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Zero(t, res.MatchedOccurrences)
	assert.Zero(t, res.Sent)
	assert.Zero(t, h.cleaners.calls)
}

func TestRunCandidateLoadError(t *testing.T) {
	h := newHarness()
	h.bookings.err = errors.New("connection refused")

	res, err := h.svc.Run(context.Background(), testNow)
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRunContactLookupErrorFailsBookingOnly(t *testing.T) {
	h := newHarness(weekly("b1", "c1", "c2"))
	h.cleaners.err = errors.New("users collection unavailable")

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Empty(t, h.notifier.sent)
}

func TestRunLedgerReadErrorCountsAsFailure(t *testing.T) {
	h := newHarness(weekly("b1", "c1"))
	h.ledger.existsErr = errors.New("timeout")

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, h.notifier.sent)
}

func TestRunLostRecordRaceStillCountsAsSent(t *testing.T) {
	h := newHarness(weekly("b1", "c1"))
	h.ledger.lostRace = true

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Zero(t, res.Failed)

	var warned bool
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Reminder was recorded concurrently by another run" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunConcurrentDispatch(t *testing.T) {
	cleaners := make([]string, 0, 20)
	h := newHarness()
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("x%02d", i)
		cleaners = append(cleaners, id)
		h.cleaners.contacts[id] = cleaner.Contact{ID: id, Email: id + "@example.com"}
	}
	h.bookings.bookings = []*booking.Booking{weekly("b1", cleaners...)}
	h.svc.cfg.DispatchConcurrency = 4
	var mu sync.Mutex
	ids := 0
	h.svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		ids++
		return fmt.Sprintf("id-%d", ids)
	}

	res, err := h.svc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Sent)
	assert.Equal(t, 20, h.ledger.len())
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	h := newHarness(weekly("b1", "c1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.svc.Run(ctx, testNow)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.Scanned)
}
