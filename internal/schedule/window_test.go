package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleaner_reminder_service/internal/domain/booking"
)

func TestPlanWindows(t *testing.T) {
	now := at(2024, time.June, 16, 14, 5)

	w := PlanWindows(now, DefaultWindowConfig())

	assert.Equal(t, Window{Start: at(2024, time.June, 16, 13, 5), End: now}, w.Delivery)
	assert.Equal(t, Window{Start: at(2024, time.June, 17, 13, 5), End: at(2024, time.June, 17, 14, 5)}, w.Occurrence)
	assert.Equal(t, "2024-06-17", w.MaxServiceDate)
}

func TestPlanWindowsLookahead(t *testing.T) {
	now := at(2024, time.December, 31, 23, 30)

	w := PlanWindows(now, WindowConfig{LeadTime: 2 * time.Hour, Lookback: 10 * time.Minute, Lookahead: 5 * time.Minute})

	assert.Equal(t, at(2024, time.December, 31, 23, 20), w.Delivery.Start)
	assert.Equal(t, at(2024, time.December, 31, 23, 35), w.Delivery.End)
	assert.Equal(t, at(2025, time.January, 1, 1, 35), w.Occurrence.End)
	assert.Equal(t, "2025-01-01", w.MaxServiceDate)
}

func TestWeeklyBookingDueInPlannedWindow(t *testing.T) {
	base, err := BaseInstant("2024-06-10", "2:00 pm", TimeOfDay{Hour: 9}, time.UTC)
	require.NoError(t, err)

	w := PlanWindows(at(2024, time.June, 16, 14, 5), DefaultWindowConfig())
	got := OccurrencesInWindow(base, booking.ParseFrequency("weekly"), w.Occurrence.Start, w.Occurrence.End)

	assert.Equal(t, []time.Time{at(2024, time.June, 17, 14, 0)}, got)
	assert.True(t, w.Occurrence.contains(got[0]))
}
