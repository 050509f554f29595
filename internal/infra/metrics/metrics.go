package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cleaner_reminder_service/internal/app"
)

const namespace = "cleaner_reminders"

// Outcome label values of the reminders counter.
const (
	outcomeSent                   = "sent"
	outcomeSkippedAlreadySent     = "skipped_already_sent"
	outcomeSkippedNoCleaner       = "skipped_no_cleaner"
	outcomeSkippedNoEmail         = "skipped_no_email"
	outcomeSkippedInvalidSchedule = "skipped_invalid_schedule"
	outcomeFailed                 = "failed"
)

// Recorder exports reminder run outcomes as Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	reminders   *prometheus.CounterVec
	scanned     prometheus.Counter
	runDuration prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// NewRecorder registers the reminder metrics plus the Go and process
// collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Reminder runs by status.",
		}, []string{"status"}),
		reminders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Reminder dispatch outcomes.",
		}, []string{"outcome"}),
		scanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_scanned_total",
			Help:      "Bookings examined by reminder runs.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a reminder run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without error.",
		}),
	}
}

// Registry is the registry served on /metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveRun(result *app.RunResult, duration time.Duration, err error) {
	r.runDuration.Observe(duration.Seconds())

	if err != nil {
		r.runs.WithLabelValues("error").Inc()
	} else {
		r.runs.WithLabelValues("ok").Inc()
		r.lastSuccess.SetToCurrentTime()
	}
	if result == nil {
		return
	}

	r.scanned.Add(float64(result.Scanned))
	for outcome, n := range map[string]int{
		outcomeSent:                   result.Sent,
		outcomeSkippedAlreadySent:     result.SkippedAlreadySent,
		outcomeSkippedNoCleaner:       result.SkippedNoCleaner,
		outcomeSkippedNoEmail:         result.SkippedNoEmail,
		outcomeSkippedInvalidSchedule: result.SkippedInvalidSchedule,
		outcomeFailed:                 result.Failed,
	} {
		r.reminders.WithLabelValues(outcome).Add(float64(n))
	}
}
