package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"cleaner_reminder_service/internal/app"
)

// RunObserver is told about every completed run, successful or not.
type RunObserver interface {
	ObserveRun(result *app.RunResult, duration time.Duration, err error)
}

// Config tunes a ReminderScheduler.
type Config struct {
	CronSpec   string
	Location   *time.Location
	RunTimeout time.Duration
}

// ReminderScheduler triggers reminder runs on a cron schedule. At most one
// run is in flight at any time; a tick that fires while a run is still
// going is dropped.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	runner     app.ReminderRunner
	observers  []RunObserver
	logger     *logrus.Entry
	cfg        Config
	clock      func() time.Time

	running atomic.Bool

	mu       sync.Mutex
	stopped  bool
	inFlight sync.WaitGroup

	baseCtx    context.Context
	cancelRuns context.CancelFunc
}

func NewReminderScheduler(runner app.ReminderRunner, cfg Config, logger *logrus.Entry, observers ...RunObserver) *ReminderScheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	cronLogger := cron.PrintfLogger(logger.WithField("subsystem", "cron"))

	baseCtx, cancel := context.WithCancel(context.Background())
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		runner:     runner,
		observers:  observers,
		logger:     logger,
		cfg:        cfg,
		clock:      time.Now,
		baseCtx:    baseCtx,
		cancelRuns: cancel,
	}
}

// Start registers the periodic job, starts the cron engine and kicks off an
// immediate run so a restart does not wait a full interval.
func (s *ReminderScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.cfg.CronSpec, func() { s.Tick() }); err != nil {
		return fmt.Errorf("could not add reminder cron job %q: %w", s.cfg.CronSpec, err)
	}
	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cfg.CronSpec).Info("Reminder scheduler started")

	go s.Tick()
	return nil
}

// Tick runs one reminder pass unless another is in flight or the scheduler
// is stopped. It reports whether a run was executed.
func (s *ReminderScheduler) Tick() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.logger.Warn("Previous reminder run still in progress, skipping tick")
		return false
	}
	s.inFlight.Add(1)
	s.mu.Unlock()

	defer func() {
		s.running.Store(false)
		s.inFlight.Done()
	}()
	s.runOnce()
	return true
}

func (s *ReminderScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.RunTimeout)
	defer cancel()

	started := s.clock()
	var (
		result *app.RunResult
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("reminder run panicked: %v", r)
			}
		}()
		result, err = s.runner.Run(ctx, started)
	}()
	duration := s.clock().Sub(started)

	log := s.logger.WithField("duration", duration.String())
	if result != nil {
		log = log.WithField("run_id", result.RunID)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Error("Reminder run exceeded its timeout")
	case err != nil:
		log.WithError(err).Error("Reminder run failed")
	default:
		log.Debug("Reminder run completed")
	}

	for _, o := range s.observers {
		o.ObserveRun(result, duration, err)
	}
}

// Stop prevents new runs and waits for the in-flight run to finish. If ctx
// expires first, the in-flight run's context is cancelled and ctx.Err() is
// returned.
func (s *ReminderScheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping reminder scheduler...")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-s.cronEngine.Stop().Done()
		s.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelRuns()
		s.logger.Info("Reminder scheduler gracefully stopped")
		return nil
	case <-ctx.Done():
		s.cancelRuns()
		<-done
		return fmt.Errorf("reminder scheduler stop: %w", ctx.Err())
	}
}
