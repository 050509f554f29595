package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"cleaner_reminder_service/internal/app"
	"cleaner_reminder_service/internal/domain/notification"
	"cleaner_reminder_service/internal/infra/config"
	"cleaner_reminder_service/internal/infra/email"
	"cleaner_reminder_service/internal/infra/logger"
	"cleaner_reminder_service/internal/infra/metrics"
	"cleaner_reminder_service/internal/infra/scheduler"
	"cleaner_reminder_service/internal/infra/storage"
	"cleaner_reminder_service/internal/infra/telegram"
)

const shutdownTimeout = 30 * time.Second

func main() {
	fmt.Println("Cleaner Reminder Service starting...")

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageDriver,
		"notifier":    cfg.Notifier,
		"timezone":    cfg.Location().String(),
		"lead_time":   cfg.LeadTime.String(),
		"lookback":    cfg.Lookback.String(),
	}).Info("Configuration loaded")

	ctx := context.Background()

	repos, err := storage.Open(ctx, cfg)
	if err != nil {
		mainLogger.Fatalf("Could not open storage: %v", err)
	}
	defer func() {
		if err := repos.Close(context.Background()); err != nil {
			mainLogger.WithError(err).Warn("Error closing storage")
		}
	}()
	mainLogger.Info("Storage connection established successfully.")

	reminderService := app.NewReminderService(
		repos.Bookings,
		repos.Cleaners,
		repos.Ledger,
		newNotifier(cfg),
		app.ReminderConfig{
			Windows:             cfg.Windows(),
			Location:            cfg.Location(),
			DefaultTime:         cfg.DefaultTime(),
			DispatchConcurrency: cfg.DispatchConcurrency,
		},
		logger.Component("reminder_service"),
	)

	recorder := metrics.NewRecorder()
	observers := []scheduler.RunObserver{recorder}
	if cfg.AlertsEnabled() {
		tg, err := telegram.NewTelebotAdapter(cfg.TelegramToken)
		if err != nil {
			mainLogger.Fatalf("Could not create Telegram client: %v", err)
		}
		observers = append(observers, telegram.NewRunReporter(tg, cfg.AdminTelegramID, logger.Component("telegram")))
		mainLogger.Info("Telegram run alerts enabled.")
	}

	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr, recorder.Registry(), logger.Component("metrics"))
		metricsServer.Start()
	}

	reminderScheduler := scheduler.NewReminderScheduler(reminderService, scheduler.Config{
		CronSpec:   cfg.CronSpecReminder,
		Location:   cfg.Location(),
		RunTimeout: cfg.RunTimeout,
	}, logger.Component("scheduler"), observers...)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.Fatalf("Could not start reminder scheduler: %v", err)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := reminderScheduler.Stop(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("Reminder scheduler did not stop cleanly")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Metrics server did not stop cleanly")
		}
	}
	mainLogger.Info("Application shut down gracefully.")
}

func newNotifier(cfg *config.AppConfig) notification.Notifier {
	if cfg.Notifier == "log" {
		return email.NewLogNotifier(logger.Component("notifier"))
	}
	return email.NewSMTPNotifier(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}, cfg.EmailRatePerSecond, cfg.EmailBurst)
}
