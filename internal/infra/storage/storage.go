// Package storage opens the repositories for the configured storage driver.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"cleaner_reminder_service/internal/domain/booking"
	"cleaner_reminder_service/internal/domain/cleaner"
	"cleaner_reminder_service/internal/domain/notification"
	"cleaner_reminder_service/internal/infra/config"
	"cleaner_reminder_service/internal/infra/database"
	"cleaner_reminder_service/internal/infra/mongodb"
)

var ErrUnsupportedDriver = errors.New("unsupported storage driver")

// Repositories bundles the ports the reminder service reads and writes.
type Repositories struct {
	Bookings booking.Repository
	Cleaners cleaner.Repository
	Ledger   notification.Ledger

	close func(context.Context) error
}

// Close releases the underlying connection.
func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// Open connects to the configured backend and makes sure the ledger's
// uniqueness constraint exists before any reminder is recorded.
func Open(ctx context.Context, cfg *config.AppConfig) (*Repositories, error) {
	switch cfg.StorageDriver {
	case "postgres":
		return openPostgres(ctx, cfg)
	case "mongo":
		return openMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.StorageDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.AppConfig) (*Repositories, error) {
	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureReminderSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repositories{
		Bookings: database.NewPostgresBookingRepository(db, cfg.EligibleBookingTypes),
		Cleaners: database.NewPostgresCleanerRepository(db),
		Ledger:   database.NewPostgresReminderRepository(db),
		close:    closeSQL(db),
	}, nil
}

func openMongo(ctx context.Context, cfg *config.AppConfig) (*Repositories, error) {
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)

	ledger := mongodb.NewMongoReminderRepository(db)
	if err := ledger.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Repositories{
		Bookings: mongodb.NewMongoBookingRepository(db, cfg.EligibleBookingTypes),
		Cleaners: mongodb.NewMongoCleanerRepository(db),
		Ledger:   ledger,
		close:    disconnectMongo(client),
	}, nil
}

func closeSQL(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}

func disconnectMongo(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error { return client.Disconnect(ctx) }
}
