package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cleaner_reminder_service/internal/domain/notification"
)

type reminderDocument struct {
	ID                string    `bson:"_id"`
	BookingID         string    `bson:"bookingId"`
	CleanerID         string    `bson:"cleanerId"`
	OccurrenceStartAt time.Time `bson:"occurrenceStartAt"`
	ReminderType      string    `bson:"reminderType"`
	RecipientEmail    string    `bson:"recipientEmail"`
	SentAt            time.Time `bson:"sentAt"`
}

// MongoReminderRepository is the reminder ledger backed by a collection with a
// unique index on the reminder key.
type MongoReminderRepository struct {
	coll *mongo.Collection
}

func NewMongoReminderRepository(db *mongo.Database) *MongoReminderRepository {
	return &MongoReminderRepository{coll: db.Collection(remindersCollection)}
}

func keyFilter(key notification.ReminderKey) bson.D {
	return bson.D{
		{Key: "bookingId", Value: key.BookingID},
		{Key: "cleanerId", Value: key.CleanerID},
		{Key: "occurrenceStartAt", Value: key.OccurrenceStartAt.UTC()},
		{Key: "reminderType", Value: string(key.Type)},
	}
}

func reminderKeyIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{
			{Key: "bookingId", Value: 1},
			{Key: "cleanerId", Value: 1},
			{Key: "occurrenceStartAt", Value: 1},
			{Key: "reminderType", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("reminder_key_unique"),
	}
}

// EnsureIndexes creates the unique index that makes RecordOnce safe across runs.
func (r *MongoReminderRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.coll.Indexes().CreateOne(ctx, reminderKeyIndex()); err != nil {
		return fmt.Errorf("error creating reminder ledger index: %w", err)
	}
	return nil
}

func (r *MongoReminderRepository) Exists(ctx context.Context, key notification.ReminderKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.coll.FindOne(ctx, keyFilter(key), options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking cleaner reminder: %w", err)
	}
	return true, nil
}

// RecordOnce upserts with $setOnInsert so an existing record is never modified.
// Two concurrent upserts of the same key can race past the filter; the unique
// index rejects the loser with a duplicate key error.
func (r *MongoReminderRepository) RecordOnce(ctx context.Context, rec *notification.ReminderRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc := reminderDocument{
		ID:                rec.ID,
		BookingID:         rec.Key.BookingID,
		CleanerID:         rec.Key.CleanerID,
		OccurrenceStartAt: rec.Key.OccurrenceStartAt.UTC(),
		ReminderType:      string(rec.Key.Type),
		RecipientEmail:    rec.RecipientEmail,
		SentAt:            rec.SentAt.UTC(),
	}

	res, err := r.coll.UpdateOne(ctx, keyFilter(rec.Key), bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("error recording cleaner reminder: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

var _ notification.Ledger = (*MongoReminderRepository)(nil)
