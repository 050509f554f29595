package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cleaner_reminder_service/internal/domain/booking"
)

// quoteDocument mirrors the fields of a quote document the reminder service reads.
// ObjectID fields decode into their hex strings.
type quoteDocument struct {
	ID                 string   `bson:"_id"`
	ServiceDate        string   `bson:"serviceDate"`
	PreferredTime      string   `bson:"preferredTime,omitempty"`
	CleaningFrequency  string   `bson:"cleaningFrequency,omitempty"`
	AssignedCleanerID  string   `bson:"assignedCleanerId,omitempty"`
	AssignedCleanerIDs []string `bson:"assignedCleanerIds,omitempty"`
	ServiceType        string   `bson:"serviceType,omitempty"`
	Address            string   `bson:"address,omitempty"`
}

func (d quoteDocument) toBooking() *booking.Booking {
	return &booking.Booking{
		ID:                d.ID,
		ServiceDate:       d.ServiceDate,
		PreferredTime:     d.PreferredTime,
		CleaningFrequency: d.CleaningFrequency,
		AssignedCleaners:  booking.NewRecipientSet(d.AssignedCleanerID, d.AssignedCleanerIDs...),
		ServiceType:       d.ServiceType,
		Address:           d.Address,
	}
}

// MongoBookingRepository reads reminder candidates from the quotes collection.
type MongoBookingRepository struct {
	coll          *mongo.Collection
	eligibleTypes []string
}

func NewMongoBookingRepository(db *mongo.Database, eligibleTypes []string) *MongoBookingRepository {
	return &MongoBookingRepository{
		coll:          db.Collection(quotesCollection),
		eligibleTypes: eligibleTypes,
	}
}

// dueBookingsFilter selects eligible quotes whose base date is on or before maxServiceDate.
// serviceDate is stored as YYYY-MM-DD, so string comparison orders by date.
func dueBookingsFilter(maxServiceDate string, eligibleTypes []string) bson.M {
	return bson.M{
		"serviceDate": bson.M{"$lte": maxServiceDate},
		"isDeleted":   bson.M{"$ne": true},
		"status":      bson.M{"$ne": "cancelled"},
		"bookingType": bson.M{"$in": eligibleTypes},
	}
}

func (r *MongoBookingRepository) FindDueBookings(ctx context.Context, maxServiceDate string) ([]*booking.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "serviceDate", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, dueBookingsFilter(maxServiceDate, r.eligibleTypes), opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching due quotes: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*booking.Booking, 0)
	for cursor.Next(ctx) {
		var doc quoteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding quote: %w", err)
		}
		bookings = append(bookings, doc.toBooking())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}
