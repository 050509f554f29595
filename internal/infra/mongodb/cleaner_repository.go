package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cleaner_reminder_service/internal/domain/cleaner"
)

// userDocument decodes _id as a string; the default string codec turns an
// ObjectID into its hex form, which is how cleaner IDs travel through the service.
type userDocument struct {
	ID       string `bson:"_id"`
	FullName string `bson:"fullName"`
	Email    string `bson:"email"`
}

// MongoCleanerRepository resolves cleaner contacts from the users collection.
type MongoCleanerRepository struct {
	coll *mongo.Collection
}

func NewMongoCleanerRepository(db *mongo.Database) *MongoCleanerRepository {
	return &MongoCleanerRepository{coll: db.Collection(usersCollection)}
}

// idValues matches both ObjectID and plain string _ids. Cleaner IDs arrive as
// hex strings, which never equal an ObjectID in a query.
func idValues(ids []string) []interface{} {
	values := make([]interface{}, 0, 2*len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			values = append(values, oid)
		}
		values = append(values, id)
	}
	return values
}

func cleanerContactsFilter(ids []string) bson.M {
	return bson.M{
		"_id":       bson.M{"$in": idValues(ids)},
		"role":      "cleaner",
		"isDeleted": bson.M{"$ne": true},
	}
}

func (r *MongoCleanerRepository) GetContactsByIDs(ctx context.Context, ids []string) (map[string]cleaner.Contact, error) {
	contacts := make(map[string]cleaner.Contact, len(ids))
	if len(ids) == 0 {
		return contacts, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1, "fullName": 1, "email": 1})
	cursor, err := r.coll.Find(ctx, cleanerContactsFilter(ids), opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching cleaner contacts: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding cleaner contact: %w", err)
		}
		contacts[doc.ID] = cleaner.Contact{ID: doc.ID, FullName: doc.FullName, Email: doc.Email}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return contacts, nil
}
