package repository

import (
	"context"
	"fmt"

	"tripmind/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTrips struct {
	coll *mongo.Collection
}

func NewTripRepository(db *mongo.Database) TripRepository {
	return &mongoTrips{coll: db.Collection(tripsCollection)}
}

func (r *mongoTrips) Create(ctx context.Context, t *models.Trip) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (r *mongoTrips) List(ctx context.Context) ([]models.TripView, error) {
	pipeline := mongo.Pipeline{
		{{"$sort", bson.D{{"createdAt", -1}, {"_id", -1}}}},
	}
	pipeline = append(pipeline, resolveUser("user")...)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate trips: %w", err)
	}
	defer cursor.Close(ctx)

	trips := []models.TripView{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("decode trips: %w", err)
	}
	if trips == nil {
		trips = []models.TripView{}
	}
	return trips, nil
}

// resolveUser replaces the ObjectID stored in field with the referenced
// user's _id, name and email. Dangling or missing references drop the field.
func resolveUser(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{"$lookup", bson.D{
			{"from", usersCollection},
			{"localField", field},
			{"foreignField", "_id"},
			{"as", field},
		}}},
		{{"$unwind", bson.D{
			{"path", "$" + field},
			{"preserveNullAndEmptyArrays", true},
		}}},
		{{"$project", bson.D{
			{field + ".password", 0},
			{field + ".createdAt", 0},
		}}},
	}
}
