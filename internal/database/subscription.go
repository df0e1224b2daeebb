package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SolBuddy/entity"
)

// GetAllSubscriptions lists every alert category, ordered by name.
func (m *MongoDB) GetAllSubscriptions(ctx context.Context) ([]entity.Subscription, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(subscriptionsCollection)
	opts := options.Find().SetSort(bson.D{{"name", 1}})

	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []entity.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// EnsureSubscription upserts an alert category by name.
func (m *MongoDB) EnsureSubscription(ctx context.Context, sub entity.Subscription) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(subscriptionsCollection)
	filter := bson.D{{"name", sub.Name}}
	update := bson.D{{"$setOnInsert", bson.D{
		{"id", sub.ID},
		{"name", sub.Name},
		{"description", sub.Description},
		{"created_at", time.Now()},
	}}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}
