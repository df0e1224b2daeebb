package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LastAirdropAt returns the timestamp of the chat's latest test-fund
// request, zero when none was ever made.
func (m *MongoDB) LastAirdropAt(ctx context.Context, chatID int64) (time.Time, error) {
	connection, err := m.connect()
	if err != nil {
		return time.Time{}, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(airdropsCollection)
	filter := bson.D{{"chat_id", chatID}}
	opts := options.FindOne().SetSort(bson.D{{"created_at", -1}})

	var doc struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	err = collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return doc.CreatedAt, nil
}

// RecordAirdrop appends a test-fund request to the timestamp log.
func (m *MongoDB) RecordAirdrop(ctx context.Context, chatID int64) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(airdropsCollection)
	doc := bson.D{
		{"chat_id", chatID},
		{"created_at", time.Now()},
	}
	_, err = collection.InsertOne(ctx, doc)
	return err
}
