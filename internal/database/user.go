package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SolBuddy/entity"
)

// GetUser retrieves a user by chat identity, nil when unknown.
func (m *MongoDB) GetUser(ctx context.Context, chatID int64) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{"chat_id", chatID}}

	var user entity.User
	err = collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user with its generated custodial keypair.
func (m *MongoDB) CreateUser(ctx context.Context, user *entity.User) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	collection := connection.Database(m.database).Collection(usersCollection)
	_, err = collection.InsertOne(ctx, user)
	return err
}

// SetSubscriptions replaces the user's subscription list.
func (m *MongoDB) SetSubscriptions(ctx context.Context, chatID int64, names []string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{"chat_id", chatID}}
	update := bson.D{{"$set", bson.D{
		{"subscribed", names},
		{"updated_at", time.Now()},
	}}}

	_, err = collection.UpdateOne(ctx, filter, update)
	return err
}

// GetSubscribers lists the chat identities subscribed to an alert category.
func (m *MongoDB) GetSubscribers(ctx context.Context, category string) ([]int64, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{"subscribed", category}}
	opts := options.Find().SetProjection(bson.D{{"chat_id", 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chatIDs []int64
	for cursor.Next(ctx) {
		var doc struct {
			ChatID int64 `bson:"chat_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		chatIDs = append(chatIDs, doc.ChatID)
	}
	return chatIDs, cursor.Err()
}

// GetChatsByPublicKey lists the chat identities whose custodial account
// matches the given ledger address.
func (m *MongoDB) GetChatsByPublicKey(ctx context.Context, publicKey string) ([]int64, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{"public_key", publicKey}}
	opts := options.Find().SetProjection(bson.D{{"chat_id", 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chatIDs []int64
	for cursor.Next(ctx) {
		var doc struct {
			ChatID int64 `bson:"chat_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		chatIDs = append(chatIDs, doc.ChatID)
	}
	return chatIDs, cursor.Err()
}
