package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SolBuddy/bot/workflow"
)

// SaveWorkflowState persists a chat's flow state.
func (m *MongoDB) SaveWorkflowState(ctx context.Context, state *workflow.UserState) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(workflowStatesCollection)

	state.UpdatedAt = time.Now()

	filter := bson.D{{"chat_id", state.ChatID}}
	update := bson.D{{"$set", state}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// LoadWorkflowState retrieves a chat's flow state.
func (m *MongoDB) LoadWorkflowState(ctx context.Context, chatID int64) (*workflow.UserState, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(workflowStatesCollection)

	filter := bson.D{{"chat_id", chatID}}

	var state workflow.UserState
	err = collection.FindOne(ctx, filter).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// DeleteWorkflowState removes a chat's flow state.
func (m *MongoDB) DeleteWorkflowState(ctx context.Context, chatID int64) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(workflowStatesCollection)

	filter := bson.D{{"chat_id", chatID}}

	_, err = collection.DeleteOne(ctx, filter)
	return err
}

// WorkflowStateExists checks if a chat has a saved flow state.
func (m *MongoDB) WorkflowStateExists(ctx context.Context, chatID int64) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(workflowStatesCollection)

	filter := bson.D{{"chat_id", chatID}}

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
