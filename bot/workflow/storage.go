package workflow

import (
	"context"
	"sync"
)

// MemoryStateStorage keeps flow states in process memory. This is the
// default store: sessions are ephemeral by contract and an operator restart
// abandons every open flow.
type MemoryStateStorage struct {
	mu     sync.RWMutex
	states map[int64]*UserState
}

// NewMemoryStateStorage creates an empty in-memory state store.
func NewMemoryStateStorage() *MemoryStateStorage {
	return &MemoryStateStorage{
		states: make(map[int64]*UserState),
	}
}

// Save persists a chat's workflow state.
func (s *MemoryStateStorage) Save(_ context.Context, state *UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ChatID] = state
	return nil
}

// Load retrieves a chat's workflow state, nil when idle.
func (s *MemoryStateStorage) Load(_ context.Context, chatID int64) (*UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	return state, nil
}

// Delete removes a chat's workflow state.
func (s *MemoryStateStorage) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
	return nil
}

// Exists checks if a chat has a saved state.
func (s *MemoryStateStorage) Exists(_ context.Context, chatID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.states[chatID]
	return ok, nil
}

// StateRepository defines the database operations for persisted flow state.
type StateRepository interface {
	SaveWorkflowState(ctx context.Context, state *UserState) error
	LoadWorkflowState(ctx context.Context, chatID int64) (*UserState, error)
	DeleteWorkflowState(ctx context.Context, chatID int64) error
	WorkflowStateExists(ctx context.Context, chatID int64) (bool, error)
}

// MongoStateStorage adapts the database repository to StateStorage. With it
// open flows survive a process restart, subject to the session TTL.
type MongoStateStorage struct {
	repo StateRepository
}

// NewMongoStateStorage creates a MongoDB-backed state storage.
func NewMongoStateStorage(repo StateRepository) *MongoStateStorage {
	return &MongoStateStorage{repo: repo}
}

// Save persists a chat's workflow state.
func (s *MongoStateStorage) Save(ctx context.Context, state *UserState) error {
	return s.repo.SaveWorkflowState(ctx, state)
}

// Load retrieves a chat's workflow state.
func (s *MongoStateStorage) Load(ctx context.Context, chatID int64) (*UserState, error) {
	return s.repo.LoadWorkflowState(ctx, chatID)
}

// Delete removes a chat's workflow state.
func (s *MongoStateStorage) Delete(ctx context.Context, chatID int64) error {
	return s.repo.DeleteWorkflowState(ctx, chatID)
}

// Exists checks if a chat has a saved state.
func (s *MongoStateStorage) Exists(ctx context.Context, chatID int64) (bool, error) {
	return s.repo.WorkflowStateExists(ctx, chatID)
}
