package workflow

import "time"

// UserState represents the in-progress flow for one chat. A chat has at most
// one state at a time; its absence is the idle condition.
type UserState struct {
	ChatID      int64          `json:"chat_id" bson:"chat_id"`
	UserID      int64          `json:"user_id" bson:"user_id"`
	WorkflowID  WorkflowID     `json:"workflow_id" bson:"workflow_id"`
	CurrentStep StepID         `json:"current_step" bson:"current_step"`
	Data        map[string]any `json:"data" bson:"data"`

	// PendingPrompt references the most recent prompt carrying a confirm or
	// cancel control. It must be deleted on both terminal paths.
	PendingPrompt int64 `json:"pending_prompt" bson:"pending_prompt"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewUserState creates a new UserState positioned on the initial step.
func NewUserState(chatID, userID int64, workflowID WorkflowID, initialStep StepID) *UserState {
	now := time.Now()
	return &UserState{
		ChatID:      chatID,
		UserID:      userID,
		WorkflowID:  workflowID,
		CurrentStep: initialStep,
		Data:        make(map[string]any),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Expired reports whether the state outlived the given ttl. A zero ttl
// disables expiry.
func (s *UserState) Expired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(s.UpdatedAt) > ttl
}

// SetPendingPrompt records the message reference of the latest prompt
// bearing confirm/cancel controls.
func (s *UserState) SetPendingPrompt(messageID int64) {
	s.PendingPrompt = messageID
}

// GetString retrieves a string value from the collected data.
func (s *UserState) GetString(key string) string {
	if v, ok := s.Data[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// GetFloat retrieves a decimal value from the collected data.
func (s *UserState) GetFloat(key string) float64 {
	if v, ok := s.Data[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		case int64:
			return float64(val)
		}
	}
	return 0
}

// GetInt retrieves an integer value from the collected data.
func (s *UserState) GetInt(key string) int {
	if v, ok := s.Data[key]; ok {
		switch val := v.(type) {
		case int:
			return val
		case int32:
			return int(val)
		case int64:
			return int(val)
		case float64:
			return int(val)
		}
	}
	return 0
}

// MergeData merges validated values into the collected data. Keys are only
// written here, after their owning stage accepted the input.
func (s *UserState) MergeData(data map[string]any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	for k, v := range data {
		s.Data[k] = v
	}
}
