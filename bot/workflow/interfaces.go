package workflow

import "context"

// StepID is a unique identifier for a step within a workflow.
type StepID string

// WorkflowID is a unique identifier for a workflow.
type WorkflowID string

// Button is one inline control attached to a prompt.
type Button struct {
	Text string
	Data string
	URL  string
}

// Event is one inbound chat event, already stripped of transport detail.
// Exactly one of Text / CallbackData carries the payload.
type Event struct {
	ChatID       int64
	UserID       int64
	MessageID    int64
	Text         string
	CallbackID   string
	CallbackData string
}

// Messenger is the chat transport boundary used by steps and the engine.
// Prompt-sending methods return the message reference needed for later
// cleanup.
type Messenger interface {
	// SendText sends a plain prompt and returns its message reference.
	SendText(chatID int64, text string) (int64, error)

	// SendInline sends a prompt with inline controls attached.
	SendInline(chatID int64, text string, rows [][]Button) (int64, error)

	// EditText replaces the text of a previously sent message.
	EditText(chatID, messageID int64, text string) error

	// DeleteMessage removes a previously sent message. Deleting an already
	// deleted message is not an error.
	DeleteMessage(chatID, messageID int64) error

	// AnswerCallback acknowledges a button press, optionally with a toast.
	AnswerCallback(callbackID, text string) error

	// SendDice sends an animated dice roll and returns the rolled value.
	SendDice(chatID int64) (int64, error)
}

// StepResult represents the outcome of handling an event in a step.
type StepResult struct {
	NextStep    StepID
	UpdateState map[string]any
	Complete    bool
	Error       error
}

// Step defines the interface for a single workflow step.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// Enter is called when the user enters this step. It sends the step's
	// prompt. Return a StepResult with NextStep set to auto-transition
	// without waiting for user input.
	Enter(ctx context.Context, m Messenger, state *UserState) StepResult

	// HandleMessage processes a free-text message from the user.
	HandleMessage(ctx context.Context, m Messenger, ev Event, state *UserState) StepResult

	// HandleCallback processes a button press scoped to this workflow.
	HandleCallback(ctx context.Context, m Messenger, ev Event, state *UserState, data *CallbackData) StepResult
}

// Workflow defines the interface for a complete workflow.
type Workflow interface {
	// ID returns the unique identifier for this workflow.
	ID() WorkflowID

	// InitialStep returns the first step of the workflow.
	InitialStep() StepID

	// GetStep returns a step by its ID.
	GetStep(id StepID) (Step, bool)

	// Domain returns the callback domain tags this workflow owns.
	Domain() []string
}

// StateStorage handles persistence of workflow states.
type StateStorage interface {
	// Save persists a chat's workflow state.
	Save(ctx context.Context, state *UserState) error

	// Load retrieves a chat's workflow state, nil when idle.
	Load(ctx context.Context, chatID int64) (*UserState, error)

	// Delete removes a chat's workflow state.
	Delete(ctx context.Context, chatID int64) error

	// Exists checks if a chat has a saved state.
	Exists(ctx context.Context, chatID int64) (bool, error)
}
