package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"SolBuddy/internal/lib/sl"
)

// WorkflowEngine routes chat events to the active flow's current step and
// owns the session lifecycle. All state access for one chat happens under
// that chat's lock, so two rapid events for the same chat are strictly
// ordered while different chats stay fully concurrent.
type WorkflowEngine struct {
	workflows map[WorkflowID]Workflow
	domains   map[string]WorkflowID
	storage   StateStorage
	messenger Messenger
	ttl       time.Duration
	log       *slog.Logger

	locks sync.Map // chatID -> *sync.Mutex

	timersMu sync.Mutex
	timers   map[int64]*time.Timer // scheduled one-shot resolutions
}

// NewWorkflowEngine creates a new workflow engine. A zero ttl disables
// session expiry.
func NewWorkflowEngine(storage StateStorage, messenger Messenger, ttl time.Duration, log *slog.Logger) *WorkflowEngine {
	return &WorkflowEngine{
		workflows: make(map[WorkflowID]Workflow),
		domains:   make(map[string]WorkflowID),
		storage:   storage,
		messenger: messenger,
		ttl:       ttl,
		log:       log.With(sl.Module("workflow.engine")),
	}
}

// RegisterWorkflow adds a workflow to the engine and claims its callback
// domains.
func (e *WorkflowEngine) RegisterWorkflow(w Workflow) {
	e.workflows[w.ID()] = w
	for _, d := range w.Domain() {
		e.domains[d] = w.ID()
	}
	e.log.Info("registered workflow", slog.String("workflow_id", string(w.ID())))
}

// OwnsDomain reports whether a callback domain tag belongs to a registered
// workflow.
func (e *WorkflowEngine) OwnsDomain(domain string) bool {
	_, ok := e.domains[domain]
	return ok
}

func (e *WorkflowEngine) chatLock(chatID int64) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(chatID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// StartWorkflow begins a new flow for a chat, replacing any flow already
// open there.
func (e *WorkflowEngine) StartWorkflow(ctx context.Context, chatID, userID int64, workflowID WorkflowID) error {
	mu := e.chatLock(chatID)
	mu.Lock()
	defer mu.Unlock()

	w, ok := e.workflows[workflowID]
	if !ok {
		return fmt.Errorf("workflow not found: %s", workflowID)
	}

	// Starting a new flow abandons the previous one for this chat.
	if err := e.clearLocked(ctx, chatID); err != nil {
		return fmt.Errorf("clearing previous state: %w", err)
	}

	state := NewUserState(chatID, userID, workflowID, w.InitialStep())
	if err := e.storage.Save(ctx, state); err != nil {
		return fmt.Errorf("saving initial state: %w", err)
	}

	step, ok := w.GetStep(w.InitialStep())
	if !ok {
		return fmt.Errorf("initial step not found: %s", w.InitialStep())
	}

	e.log.Info("starting workflow",
		slog.Int64("chat_id", chatID),
		slog.String("workflow_id", string(workflowID)),
		slog.String("step_id", string(w.InitialStep())),
	)

	result := step.Enter(ctx, e.messenger, state)
	return e.processResult(ctx, state, w, result)
}

// HandleMessage routes a free-text message to the current step. Without an
// active session it is a no-op.
func (e *WorkflowEngine) HandleMessage(ctx context.Context, ev Event) error {
	mu := e.chatLock(ev.ChatID)
	mu.Lock()
	defer mu.Unlock()

	state, w, step, err := e.current(ctx, ev.ChatID)
	if err != nil || state == nil {
		return err
	}

	result := step.HandleMessage(ctx, e.messenger, ev, state)
	return e.processResult(ctx, state, w, result)
}

// HandleCallback routes a flow-scoped button press to the current step.
// A press for a chat with no matching session is acknowledged and dropped.
func (e *WorkflowEngine) HandleCallback(ctx context.Context, ev Event, data *CallbackData) error {
	mu := e.chatLock(ev.ChatID)
	mu.Lock()
	defer mu.Unlock()

	state, w, step, err := e.current(ctx, ev.ChatID)
	if err != nil {
		return err
	}
	if state == nil || e.domains[data.Domain] != state.WorkflowID {
		// Duplicate press after teardown, or a stale control from another
		// flow kind. Acknowledge so the client stops spinning, do nothing.
		_ = e.messenger.AnswerCallback(ev.CallbackID, "")
		return nil
	}

	result := step.HandleCallback(ctx, e.messenger, ev, state, data)
	return e.processResult(ctx, state, w, result)
}

// HasActiveWorkflow checks if a chat has an open flow.
func (e *WorkflowEngine) HasActiveWorkflow(ctx context.Context, chatID int64) (bool, error) {
	return e.storage.Exists(ctx, chatID)
}

// ClearState removes the flow state for a chat and cancels any scheduled
// resolution.
func (e *WorkflowEngine) ClearState(ctx context.Context, chatID int64) error {
	mu := e.chatLock(chatID)
	mu.Lock()
	defer mu.Unlock()
	return e.clearLocked(ctx, chatID)
}

// Schedule registers a one-shot task against the chat's active session,
// replacing any task already pending there. When the delay elapses the task
// runs under the chat lock with the still-live state, and the session is
// destroyed after it returns. Clearing the session first cancels the task.
func (e *WorkflowEngine) Schedule(chatID int64, delay time.Duration, task func(ctx context.Context, state *UserState)) {
	e.timersMu.Lock()
	if t, ok := e.timers[chatID]; ok {
		t.Stop()
	}
	if e.timers == nil {
		e.timers = make(map[int64]*time.Timer)
	}
	e.timers[chatID] = time.AfterFunc(delay, func() {
		ctx := context.Background()
		mu := e.chatLock(chatID)
		mu.Lock()
		defer mu.Unlock()

		e.timersMu.Lock()
		delete(e.timers, chatID)
		e.timersMu.Unlock()

		state, err := e.storage.Load(ctx, chatID)
		if err != nil || state == nil {
			return // session abandoned before the task fired
		}
		task(ctx, state)
		if err := e.storage.Delete(ctx, chatID); err != nil {
			e.log.Error("deleting state after scheduled task",
				slog.Int64("chat_id", chatID), sl.Err(err))
		}
	})
	e.timersMu.Unlock()
}

// current loads the chat's session, applying lazy expiry, and resolves its
// workflow and step. Must be called with the chat lock held.
func (e *WorkflowEngine) current(ctx context.Context, chatID int64) (*UserState, Workflow, Step, error) {
	state, err := e.storage.Load(ctx, chatID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading state: %w", err)
	}
	if state == nil {
		return nil, nil, nil, nil
	}

	if state.Expired(e.ttl) {
		if err := e.clearLocked(ctx, chatID); err != nil {
			return nil, nil, nil, err
		}
		e.log.Info("session expired",
			slog.Int64("chat_id", chatID),
			slog.String("workflow_id", string(state.WorkflowID)),
		)
		_, _ = e.messenger.SendText(chatID, "Your previous operation timed out and was cancelled. Start again from the menu.")
		return nil, nil, nil, nil
	}

	w, ok := e.workflows[state.WorkflowID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("workflow not found: %s", state.WorkflowID)
	}
	step, ok := w.GetStep(state.CurrentStep)
	if !ok {
		return nil, nil, nil, fmt.Errorf("step not found: %s", state.CurrentStep)
	}
	return state, w, step, nil
}

// clearLocked deletes state and cancels the pending timer. Must be called
// with the chat lock held.
func (e *WorkflowEngine) clearLocked(ctx context.Context, chatID int64) error {
	e.timersMu.Lock()
	if t, ok := e.timers[chatID]; ok {
		t.Stop()
		delete(e.timers, chatID)
	}
	e.timersMu.Unlock()
	return e.storage.Delete(ctx, chatID)
}

// processResult applies a step handler's outcome to the session. Must be
// called with the chat lock held.
func (e *WorkflowEngine) processResult(ctx context.Context, state *UserState, w Workflow, result StepResult) error {
	if result.Error != nil {
		e.log.Error("step error",
			slog.Int64("chat_id", state.ChatID),
			slog.String("step_id", string(state.CurrentStep)),
			sl.Err(result.Error),
		)
		return result.Error
	}

	if result.UpdateState != nil {
		state.MergeData(result.UpdateState)
	}
	state.UpdatedAt = time.Now()

	// Terminal transition: the session is destroyed synchronously, before
	// anything else can observe it.
	if result.Complete {
		e.log.Info("workflow completed",
			slog.Int64("chat_id", state.ChatID),
			slog.String("workflow_id", string(state.WorkflowID)),
		)
		return e.clearLocked(ctx, state.ChatID)
	}

	if result.NextStep != "" && result.NextStep != state.CurrentStep {
		state.CurrentStep = result.NextStep
		if err := e.storage.Save(ctx, state); err != nil {
			return fmt.Errorf("saving state after transition: %w", err)
		}

		step, ok := w.GetStep(result.NextStep)
		if !ok {
			return fmt.Errorf("next step not found: %s", result.NextStep)
		}

		e.log.Debug("transitioning to step",
			slog.Int64("chat_id", state.ChatID),
			slog.String("step_id", string(result.NextStep)),
		)

		next := step.Enter(ctx, e.messenger, state)
		return e.processResult(ctx, state, w, next)
	}

	// Re-prompt or in-place update: same stage, keep collected fields.
	return e.storage.Save(ctx, state)
}
