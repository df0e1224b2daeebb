package workflow

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeMessenger records outbound traffic for assertions.
type fakeMessenger struct {
	mu       sync.Mutex
	nextID   int64
	texts    []string
	deleted  []int64
	answered []string
	dice     int64
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{dice: 4}
}

func (f *fakeMessenger) SendText(chatID int64, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.texts = append(f.texts, text)
	return f.nextID, nil
}

func (f *fakeMessenger) SendInline(chatID int64, text string, rows [][]Button) (int64, error) {
	return f.SendText(chatID, text)
}

func (f *fakeMessenger) EditText(chatID, messageID int64, text string) error { return nil }

func (f *fakeMessenger) DeleteMessage(chatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) AnswerCallback(callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeMessenger) SendDice(chatID int64) (int64, error) {
	return f.dice, nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

// echoStep advances to the next step on any message and completes on any
// confirm callback, counting commits.
type echoStep struct {
	BaseStep
	next    StepID
	commits *int
}

func (s *echoStep) Enter(ctx context.Context, m Messenger, state *UserState) StepResult {
	msgID, err := m.SendText(state.ChatID, "prompt:"+string(s.StepID))
	if err != nil {
		return StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return StepResult{}
}

func (s *echoStep) HandleMessage(ctx context.Context, m Messenger, ev Event, state *UserState) StepResult {
	if s.next != "" {
		return StepResult{NextStep: s.next, UpdateState: map[string]any{string(s.StepID): ev.Text}}
	}
	return StepResult{}
}

func (s *echoStep) HandleCallback(ctx context.Context, m Messenger, ev Event, state *UserState, data *CallbackData) StepResult {
	if data.IsConfirm() {
		*s.commits++
		return StepResult{Complete: true}
	}
	if data.IsCancel() {
		return StepResult{Complete: true}
	}
	return StepResult{}
}

type fakeWorkflow struct {
	id      WorkflowID
	steps   map[StepID]Step
	initial StepID
	domain  string
}

func (w *fakeWorkflow) ID() WorkflowID      { return w.id }
func (w *fakeWorkflow) InitialStep() StepID { return w.initial }
func (w *fakeWorkflow) GetStep(id StepID) (Step, bool) {
	s, ok := w.steps[id]
	return s, ok
}
func (w *fakeWorkflow) Domain() []string { return []string{w.domain} }

func newTwoStepWorkflow(commits *int) *fakeWorkflow {
	first := &echoStep{BaseStep: BaseStep{StepID: "first"}, next: "second", commits: commits}
	second := &echoStep{BaseStep: BaseStep{StepID: "second"}, commits: commits}
	return &fakeWorkflow{
		id:      "fake",
		initial: "first",
		domain:  "fake",
		steps:   map[StepID]Step{"first": first, "second": second},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	commits := 0
	engine := NewWorkflowEngine(NewMemoryStateStorage(), m, 0, testLogger())
	engine.RegisterWorkflow(newTwoStepWorkflow(&commits))

	if err := engine.StartWorkflow(ctx, 1, 1, "fake"); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	if got := m.lastText(); got != "prompt:first" {
		t.Fatalf("expected first prompt, got %q", got)
	}

	if err := engine.HandleMessage(ctx, Event{ChatID: 1, Text: "hello"}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := m.lastText(); got != "prompt:second" {
		t.Fatalf("expected second prompt, got %q", got)
	}

	ev := Event{ChatID: 1, CallbackID: "cb1", CallbackData: "fake_confirm"}
	if err := engine.HandleCallback(ctx, ev, ParseCallback(ev.CallbackData)); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if commits != 1 {
		t.Fatalf("expected 1 commit, got %d", commits)
	}

	active, err := engine.HasActiveWorkflow(ctx, 1)
	if err != nil || active {
		t.Fatalf("session should be gone after commit, active=%v err=%v", active, err)
	}
}

func TestEngineDuplicateConfirmIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	commits := 0
	engine := NewWorkflowEngine(NewMemoryStateStorage(), m, 0, testLogger())
	engine.RegisterWorkflow(newTwoStepWorkflow(&commits))

	if err := engine.StartWorkflow(ctx, 7, 7, "fake"); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	if err := engine.HandleMessage(ctx, Event{ChatID: 7, Text: "x"}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	data := ParseCallback("fake_confirm")
	first := Event{ChatID: 7, CallbackID: "cb1", CallbackData: "fake_confirm"}
	second := Event{ChatID: 7, CallbackID: "cb2", CallbackData: "fake_confirm"}

	if err := engine.HandleCallback(ctx, first, data); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if err := engine.HandleCallback(ctx, second, data); err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	if commits != 1 {
		t.Fatalf("commit must run at most once, got %d", commits)
	}
	// The duplicate press is still acknowledged.
	if len(m.answered) == 0 || m.answered[len(m.answered)-1] != "cb2" {
		t.Fatalf("duplicate press was not acknowledged: %v", m.answered)
	}
}

func TestEngineMessageWithoutSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	commits := 0
	engine := NewWorkflowEngine(NewMemoryStateStorage(), m, 0, testLogger())
	engine.RegisterWorkflow(newTwoStepWorkflow(&commits))

	if err := engine.HandleMessage(ctx, Event{ChatID: 9, Text: "stray"}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(m.texts) != 0 {
		t.Fatalf("no prompt expected for idle chat, got %v", m.texts)
	}
}

func TestEngineCallbackForOtherDomainDropped(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	commits := 0
	engine := NewWorkflowEngine(NewMemoryStateStorage(), m, 0, testLogger())
	engine.RegisterWorkflow(newTwoStepWorkflow(&commits))

	other := &fakeWorkflow{
		id:      "other",
		initial: "first",
		domain:  "other",
		steps:   map[StepID]Step{"first": &echoStep{BaseStep: BaseStep{StepID: "first"}, commits: &commits}},
	}
	engine.RegisterWorkflow(other)

	if err := engine.StartWorkflow(ctx, 3, 3, "fake"); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	// A stale control from another flow kind must not reach the session.
	ev := Event{ChatID: 3, CallbackID: "cb", CallbackData: "other_confirm"}
	if err := engine.HandleCallback(ctx, ev, ParseCallback(ev.CallbackData)); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if commits != 0 {
		t.Fatalf("foreign callback must not commit, got %d", commits)
	}
	active, _ := engine.HasActiveWorkflow(ctx, 3)
	if !active {
		t.Fatal("session must survive a foreign callback")
	}
}

func TestEngineSessionExpiry(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	commits := 0
	engine := NewWorkflowEngine(NewMemoryStateStorage(), m, 10*time.Millisecond, testLogger())
	engine.RegisterWorkflow(newTwoStepWorkflow(&commits))

	if err := engine.StartWorkflow(ctx, 5, 5, "fake"); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if err := engine.HandleMessage(ctx, Event{ChatID: 5, Text: "late"}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	active, _ := engine.HasActiveWorkflow(ctx, 5)
	if active {
		t.Fatal("expired session must be cleared on access")
	}
	if got := m.lastText(); got == "prompt:second" {
		t.Fatal("expired session must not advance")
	}
}

func TestEngineScheduleCancelledByClear(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	commits := 0
	engine := NewWorkflowEngine(NewMemoryStateStorage(), m, 0, testLogger())
	engine.RegisterWorkflow(newTwoStepWorkflow(&commits))

	if err := engine.StartWorkflow(ctx, 11, 11, "fake"); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	fired := make(chan struct{}, 1)
	engine.Schedule(11, 20*time.Millisecond, func(ctx context.Context, state *UserState) {
		fired <- struct{}{}
	})

	if err := engine.ClearState(ctx, 11); err != nil {
		t.Fatalf("ClearState: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("scheduled task must not fire after the session is cleared")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestEngineScheduleRunsAndTearsDown(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	commits := 0
	engine := NewWorkflowEngine(NewMemoryStateStorage(), m, 0, testLogger())
	engine.RegisterWorkflow(newTwoStepWorkflow(&commits))

	if err := engine.StartWorkflow(ctx, 13, 13, "fake"); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	fired := make(chan struct{}, 1)
	engine.Schedule(13, 5*time.Millisecond, func(ctx context.Context, state *UserState) {
		if state.ChatID != 13 {
			t.Errorf("task saw wrong chat: %d", state.ChatID)
		}
		fired <- struct{}{}
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled task did not fire")
	}

	// Teardown happens under the chat lock right after the task returns.
	deadline := time.Now().Add(time.Second)
	for {
		active, _ := engine.HasActiveWorkflow(ctx, 13)
		if !active {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session must be destroyed after the scheduled task")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
