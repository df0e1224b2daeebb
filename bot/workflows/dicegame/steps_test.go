package dicegame_test

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"SolBuddy/bot/workflow"
	"SolBuddy/bot/workflows/dicegame"
	"SolBuddy/entity"
)

type fakeMessenger struct {
	mu     sync.Mutex
	nextID int64
	texts  []string
	roll   int64
}

func (f *fakeMessenger) SendText(chatID int64, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.texts = append(f.texts, text)
	return f.nextID, nil
}

func (f *fakeMessenger) SendInline(chatID int64, text string, rows [][]workflow.Button) (int64, error) {
	return f.SendText(chatID, text)
}

func (f *fakeMessenger) EditText(chatID, messageID int64, text string) error { return nil }
func (f *fakeMessenger) DeleteMessage(chatID, messageID int64) error         { return nil }
func (f *fakeMessenger) AnswerCallback(callbackID, text string) error        { return nil }

func (f *fakeMessenger) SendDice(chatID int64) (int64, error) {
	return f.roll, nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeWallet struct {
	payouts  []float64
	collects []float64
}

func (w *fakeWallet) PayoutFromHouse(ctx context.Context, chatID int64, amount float64) *entity.TxResult {
	w.payouts = append(w.payouts, amount)
	return &entity.TxResult{Success: true, Signature: "paysig"}
}

func (w *fakeWallet) CollectToHouse(ctx context.Context, chatID int64, amount float64) *entity.TxResult {
	w.collects = append(w.collects, amount)
	return &entity.TxResult{Success: true, Signature: "losesig"}
}

// fakeScheduler captures the settlement task so tests can run it
// synchronously.
type fakeScheduler struct {
	task func(ctx context.Context, state *workflow.UserState)
}

func (s *fakeScheduler) Schedule(chatID int64, delay time.Duration, task func(ctx context.Context, state *workflow.UserState)) {
	s.task = task
}

func newGame(m *fakeMessenger, wallet *fakeWallet, sched *fakeScheduler) *workflow.WorkflowEngine {
	log := slog.New(slog.DiscardHandler)
	engine := workflow.NewWorkflowEngine(workflow.NewMemoryStateStorage(), m, 0, log)
	engine.RegisterWorkflow(dicegame.NewDiceGameWorkflow(wallet, sched, time.Millisecond, log))
	return engine
}

// playTo drives a game to the resolving stage and returns the session state
// the settlement task would see.
func playTo(t *testing.T, engine *workflow.WorkflowEngine, bet, guess string) *workflow.UserState {
	t.Helper()
	ctx := context.Background()
	const chatID = 42

	if err := engine.StartWorkflow(ctx, chatID, chatID, dicegame.WorkflowID); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	if err := engine.HandleMessage(ctx, workflow.Event{ChatID: chatID, Text: bet}); err != nil {
		t.Fatalf("bet: %v", err)
	}

	data := workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, guess)
	ev := workflow.Event{ChatID: chatID, CallbackID: "cb", CallbackData: data}
	if err := engine.HandleCallback(ctx, ev, workflow.ParseCallback(data)); err != nil {
		t.Fatalf("guess: %v", err)
	}

	state := workflow.NewUserState(chatID, chatID, dicegame.WorkflowID, dicegame.StepResolving)
	state.MergeData(map[string]any{dicegame.KeyBet: mustFloat(t, bet), dicegame.KeyGuess: guess})
	return state
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	switch s {
	case "2":
		return 2
	case "5":
		return 5
	default:
		t.Fatalf("unexpected bet literal %q", s)
		return 0
	}
}

func TestDiceExactMatchPaysDouble(t *testing.T) {
	m := &fakeMessenger{roll: 4}
	wallet := &fakeWallet{}
	sched := &fakeScheduler{}
	engine := newGame(m, wallet, sched)

	state := playTo(t, engine, "2", "4")
	if sched.task == nil {
		t.Fatal("settlement was not scheduled")
	}
	sched.task(context.Background(), state)

	if len(wallet.payouts) != 1 || wallet.payouts[0] != 4 {
		t.Fatalf("exact match must pay 2.0x, got %v", wallet.payouts)
	}
	if !strings.Contains(m.lastText(), "You won") {
		t.Fatalf("expected win report, got %q", m.lastText())
	}
}

func TestDiceParityMatchPaysHalfExtra(t *testing.T) {
	m := &fakeMessenger{roll: 4}
	wallet := &fakeWallet{}
	sched := &fakeScheduler{}
	engine := newGame(m, wallet, sched)

	state := playTo(t, engine, "2", "even")
	sched.task(context.Background(), state)

	if len(wallet.payouts) != 1 || wallet.payouts[0] != 3 {
		t.Fatalf("parity match must pay 1.5x, got %v", wallet.payouts)
	}
}

func TestDiceMissForfeitsBet(t *testing.T) {
	m := &fakeMessenger{roll: 4}
	wallet := &fakeWallet{}
	sched := &fakeScheduler{}
	engine := newGame(m, wallet, sched)

	state := playTo(t, engine, "5", "3")
	sched.task(context.Background(), state)

	if len(wallet.payouts) != 0 {
		t.Fatalf("miss must not pay out, got %v", wallet.payouts)
	}
	if len(wallet.collects) != 1 || wallet.collects[0] != 5 {
		t.Fatalf("miss must forfeit the bet, got %v", wallet.collects)
	}
	if !strings.Contains(m.lastText(), "you lost") {
		t.Fatalf("expected loss report, got %q", m.lastText())
	}
}

func TestDiceOddParity(t *testing.T) {
	m := &fakeMessenger{roll: 3}
	wallet := &fakeWallet{}
	sched := &fakeScheduler{}
	engine := newGame(m, wallet, sched)

	state := playTo(t, engine, "2", "odd")
	sched.task(context.Background(), state)

	if len(wallet.payouts) != 1 || wallet.payouts[0] != 3 {
		t.Fatalf("odd parity on a 3 must pay 1.5x, got %v", wallet.payouts)
	}
}

func TestDiceBetBounds(t *testing.T) {
	tests := []struct {
		input    string
		accepted bool
	}{
		{"0", false},
		{"10", false}, // open upper bound
		{"-1", false},
		{"abc", false},
		{"9.99", true},
		{"0.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ctx := context.Background()
			m := &fakeMessenger{roll: 1}
			engine := newGame(m, &fakeWallet{}, &fakeScheduler{})

			if err := engine.StartWorkflow(ctx, 9, 9, dicegame.WorkflowID); err != nil {
				t.Fatalf("StartWorkflow: %v", err)
			}
			if err := engine.HandleMessage(ctx, workflow.Event{ChatID: 9, Text: tt.input}); err != nil {
				t.Fatalf("bet %q: %v", tt.input, err)
			}

			rejected := strings.Contains(m.lastText(), "more than 0 and less than 10")
			if tt.accepted && rejected {
				t.Fatalf("bet %q should be accepted", tt.input)
			}
			if !tt.accepted && !rejected {
				t.Fatalf("bet %q should be rejected, got %q", tt.input, m.lastText())
			}
		})
	}
}

func TestDiceRulesAutoTransition(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{roll: 1}
	engine := newGame(m, &fakeWallet{}, &fakeScheduler{})

	if err := engine.StartWorkflow(ctx, 1, 1, dicegame.WorkflowID); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	// Rules show first, then the bet prompt without any user input.
	if len(m.texts) != 2 {
		t.Fatalf("expected rules + bet prompt, got %v", m.texts)
	}
	if !strings.Contains(m.texts[0], "Dice Game") {
		t.Fatalf("expected rules first, got %q", m.texts[0])
	}
	if !strings.Contains(m.texts[1], "bet") {
		t.Fatalf("expected bet prompt second, got %q", m.texts[1])
	}
}
