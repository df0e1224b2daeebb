package transfersol_test

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"SolBuddy/bot/workflow"
	"SolBuddy/bot/workflows/transfersol"
	"SolBuddy/entity"
)

// recipient is a syntactically valid base58 32-byte address.
const recipient = "11111111111111111111111111111111"

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int64
	texts   []string
	deleted []int64
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

func (f *fakeMessenger) DeleteMessage(chatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) AnswerCallback(callbackID, text string) error { return nil }

func (f *fakeMessenger) SendDice(chatID int64) (int64, error) { return 1, nil }

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeWallet struct {
	calls   int
	lastTo  string
	lastAmt float64
}

func (w *fakeWallet) SendSol(ctx context.Context, chatID int64, toAddress string, amount float64) *entity.TxResult {
	w.calls++
	w.lastTo = toAddress
	w.lastAmt = amount
	return &entity.TxResult{Success: true, Signature: "sig123"}
}

func newEngine(m workflow.Messenger, wallet *fakeWallet) *workflow.WorkflowEngine {
	log := slog.New(slog.DiscardHandler)
	engine := workflow.NewWorkflowEngine(workflow.NewMemoryStateStorage(), m, 0, log)
	engine.RegisterWorkflow(transfersol.NewTransferSolWorkflow(wallet, log))
	return engine
}

// Full scenario: recipient, amount, review, commit, duplicate commit.
func TestTransferSolHappyPath(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{}
	wallet := &fakeWallet{}
	engine := newEngine(m, wallet)

	const chatID = 123

	if err := engine.StartWorkflow(ctx, chatID, chatID, transfersol.WorkflowID); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	if !strings.Contains(m.lastText(), "recipient's Solana address") {
		t.Fatalf("expected recipient prompt, got %q", m.lastText())
	}

	if err := engine.HandleMessage(ctx, workflow.Event{ChatID: chatID, Text: recipient}); err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if !strings.Contains(m.lastText(), "amount of $SOL") {
		t.Fatalf("expected amount prompt, got %q", m.lastText())
	}

	if err := engine.HandleMessage(ctx, workflow.Event{ChatID: chatID, Text: "2.5"}); err != nil {
		t.Fatalf("amount: %v", err)
	}
	review := m.lastText()
	if !strings.Contains(review, "2.5") || !strings.Contains(review, recipient) {
		t.Fatalf("review must show amount and recipient, got %q", review)
	}

	confirm := workflow.BuildCallback(workflow.DomainTransfer, workflow.VerbConfirm)
	ev := workflow.Event{ChatID: chatID, CallbackID: "cb1", CallbackData: confirm}
	if err := engine.HandleCallback(ctx, ev, workflow.ParseCallback(confirm)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if wallet.calls != 1 {
		t.Fatalf("commit expected once, got %d", wallet.calls)
	}
	if wallet.lastTo != recipient || wallet.lastAmt != 2.5 {
		t.Fatalf("commit got %q %v", wallet.lastTo, wallet.lastAmt)
	}
	if !strings.Contains(m.lastText(), "Transfer Successful") {
		t.Fatalf("expected success report, got %q", m.lastText())
	}

	// Duplicate commit after teardown is a silent no-op.
	ev2 := workflow.Event{ChatID: chatID, CallbackID: "cb2", CallbackData: confirm}
	if err := engine.HandleCallback(ctx, ev2, workflow.ParseCallback(confirm)); err != nil {
		t.Fatalf("duplicate confirm: %v", err)
	}
	if wallet.calls != 1 {
		t.Fatalf("duplicate confirm must not commit again, got %d", wallet.calls)
	}
}

func TestTransferSolInvalidInputsReprompt(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{}
	wallet := &fakeWallet{}
	engine := newEngine(m, wallet)

	if err := engine.StartWorkflow(ctx, 2, 2, transfersol.WorkflowID); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	// Malformed address re-prompts the same stage.
	if err := engine.HandleMessage(ctx, workflow.Event{ChatID: 2, Text: "not-an-address"}); err != nil {
		t.Fatalf("invalid recipient: %v", err)
	}
	if !strings.Contains(m.lastText(), "Invalid address") {
		t.Fatalf("expected invalid-address reprompt, got %q", m.lastText())
	}

	if err := engine.HandleMessage(ctx, workflow.Event{ChatID: 2, Text: recipient}); err != nil {
		t.Fatalf("recipient: %v", err)
	}

	for _, bad := range []string{"abc", "-1", "0", ""} {
		if err := engine.HandleMessage(ctx, workflow.Event{ChatID: 2, Text: bad}); err != nil {
			t.Fatalf("amount %q: %v", bad, err)
		}
		if !strings.Contains(m.lastText(), "valid positive number") {
			t.Fatalf("amount %q must reprompt, got %q", bad, m.lastText())
		}
	}

	if wallet.calls != 0 {
		t.Fatalf("no commit expected, got %d", wallet.calls)
	}
}

func TestTransferSolCancelTearsDown(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{}
	wallet := &fakeWallet{}
	engine := newEngine(m, wallet)

	if err := engine.StartWorkflow(ctx, 4, 4, transfersol.WorkflowID); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	cancel := workflow.BuildCallback(workflow.DomainTransfer, workflow.VerbCancel)
	ev := workflow.Event{ChatID: 4, CallbackID: "cb", CallbackData: cancel}
	if err := engine.HandleCallback(ctx, ev, workflow.ParseCallback(cancel)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(m.lastText(), "Cancelled") {
		t.Fatalf("expected cancel report, got %q", m.lastText())
	}

	active, _ := engine.HasActiveWorkflow(ctx, 4)
	if active {
		t.Fatal("session must be destroyed on cancel")
	}

	// Second cancel is a no-op: no duplicate report.
	before := len(m.texts)
	ev2 := workflow.Event{ChatID: 4, CallbackID: "cb2", CallbackData: cancel}
	if err := engine.HandleCallback(ctx, ev2, workflow.ParseCallback(cancel)); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if len(m.texts) != before {
		t.Fatal("duplicate cancel must not produce a second report")
	}
	if wallet.calls != 0 {
		t.Fatalf("no commit expected, got %d", wallet.calls)
	}
}
