package bot

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"SolBuddy/bot/workflow"
)

type stubMessenger struct {
	texts   []string
	answers []string
}

func (m *stubMessenger) SendText(chatID int64, text string) (int64, error) {
	m.texts = append(m.texts, text)
	return 1, nil
}

func (m *stubMessenger) SendInline(chatID int64, text string, rows [][]workflow.Button) (int64, error) {
	m.texts = append(m.texts, text)
	return 1, nil
}

func (m *stubMessenger) EditText(chatID, messageID int64, text string) error { return nil }
func (m *stubMessenger) DeleteMessage(chatID, messageID int64) error         { return nil }
func (m *stubMessenger) SendDice(chatID int64) (int64, error)                { return 1, nil }

func (m *stubMessenger) AnswerCallback(callbackID, text string) error {
	m.answers = append(m.answers, text)
	return nil
}

type stubWallet struct {
	WalletService
	address string
}

func (w *stubWallet) PublicKey(ctx context.Context, chatID int64) (string, error) {
	return w.address, nil
}

func (w *stubWallet) Balance(ctx context.Context, chatID int64) (float64, error) {
	return 1.5, nil
}

type stubEngine struct {
	started []workflow.WorkflowID
}

func (e *stubEngine) StartWorkflow(ctx context.Context, chatID, userID int64, id workflow.WorkflowID) error {
	e.started = append(e.started, id)
	return nil
}

func (e *stubEngine) HandleMessage(ctx context.Context, ev workflow.Event) error { return nil }

func (e *stubEngine) HandleCallback(ctx context.Context, ev workflow.Event, data *workflow.CallbackData) error {
	return nil
}

func (e *stubEngine) OwnsDomain(domain string) bool { return false }

func newStubBot(address string) (*TgBot, *stubMessenger, *stubEngine) {
	out := &stubMessenger{}
	engine := &stubEngine{}
	b := &TgBot{
		log:    slog.New(slog.DiscardHandler),
		wallet: &stubWallet{address: address},
		engine: engine,
		out:    out,
	}
	return b, out, engine
}

func accountEvent(arg string) (workflow.Event, *workflow.CallbackData) {
	data := workflow.BuildCallback(workflow.DomainAccount, "send", arg)
	ev := workflow.Event{ChatID: 9, UserID: 9, CallbackID: "cb", CallbackData: data}
	return ev, workflow.ParseCallback(data)
}

func TestAccountActionWithoutAccountPromptsStart(t *testing.T) {
	b, out, engine := newStubBot("")

	ev, data := accountEvent("sol")
	if err := b.handleAccountAction(ev, data); err != nil {
		t.Fatal(err)
	}

	if len(engine.started) != 0 {
		t.Fatalf("no flow must start without an account, got %v", engine.started)
	}
	if len(out.answers) != 1 || !strings.Contains(out.answers[0], "/start") {
		t.Fatalf("expected the /start prompt, got %v", out.answers)
	}
}

func TestAccountActionWithAccountStartsFlow(t *testing.T) {
	b, _, engine := newStubBot("So1Addr")

	ev, data := accountEvent("sol")
	if err := b.handleAccountAction(ev, data); err != nil {
		t.Fatal(err)
	}

	if len(engine.started) != 1 {
		t.Fatalf("expected one flow start, got %v", engine.started)
	}
}

func TestSubscriptionActionWithoutAccountPromptsStart(t *testing.T) {
	b, out, engine := newStubBot("")

	data := workflow.BuildCallback(workflow.DomainSubscription, "add", "whale_alerts")
	ev := workflow.Event{ChatID: 9, CallbackID: "cb", CallbackData: data}
	if err := b.handleSubscriptionAction(ev, workflow.ParseCallback(data)); err != nil {
		t.Fatal(err)
	}

	if len(engine.started) != 0 {
		t.Fatalf("no flow must start, got %v", engine.started)
	}
	if len(out.answers) != 1 || !strings.Contains(out.answers[0], "/start") {
		t.Fatalf("expected the /start prompt, got %v", out.answers)
	}
}

func TestShowAccountWithoutAccountPromptsStart(t *testing.T) {
	b, out, _ := newStubBot("")

	if err := b.showAccount(9); err != nil {
		t.Fatal(err)
	}
	if len(out.texts) != 1 || !strings.Contains(out.texts[0], "No user found") {
		t.Fatalf("expected the no-user prompt, got %v", out.texts)
	}
}
