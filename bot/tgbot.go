package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"SolBuddy/bot/workflow"
	"SolBuddy/bot/workflow/ui"
	"SolBuddy/bot/workflows/createtoken"
	"SolBuddy/bot/workflows/dicegame"
	"SolBuddy/bot/workflows/transfersol"
	"SolBuddy/bot/workflows/transfertoken"
	"SolBuddy/entity"
	"SolBuddy/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

var errNoDiceValue = errors.New("dice message carried no value")

// Main menu reply-keyboard labels.
const (
	menuAccount             = "🏦 My Account"
	menuViewSubscriptions   = "💳 View Subscriptions"
	menuManageSubscriptions = "⚙️ Manage Subscriptions"
	menuHelp                = "ℹ️ Help"
)

const helpText = "Here are the available commands:\n" +
	"/start - Create/Connect to Solana Buddy Bot Account.\n" +
	"/help - See available commands."

// WalletService covers the account, balance and subscription operations the
// bot surfaces directly from menus. Flow commits go through the per-flow
// interfaces instead.
type WalletService interface {
	EnsureAccount(ctx context.Context, chatID int64, username string) (*entity.User, bool, error)
	PublicKey(ctx context.Context, chatID int64) (string, error)
	Balance(ctx context.Context, chatID int64) (float64, error)
	TokenBalances(ctx context.Context, chatID int64) ([]entity.TokenBalance, error)
	Airdrop(ctx context.Context, chatID int64) *entity.TxResult
	AirdropAmount() float64
	SubscriptionsWithStatus(ctx context.Context, chatID int64) ([]entity.SubscriptionStatus, error)
	UserSubscriptions(ctx context.Context, chatID int64) ([]string, error)
	Subscribe(ctx context.Context, chatID int64, name string) error
	Unsubscribe(ctx context.Context, chatID int64, name string) error
}

// Engine is the flow orchestrator boundary consumed by the dispatcher.
type Engine interface {
	StartWorkflow(ctx context.Context, chatID, userID int64, workflowID workflow.WorkflowID) error
	HandleMessage(ctx context.Context, ev workflow.Event) error
	HandleCallback(ctx context.Context, ev workflow.Event, data *workflow.CallbackData) error
	OwnsDomain(domain string) bool
}

// TgBot is the Telegram front end: it adapts gotgbot updates into flow
// events and serves the stateless menu commands itself.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	engine      Engine
	wallet      WalletService

	// out is where handler replies go: the bot's own api-backed sends in
	// production, replaceable for tests.
	out workflow.Messenger
}

// NewTgBot creates a new bot instance.
func NewTgBot(botName, apiKey string, wallet WalletService, log *slog.Logger) (*TgBot, error) {
	bot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		botUsername: botName,
		wallet:      wallet,
	}
	bot.out = bot

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	bot.api = api

	return bot, nil
}

// SetWorkflowEngine sets the flow engine. The engine needs the bot as its
// messenger, so it is wired after construction.
func (b *TgBot) SetWorkflowEngine(engine Engine) {
	b.engine = engine
}

// Start begins polling for updates and handling them.
func (b *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Println("an error occurred while handling update:", err.Error())
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", b.handleStart))
	dispatcher.AddHandler(handlers.NewCommand("help", b.handleHelp))
	dispatcher.AddHandler(handlers.NewCallback(flowCallbackFilter, b.handleCallback))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, b.handleMessage))

	err := updater.StartPolling(b.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	b.log.Info("bot started", slog.String("username", b.botUsername))

	// Idle, to keep updates coming in
	updater.Idle()

	return nil
}

// flowCallbackFilter accepts every structured callback payload; routing by
// domain happens in handleCallback.
func flowCallbackFilter(cq *tgbotapi.CallbackQuery) bool {
	return workflow.ParseCallback(cq.Data) != nil
}

// handleStart provisions the account and shows the main menu.
func (b *TgBot) handleStart(bot *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := ctx.EffectiveChat.Id
	username := ctx.EffectiveUser.Username

	user, created, err := b.wallet.EnsureAccount(context.Background(), chatID, username)
	if err != nil {
		b.log.Error("ensuring account", slog.Int64("chat_id", chatID), sl.Err(err))
		_, _ = b.out.SendText(chatID, "Something went wrong")
		return err
	}
	if created {
		b.log.Info("account created",
			slog.Int64("chat_id", chatID),
			slog.String("public_key", user.PublicKey),
		)
	}

	keyboard := tgbotapi.ReplyKeyboardMarkup{
		Keyboard: [][]tgbotapi.KeyboardButton{
			{{Text: menuAccount}, {Text: menuViewSubscriptions}},
			{{Text: menuManageSubscriptions}, {Text: menuHelp}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}
	_, err = bot.SendMessage(chatID,
		"Welcome! I'm your Solana Buddy Telegram bot. How can I help you?",
		&tgbotapi.SendMessageOpts{ReplyMarkup: keyboard})
	return err
}

func (b *TgBot) handleHelp(bot *tgbotapi.Bot, ctx *ext.Context) error {
	_, err := b.out.SendText(ctx.EffectiveChat.Id, helpText)
	return err
}

// handleMessage forwards free text to the active flow, then runs the menu
// match. Both fire for the same message: a menu label typed mid-flow is
// first treated as stage input, and the menu action still executes.
func (b *TgBot) handleMessage(bot *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := ctx.EffectiveChat.Id
	ev := workflow.Event{
		ChatID:    chatID,
		UserID:    ctx.EffectiveUser.Id,
		MessageID: ctx.EffectiveMessage.MessageId,
		Text:      ctx.EffectiveMessage.Text,
	}

	if err := b.engine.HandleMessage(context.Background(), ev); err != nil {
		b.log.Error("flow message error", slog.Int64("chat_id", chatID), sl.Err(err))
	}

	switch ev.Text {
	case menuAccount:
		return b.showAccount(chatID)
	case menuViewSubscriptions:
		return b.showSubscriptions(chatID)
	case menuManageSubscriptions:
		return b.manageSubscriptions(chatID)
	case menuHelp:
		_, err := b.out.SendText(chatID, helpText)
		return err
	}
	return nil
}

// handleCallback routes a button press by its domain tag: flow-scoped tags
// go to the engine, account and subscription menu actions are stateless.
func (b *TgBot) handleCallback(bot *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	data := workflow.ParseCallback(cq.Data)
	if data == nil {
		return nil
	}

	ev := workflow.Event{
		ChatID:       ctx.EffectiveChat.Id,
		UserID:       ctx.EffectiveUser.Id,
		CallbackID:   cq.Id,
		CallbackData: cq.Data,
	}

	switch {
	case data.Domain == workflow.DomainAccount:
		return b.handleAccountAction(ev, data)

	case data.Domain == workflow.DomainSubscription:
		return b.handleSubscriptionAction(ev, data)

	case data.Is(workflow.DomainDice, workflow.VerbPlay):
		// "Play Again" arrives after the previous game's session is gone.
		_ = b.out.AnswerCallback(ev.CallbackID, "")
		return b.engine.StartWorkflow(context.Background(), ev.ChatID, ev.UserID, dicegame.WorkflowID)

	case b.engine.OwnsDomain(data.Domain):
		err := b.engine.HandleCallback(context.Background(), ev, data)
		if err != nil {
			b.log.Error("flow callback error",
				slog.Int64("chat_id", ev.ChatID),
				slog.String("data", cq.Data),
				sl.Err(err),
			)
		}
		return err
	}
	return nil
}

// showAccount renders the balance summary with the account action keyboard.
func (b *TgBot) showAccount(chatID int64) error {
	ctx := context.Background()

	address, err := b.wallet.PublicKey(ctx, chatID)
	if err != nil || address == "" {
		_, _ = b.out.SendText(chatID, "No user found. Please use /start to set up your account.")
		return err
	}
	balance, err := b.wallet.Balance(ctx, chatID)
	if err != nil {
		b.log.Error("fetching balance", slog.Int64("chat_id", chatID), sl.Err(err))
		_, _ = b.out.SendText(chatID, "Something went wrong")
		return err
	}

	keyboard := ui.Grid(
		[]workflow.Button{
			{Text: "📂 Open Solscan", URL: ui.AccountURL(address)},
			{Text: "📤 Send $SOL", Data: workflow.BuildCallback(workflow.DomainAccount, "send", "sol")},
		},
		[]workflow.Button{
			{Text: "💸 Get Airdrop", Data: workflow.BuildCallback(workflow.DomainAccount, "get", "airdrop")},
			{Text: "📤 Send Token", Data: workflow.BuildCallback(workflow.DomainAccount, "send", "token")},
		},
		[]workflow.Button{
			{Text: "🪙 Create Token", Data: workflow.BuildCallback(workflow.DomainAccount, "create", "token")},
			{Text: "💰 Token Balance", Data: workflow.BuildCallback(workflow.DomainAccount, "get", "tokenbalance")},
		},
		[]workflow.Button{
			{Text: "🎲 Play Dice", Data: workflow.BuildCallback(workflow.DomainAccount, "play", "dice")},
		},
	)

	_, err = b.out.SendInline(chatID, fmt.Sprintf(
		"💳 Your Solana Account Address is\n%s\n\n💵 Your Account Balance is\n%v $SOL",
		address, balance), keyboard)
	return err
}

func (b *TgBot) showSubscriptions(chatID int64) error {
	subs, err := b.wallet.UserSubscriptions(context.Background(), chatID)
	if err != nil {
		_, _ = b.out.SendText(chatID, "Error Fetching Subscriptions")
		return err
	}
	if len(subs) == 0 {
		_, err = b.out.SendText(chatID, "You have no subscriptions yet.")
		return err
	}
	_, err = b.out.SendText(chatID, "List of your Subscriptions:\n\n"+strings.Join(subs, "\n"))
	return err
}

// manageSubscriptions sends one card per alert category with an add or
// remove control reflecting the chat's current status.
func (b *TgBot) manageSubscriptions(chatID int64) error {
	subs, err := b.wallet.SubscriptionsWithStatus(context.Background(), chatID)
	if err != nil {
		_, _ = b.out.SendText(chatID, "Error Fetching Subscriptions")
		return err
	}

	for _, sub := range subs {
		verb, label := "add", "✅ Add"
		status := "Not subscribed"
		if sub.IsSubscribed {
			verb, label = "remove", "❌ Remove"
			status = "Subscribed"
		}
		text := fmt.Sprintf("Subscription: %s\nDescription: %s\nStatus: %s",
			displayName(sub.Name), sub.Description, status)
		_, err := b.out.SendInline(chatID, text, ui.CancelRow(label,
			workflow.BuildCallback(workflow.DomainSubscription, verb, sub.Name)))
		if err != nil {
			b.log.Error("sending subscription card",
				slog.Int64("chat_id", chatID),
				slog.String("subscription", sub.Name),
				sl.Err(err),
			)
		}
	}
	return nil
}

func (b *TgBot) handleAccountAction(ev workflow.Event, data *workflow.CallbackData) error {
	ctx := context.Background()

	if address, err := b.wallet.PublicKey(ctx, ev.ChatID); err != nil || address == "" {
		return b.out.AnswerCallback(ev.CallbackID, "User not found. Please use /start to set up your account.")
	}

	switch {
	case data.Is(workflow.DomainAccount, "send") && data.Arg == "sol":
		_ = b.out.AnswerCallback(ev.CallbackID, "")
		return b.engine.StartWorkflow(ctx, ev.ChatID, ev.UserID, transfersol.WorkflowID)

	case data.Is(workflow.DomainAccount, "send") && data.Arg == "token":
		_ = b.out.AnswerCallback(ev.CallbackID, "")
		return b.engine.StartWorkflow(ctx, ev.ChatID, ev.UserID, transfertoken.WorkflowID)

	case data.Is(workflow.DomainAccount, "create") && data.Arg == "token":
		_ = b.out.AnswerCallback(ev.CallbackID, "")
		return b.engine.StartWorkflow(ctx, ev.ChatID, ev.UserID, createtoken.WorkflowID)

	case data.Is(workflow.DomainAccount, "play") && data.Arg == "dice":
		_ = b.out.AnswerCallback(ev.CallbackID, "")
		return b.engine.StartWorkflow(ctx, ev.ChatID, ev.UserID, dicegame.WorkflowID)

	case data.Is(workflow.DomainAccount, "get") && data.Arg == "airdrop":
		_ = b.out.AnswerCallback(ev.CallbackID, "")
		result := b.wallet.Airdrop(ctx, ev.ChatID)
		if result.Success {
			_, err := b.out.SendInline(ev.ChatID,
				fmt.Sprintf("💸 Airdrop of %v $SOL received!", b.wallet.AirdropAmount()),
				ui.LinkRow("🔗 Check Transaction", ui.TxURL(result.Signature)))
			return err
		}
		_, err := b.out.SendText(ev.ChatID, result.Reason)
		return err

	case data.Is(workflow.DomainAccount, "get") && data.Arg == "tokenbalance":
		_ = b.out.AnswerCallback(ev.CallbackID, "")
		return b.showTokenBalances(ev.ChatID)
	}
	return nil
}

func (b *TgBot) showTokenBalances(chatID int64) error {
	balances, err := b.wallet.TokenBalances(context.Background(), chatID)
	if err != nil {
		_, _ = b.out.SendText(chatID, "Error Fetching Tokens")
		return err
	}
	if len(balances) == 0 {
		_, err = b.out.SendText(chatID, "No Tokens Found")
		return err
	}

	var sb strings.Builder
	sb.WriteString("💰 Your token balances:\n\n")
	for i, token := range balances {
		fmt.Fprintf(&sb, "#%d\nMint: %s\nBalance: %v\n\n", i+1, token.Mint, token.Amount)
	}
	_, err = b.out.SendText(chatID, sb.String())
	return err
}

func (b *TgBot) handleSubscriptionAction(ev workflow.Event, data *workflow.CallbackData) error {
	ctx := context.Background()

	if address, err := b.wallet.PublicKey(ctx, ev.ChatID); err != nil || address == "" {
		return b.out.AnswerCallback(ev.CallbackID, "User not found. Please use /start to set up your account.")
	}

	switch data.Verb {
	case "add":
		if err := b.wallet.Subscribe(ctx, ev.ChatID, data.Arg); err != nil {
			b.log.Error("subscribing", slog.Int64("chat_id", ev.ChatID), sl.Err(err))
			return b.out.AnswerCallback(ev.CallbackID, "Something went wrong")
		}
		return b.out.AnswerCallback(ev.CallbackID, "Alert added successfully!")
	case "remove":
		if err := b.wallet.Unsubscribe(ctx, ev.ChatID, data.Arg); err != nil {
			b.log.Error("unsubscribing", slog.Int64("chat_id", ev.ChatID), sl.Err(err))
			return b.out.AnswerCallback(ev.CallbackID, "Something went wrong")
		}
		return b.out.AnswerCallback(ev.CallbackID, "Alert removed successfully!")
	}
	return nil
}

// displayName turns a snake_case category id into a title-cased label.
func displayName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
