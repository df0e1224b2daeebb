package dicegame

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"SolBuddy/bot/workflow"
	"SolBuddy/bot/workflow/ui"
	"SolBuddy/internal/lib/sl"
)

var (
	cancelData    = workflow.BuildCallback(workflow.DomainDice, workflow.VerbCancel)
	playAgainData = workflow.BuildCallback(workflow.DomainDice, workflow.VerbPlay)
)

var validGuesses = map[string]bool{
	"1": true, "2": true, "3": true, "4": true, "5": true, "6": true,
	"even": true, "odd": true,
}

func cancelKeyboard() [][]workflow.Button {
	return ui.CancelRow("❌ End Game", cancelData)
}

func cancelFlow(m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	_ = m.AnswerCallback(ev.CallbackID, "")
	_, _ = m.SendText(state.ChatID, "🎲 Game ended. Come back any time!")
	if state.PendingPrompt != 0 {
		_ = m.DeleteMessage(state.ChatID, state.PendingPrompt)
	}
	return workflow.StepResult{Complete: true}
}

// RulesStep shows the game rules, then moves straight to the bet stage.
type RulesStep struct {
	workflow.BaseStep
}

func NewRulesStep() *RulesStep {
	return &RulesStep{BaseStep: workflow.BaseStep{StepID: StepRules}}
}

func (s *RulesStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	rules := "🎲 Dice Game 🎲\n\n" +
		"Guess the roll of a dice and win $SOL!\n\n" +
		"- Guess the exact number (1-6): win 2x your bet\n" +
		"- Guess even or odd: win 1.5x your bet\n" +
		"- Wrong guess: your bet goes to the house"
	if _, err := m.SendText(state.ChatID, rules); err != nil {
		return workflow.StepResult{Error: err}
	}
	return workflow.StepResult{NextStep: StepAwaitingBet}
}

// BetStep collects the wager, bounded to the open interval (0, 10).
type BetStep struct {
	workflow.BaseStep
}

func NewBetStep() *BetStep {
	return &BetStep{BaseStep: workflow.BaseStep{StepID: StepAwaitingBet}}
}

func (s *BetStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID,
		"How much $SOL would you like to bet? (more than 0 and less than 10)", cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *BetStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	bet, err := strconv.ParseFloat(strings.TrimSpace(ev.Text), 64)
	if err != nil || math.IsNaN(bet) || bet <= 0 || bet >= 10 {
		msgID, sendErr := m.SendInline(state.ChatID,
			"Please enter a $SOL amount more than 0 and less than 10.", cancelKeyboard())
		if sendErr != nil {
			return workflow.StepResult{Error: sendErr}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepAwaitingGuess,
		UpdateState: map[string]any{KeyBet: bet},
	}
}

func (s *BetStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	if data.IsCancel() {
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// GuessStep presents the guess keyboard: exact numbers and parity.
type GuessStep struct {
	workflow.BaseStep
}

func NewGuessStep() *GuessStep {
	return &GuessStep{BaseStep: workflow.BaseStep{StepID: StepAwaitingGuess}}
}

func (s *GuessStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	keyboard := ui.Grid(
		[]workflow.Button{
			{Text: "1", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "1")},
			{Text: "2", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "2")},
			{Text: "3", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "3")},
		},
		[]workflow.Button{
			{Text: "4", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "4")},
			{Text: "5", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "5")},
			{Text: "6", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "6")},
		},
		[]workflow.Button{
			{Text: "Even", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "even")},
			{Text: "Odd", Data: workflow.BuildCallback(workflow.DomainDice, workflow.VerbGuess, "odd")},
		},
		[]workflow.Button{
			{Text: "❌ End Game", Data: cancelData},
		},
	)
	msgID, err := m.SendInline(state.ChatID, "Great! Now choose your guess:", keyboard)
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *GuessStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	switch {
	case data.Verb == workflow.VerbGuess && validGuesses[data.Arg]:
		_ = m.AnswerCallback(ev.CallbackID, "")
		if state.PendingPrompt != 0 {
			_ = m.DeleteMessage(state.ChatID, state.PendingPrompt)
			state.SetPendingPrompt(0)
		}
		_, _ = m.SendText(state.ChatID,
			fmt.Sprintf("You choose %q ... Wait for dice to roll", data.Arg))
		return workflow.StepResult{
			NextStep:    StepResolving,
			UpdateState: map[string]any{KeyGuess: data.Arg},
		}

	case data.IsCancel():
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// ResolvingStep rolls the dice and settles the wager on a fixed delay so
// the animation finishes before the payout is revealed. Settlement runs as
// a scheduled task owned by the engine; abandoning the session cancels it.
type ResolvingStep struct {
	workflow.BaseStep
	wallet    Wallet
	scheduler Scheduler
	delay     time.Duration
	log       *slog.Logger
}

func NewResolvingStep(wallet Wallet, scheduler Scheduler, delay time.Duration, log *slog.Logger) *ResolvingStep {
	return &ResolvingStep{
		BaseStep:  workflow.BaseStep{StepID: StepResolving},
		wallet:    wallet,
		scheduler: scheduler,
		delay:     delay,
		log:       log.With(sl.Module("dicegame")),
	}
}

func (s *ResolvingStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	roll, err := m.SendDice(state.ChatID)
	if err != nil {
		return workflow.StepResult{Error: err}
	}

	s.scheduler.Schedule(state.ChatID, s.delay, func(ctx context.Context, state *workflow.UserState) {
		s.settle(ctx, m, state, int(roll))
	})

	return workflow.StepResult{UpdateState: map[string]any{KeyRoll: int(roll)}}
}

// HandleCallback in the resolving stage accepts no user action: the
// settlement is already scheduled, so a late cancel press is acknowledged
// and dropped.
func (s *ResolvingStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	_ = m.AnswerCallback(ev.CallbackID, "")
	return workflow.StepResult{}
}

func (s *ResolvingStep) settle(ctx context.Context, m workflow.Messenger, state *workflow.UserState, roll int) {
	guess := state.GetString(KeyGuess)
	bet := state.GetFloat(KeyBet)

	multiplier := 0.0
	switch {
	case guess == strconv.Itoa(roll):
		multiplier = ExactMultiplier
	case (guess == "even" && roll%2 == 0) || (guess == "odd" && roll%2 != 0):
		multiplier = ParityMultiplier
	}

	s.log.Info("settling wager",
		slog.Int64("chat_id", state.ChatID),
		slog.String("guess", guess),
		slog.Int("roll", roll),
		slog.Float64("bet", bet),
		slog.Float64("multiplier", multiplier),
	)

	playAgainRow := []workflow.Button{{Text: "🎲 Play Again", Data: playAgainData}}

	if multiplier > 0 {
		winAmount := bet * multiplier
		result := s.wallet.PayoutFromHouse(ctx, state.ChatID, winAmount)
		text := fmt.Sprintf("The dice rolled %d!\n\nCongratulations! You won %v SOL!", roll, winAmount)
		if result.Success {
			_, _ = m.SendInline(state.ChatID, text, ui.Grid(
				[]workflow.Button{{Text: "🔗 Check Transaction", URL: ui.TxURL(result.Signature)}},
				playAgainRow,
			))
		} else {
			_, _ = m.SendInline(state.ChatID, text+"\n\n⚠️ Payout failed, please contact support.",
				ui.Grid(playAgainRow))
		}
		return
	}

	result := s.wallet.CollectToHouse(ctx, state.ChatID, bet)
	text := fmt.Sprintf("The dice rolled %d!\n\nSorry, you lost %v $SOL. Better luck next time!", roll, bet)
	if result.Success {
		_, _ = m.SendInline(state.ChatID, text, ui.Grid(
			[]workflow.Button{{Text: "🔗 Check Transaction", URL: ui.TxURL(result.Signature)}},
			playAgainRow,
		))
	} else {
		_, _ = m.SendInline(state.ChatID, text, ui.Grid(playAgainRow))
	}
}
