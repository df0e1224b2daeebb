package dicegame

import (
	"context"
	"log/slog"
	"time"

	"SolBuddy/bot/workflow"
	"SolBuddy/entity"
)

// Workflow ID
const (
	WorkflowID workflow.WorkflowID = "dice_game"
)

// Step IDs
const (
	StepRules         workflow.StepID = "rules"
	StepAwaitingBet   workflow.StepID = "awaiting_bet"
	StepAwaitingGuess workflow.StepID = "awaiting_guess"
	StepResolving     workflow.StepID = "resolving"
)

// State data keys
const (
	KeyBet   = "bet"
	KeyGuess = "guess"
	KeyRoll  = "roll"
)

// Payout multipliers.
const (
	ExactMultiplier  = 2.0
	ParityMultiplier = 1.5
)

// Wallet moves the wager between the player and the house.
type Wallet interface {
	PayoutFromHouse(ctx context.Context, chatID int64, amount float64) *entity.TxResult
	CollectToHouse(ctx context.Context, chatID int64, amount float64) *entity.TxResult
}

// Scheduler defers the settlement so the dice animation finishes first.
type Scheduler interface {
	Schedule(chatID int64, delay time.Duration, task func(ctx context.Context, state *workflow.UserState))
}

// DiceGameWorkflow runs a wager on one animated dice roll.
type DiceGameWorkflow struct {
	steps  map[workflow.StepID]workflow.Step
	wallet Wallet
	log    *slog.Logger
}

// NewDiceGameWorkflow creates the dice game workflow. resolveDelay is how
// long settlement waits after the roll is shown.
func NewDiceGameWorkflow(wallet Wallet, scheduler Scheduler, resolveDelay time.Duration, log *slog.Logger) *DiceGameWorkflow {
	w := &DiceGameWorkflow{
		steps:  make(map[workflow.StepID]workflow.Step),
		wallet: wallet,
		log:    log,
	}
	w.steps[StepRules] = NewRulesStep()
	w.steps[StepAwaitingBet] = NewBetStep()
	w.steps[StepAwaitingGuess] = NewGuessStep()
	w.steps[StepResolving] = NewResolvingStep(wallet, scheduler, resolveDelay, log)
	return w
}

// ID returns the workflow ID.
func (w *DiceGameWorkflow) ID() workflow.WorkflowID {
	return WorkflowID
}

// InitialStep returns the first step.
func (w *DiceGameWorkflow) InitialStep() workflow.StepID {
	return StepRules
}

// GetStep returns a step by ID.
func (w *DiceGameWorkflow) GetStep(id workflow.StepID) (workflow.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}

// Domain returns the callback domains this workflow owns.
func (w *DiceGameWorkflow) Domain() []string {
	return []string{workflow.DomainDice}
}
