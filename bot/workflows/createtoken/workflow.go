package createtoken

import (
	"context"
	"log/slog"

	"SolBuddy/bot/workflow"
	"SolBuddy/entity"
)

// Workflow ID
const (
	WorkflowID workflow.WorkflowID = "create_token"
)

// Step IDs
const (
	StepName       workflow.StepID = "name"
	StepSymbol     workflow.StepID = "symbol"
	StepDecimals   workflow.StepID = "decimals"
	StepSupply     workflow.StepID = "supply"
	StepConfirming workflow.StepID = "confirming"
)

// State data keys
const (
	KeyName     = "name"
	KeySymbol   = "symbol"
	KeyDecimals = "decimals"
	KeySupply   = "supply"
)

// Wallet is the commit executor for this flow.
type Wallet interface {
	CreateToken(ctx context.Context, chatID int64, decimals int, supply float64) *entity.MintResult
}

// CreateTokenWorkflow walks a chat through minting a new fungible token.
type CreateTokenWorkflow struct {
	steps  map[workflow.StepID]workflow.Step
	wallet Wallet
	log    *slog.Logger
}

// NewCreateTokenWorkflow creates the token creation workflow.
func NewCreateTokenWorkflow(wallet Wallet, log *slog.Logger) *CreateTokenWorkflow {
	w := &CreateTokenWorkflow{
		steps:  make(map[workflow.StepID]workflow.Step),
		wallet: wallet,
		log:    log,
	}
	w.steps[StepName] = NewNameStep()
	w.steps[StepSymbol] = NewSymbolStep()
	w.steps[StepDecimals] = NewDecimalsStep()
	w.steps[StepSupply] = NewSupplyStep()
	w.steps[StepConfirming] = NewConfirmingStep(wallet)
	return w
}

// ID returns the workflow ID.
func (w *CreateTokenWorkflow) ID() workflow.WorkflowID {
	return WorkflowID
}

// InitialStep returns the first step.
func (w *CreateTokenWorkflow) InitialStep() workflow.StepID {
	return StepName
}

// GetStep returns a step by ID.
func (w *CreateTokenWorkflow) GetStep(id workflow.StepID) (workflow.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}

// Domain returns the callback domains this workflow owns.
func (w *CreateTokenWorkflow) Domain() []string {
	return []string{workflow.DomainCreateToken}
}
