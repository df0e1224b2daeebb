package transfersol

import (
	"context"
	"log/slog"

	"SolBuddy/bot/workflow"
	"SolBuddy/entity"
)

// Workflow ID
const (
	WorkflowID workflow.WorkflowID = "transfer_sol"
)

// Step IDs
const (
	StepAwaitingRecipient workflow.StepID = "awaiting_recipient"
	StepAwaitingAmount    workflow.StepID = "awaiting_amount"
	StepConfirming        workflow.StepID = "confirming"
)

// State data keys
const (
	KeyRecipient = "recipient"
	KeyAmount    = "amount"
)

// Wallet is the commit executor for this flow.
type Wallet interface {
	SendSol(ctx context.Context, chatID int64, toAddress string, amount float64) *entity.TxResult
}

// TransferSolWorkflow walks a chat through sending native SOL.
type TransferSolWorkflow struct {
	steps  map[workflow.StepID]workflow.Step
	wallet Wallet
	log    *slog.Logger
}

// NewTransferSolWorkflow creates the SOL transfer workflow.
func NewTransferSolWorkflow(wallet Wallet, log *slog.Logger) *TransferSolWorkflow {
	w := &TransferSolWorkflow{
		steps:  make(map[workflow.StepID]workflow.Step),
		wallet: wallet,
		log:    log,
	}
	w.steps[StepAwaitingRecipient] = NewRecipientStep()
	w.steps[StepAwaitingAmount] = NewAmountStep()
	w.steps[StepConfirming] = NewConfirmingStep(wallet)
	return w
}

// ID returns the workflow ID.
func (w *TransferSolWorkflow) ID() workflow.WorkflowID {
	return WorkflowID
}

// InitialStep returns the first step.
func (w *TransferSolWorkflow) InitialStep() workflow.StepID {
	return StepAwaitingRecipient
}

// GetStep returns a step by ID.
func (w *TransferSolWorkflow) GetStep(id workflow.StepID) (workflow.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}

// Domain returns the callback domains this workflow owns.
func (w *TransferSolWorkflow) Domain() []string {
	return []string{workflow.DomainTransfer}
}
