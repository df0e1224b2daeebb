package transfertoken

import (
	"context"
	"log/slog"

	"SolBuddy/bot/workflow"
	"SolBuddy/entity"
)

// Workflow ID
const (
	WorkflowID workflow.WorkflowID = "transfer_token"
)

// Step IDs
const (
	StepAwaitingMint      workflow.StepID = "awaiting_mint"
	StepAwaitingRecipient workflow.StepID = "awaiting_recipient"
	StepAwaitingAmount    workflow.StepID = "awaiting_amount"
	StepConfirming        workflow.StepID = "confirming"
)

// State data keys
const (
	KeyMint      = "mint"
	KeyRecipient = "recipient"
	KeyAmount    = "amount"
)

// Wallet is the commit executor for this flow.
type Wallet interface {
	SendToken(ctx context.Context, chatID int64, mintAddress, toAddress string, amount float64) *entity.TxResult
}

// TransferTokenWorkflow walks a chat through sending an SPL token.
type TransferTokenWorkflow struct {
	steps  map[workflow.StepID]workflow.Step
	wallet Wallet
	log    *slog.Logger
}

// NewTransferTokenWorkflow creates the token transfer workflow.
func NewTransferTokenWorkflow(wallet Wallet, log *slog.Logger) *TransferTokenWorkflow {
	w := &TransferTokenWorkflow{
		steps:  make(map[workflow.StepID]workflow.Step),
		wallet: wallet,
		log:    log,
	}
	w.steps[StepAwaitingMint] = NewMintStep()
	w.steps[StepAwaitingRecipient] = NewRecipientStep()
	w.steps[StepAwaitingAmount] = NewAmountStep()
	w.steps[StepConfirming] = NewConfirmingStep(wallet)
	return w
}

// ID returns the workflow ID.
func (w *TransferTokenWorkflow) ID() workflow.WorkflowID {
	return WorkflowID
}

// InitialStep returns the first step.
func (w *TransferTokenWorkflow) InitialStep() workflow.StepID {
	return StepAwaitingMint
}

// GetStep returns a step by ID.
func (w *TransferTokenWorkflow) GetStep(id workflow.StepID) (workflow.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}

// Domain returns the callback domains this workflow owns.
func (w *TransferTokenWorkflow) Domain() []string {
	return []string{workflow.DomainSendToken}
}
