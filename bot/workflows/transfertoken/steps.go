package transfertoken

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"SolBuddy/bot/workflow"
	"SolBuddy/bot/workflow/ui"
	"SolBuddy/internal/solana"
)

var (
	cancelData  = workflow.BuildCallback(workflow.DomainSendToken, workflow.VerbCancel)
	confirmData = workflow.BuildCallback(workflow.DomainSendToken, workflow.VerbConfirm)
)

func cancelKeyboard() [][]workflow.Button {
	return ui.CancelRow("❌ Cancel Transaction", cancelData)
}

func cancelFlow(m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	_ = m.AnswerCallback(ev.CallbackID, "")
	_, _ = m.SendText(state.ChatID, "❌ Transfer Cancelled\n\nTransaction Type: Send Token")
	if state.PendingPrompt != 0 {
		_ = m.DeleteMessage(state.ChatID, state.PendingPrompt)
	}
	return workflow.StepResult{Complete: true}
}

func parsePositiveAmount(text string) (float64, bool) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// MintStep collects the mint address of the token to send.
type MintStep struct {
	workflow.BaseStep
}

func NewMintStep() *MintStep {
	return &MintStep{BaseStep: workflow.BaseStep{StepID: StepAwaitingMint}}
}

func (s *MintStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID,
		"Please enter the mint address of the token you want to send", cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *MintStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	mint := strings.TrimSpace(ev.Text)
	if !solana.IsValidAddress(mint) {
		msgID, err := m.SendInline(state.ChatID, "Invalid address. Please enter a valid token mint address.", cancelKeyboard())
		if err != nil {
			return workflow.StepResult{Error: err}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepAwaitingRecipient,
		UpdateState: map[string]any{KeyMint: mint},
	}
}

func (s *MintStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	if data.IsCancel() {
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// RecipientStep collects the destination address.
type RecipientStep struct {
	workflow.BaseStep
}

func NewRecipientStep() *RecipientStep {
	return &RecipientStep{BaseStep: workflow.BaseStep{StepID: StepAwaitingRecipient}}
}

func (s *RecipientStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID, "Please enter the recipient's Solana address", cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *RecipientStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	address := strings.TrimSpace(ev.Text)
	if !solana.IsValidAddress(address) {
		msgID, err := m.SendInline(state.ChatID, "Invalid address. Please enter a valid Solana public key.", cancelKeyboard())
		if err != nil {
			return workflow.StepResult{Error: err}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepAwaitingAmount,
		UpdateState: map[string]any{KeyRecipient: address},
	}
}

func (s *RecipientStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	if data.IsCancel() {
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// AmountStep collects the transfer amount in whole tokens.
type AmountStep struct {
	workflow.BaseStep
}

func NewAmountStep() *AmountStep {
	return &AmountStep{BaseStep: workflow.BaseStep{StepID: StepAwaitingAmount}}
}

func (s *AmountStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID, "Please enter the amount of tokens to send:", cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *AmountStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	amount, ok := parsePositiveAmount(ev.Text)
	if !ok {
		msgID, err := m.SendInline(state.ChatID, "Please enter a valid positive number for the amount.", cancelKeyboard())
		if err != nil {
			return workflow.StepResult{Error: err}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepConfirming,
		UpdateState: map[string]any{KeyAmount: amount},
	}
}

func (s *AmountStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	if data.IsCancel() {
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// ConfirmingStep shows the review prompt and runs the commit protocol.
type ConfirmingStep struct {
	workflow.BaseStep
	wallet Wallet
}

func NewConfirmingStep(wallet Wallet) *ConfirmingStep {
	return &ConfirmingStep{
		BaseStep: workflow.BaseStep{StepID: StepConfirming},
		wallet:   wallet,
	}
}

func (s *ConfirmingStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	review := fmt.Sprintf(
		"Are you sure you want to proceed with this transaction?\n\nTransaction Type: Send Token\nToken: %s\nAmount: %v\nTo: %s",
		state.GetString(KeyMint), state.GetFloat(KeyAmount), state.GetString(KeyRecipient),
	)
	msgID, err := m.SendInline(state.ChatID, review,
		ui.ConfirmCancelRow("✅ Confirm Transaction", confirmData, "❌ Cancel Transaction", cancelData))
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *ConfirmingStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	switch {
	case data.IsConfirm():
		_ = m.AnswerCallback(ev.CallbackID, "")
		if state.PendingPrompt != 0 {
			_ = m.DeleteMessage(state.ChatID, state.PendingPrompt)
			state.SetPendingPrompt(0)
		}
		placeholder, _ := m.SendText(state.ChatID, "Transaction Processing...")

		result := s.wallet.SendToken(ctx, state.ChatID,
			state.GetString(KeyMint), state.GetString(KeyRecipient), state.GetFloat(KeyAmount))

		if placeholder != 0 {
			_ = m.DeleteMessage(state.ChatID, placeholder)
		}
		if result.Success {
			report := fmt.Sprintf(
				"✅ Transfer Successful\n\nTransaction Type: Send Token\nToken: %s\nAmount: %v\nTo: %s",
				state.GetString(KeyMint), state.GetFloat(KeyAmount), state.GetString(KeyRecipient),
			)
			_, _ = m.SendInline(state.ChatID, report, ui.LinkRow("🔗 Check Transaction", ui.TxURL(result.Signature)))
		} else {
			_, _ = m.SendText(state.ChatID, fmt.Sprintf(
				"❌ Transfer Failed\n\nTransaction Type: Send Token\nToken: %s\nAmount: %v\nTo: %s",
				state.GetString(KeyMint), state.GetFloat(KeyAmount), state.GetString(KeyRecipient),
			))
		}
		return workflow.StepResult{Complete: true}

	case data.IsCancel():
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}
