package createtoken

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"SolBuddy/bot/workflow"
	"SolBuddy/bot/workflow/ui"
)

var (
	cancelData  = workflow.BuildCallback(workflow.DomainCreateToken, workflow.VerbCancel)
	confirmData = workflow.BuildCallback(workflow.DomainCreateToken, workflow.VerbConfirm)
)

func cancelKeyboard() [][]workflow.Button {
	return ui.CancelRow("❌ Cancel Transaction", cancelData)
}

func cancelFlow(m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	_ = m.AnswerCallback(ev.CallbackID, "")
	_, _ = m.SendText(state.ChatID, "❌ Transaction Cancelled\n\nTransaction Type: Create Token")
	if state.PendingPrompt != 0 {
		_ = m.DeleteMessage(state.ChatID, state.PendingPrompt)
	}
	return workflow.StepResult{Complete: true}
}

// NameStep collects the token name.
type NameStep struct {
	workflow.BaseStep
}

func NewNameStep() *NameStep {
	return &NameStep{BaseStep: workflow.BaseStep{StepID: StepName}}
}

func (s *NameStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID,
		"Let's create your token! First, what would you like to name your token?", cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *NameStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		msgID, err := m.SendInline(state.ChatID, "Please enter a non-empty token name.", cancelKeyboard())
		if err != nil {
			return workflow.StepResult{Error: err}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepSymbol,
		UpdateState: map[string]any{KeyName: name},
	}
}

func (s *NameStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	if data.IsCancel() {
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// SymbolStep collects the ticker symbol, stored uppercased.
type SymbolStep struct {
	workflow.BaseStep
}

func NewSymbolStep() *SymbolStep {
	return &SymbolStep{BaseStep: workflow.BaseStep{StepID: StepSymbol}}
}

func (s *SymbolStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID, fmt.Sprintf(
		"Great! Your token will be named %q. Now, what symbol would you like to use for your token? (e.g., BTC, ETH)",
		state.GetString(KeyName)), cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *SymbolStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	symbol := strings.TrimSpace(ev.Text)
	if symbol == "" {
		msgID, err := m.SendInline(state.ChatID, "Please enter a non-empty token symbol.", cancelKeyboard())
		if err != nil {
			return workflow.StepResult{Error: err}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepDecimals,
		UpdateState: map[string]any{KeySymbol: strings.ToUpper(symbol)},
	}
}

func (s *SymbolStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	if data.IsCancel() {
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// DecimalsStep collects the decimal places, bounded to [0, 9].
type DecimalsStep struct {
	workflow.BaseStep
}

func NewDecimalsStep() *DecimalsStep {
	return &DecimalsStep{BaseStep: workflow.BaseStep{StepID: StepDecimals}}
}

func (s *DecimalsStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID, fmt.Sprintf(
		"Your token symbol will be %s. How many decimal places should your token have? (typically 9)",
		state.GetString(KeySymbol)), cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *DecimalsStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	decimals, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || decimals < 0 || decimals > 9 {
		msgID, sendErr := m.SendInline(state.ChatID, "Please enter a valid number between 0 and 9.", cancelKeyboard())
		if sendErr != nil {
			return workflow.StepResult{Error: sendErr}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepSupply,
		UpdateState: map[string]any{KeyDecimals: decimals},
	}
}

func (s *DecimalsStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
	if data.IsCancel() {
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}

// SupplyStep collects the total supply.
type SupplyStep struct {
	workflow.BaseStep
}

func NewSupplyStep() *SupplyStep {
	return &SupplyStep{BaseStep: workflow.BaseStep{StepID: StepSupply}}
}

func (s *SupplyStep) Enter(ctx context.Context, m workflow.Messenger, state *workflow.UserState) workflow.StepResult {
	msgID, err := m.SendInline(state.ChatID, fmt.Sprintf(
		"Your token will have %d decimal places. What should the total supply of your token be?",
		state.GetInt(KeyDecimals)), cancelKeyboard())
	if err != nil {
		return workflow.StepResult{Error: err}
	}
	state.SetPendingPrompt(msgID)
	return workflow.StepResult{}
}

func (s *SupplyStep) HandleMessage(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState) workflow.StepResult {
	supply, err := strconv.ParseFloat(strings.TrimSpace(ev.Text), 64)
	if err != nil || math.IsNaN(supply) || math.IsInf(supply, 0) || supply <= 0 {
		msgID, sendErr := m.SendInline(state.ChatID, "Please enter a valid positive number for the supply.", cancelKeyboard())
		if sendErr != nil {
			return workflow.StepResult{Error: sendErr}
		}
		state.SetPendingPrompt(msgID)
		return workflow.StepResult{}
	}
	return workflow.StepResult{
		NextStep:    StepConfirming,
		UpdateState: map[string]any{KeySupply: supply},
	}
}

func (s *SupplyStep) HandleCallback(ctx context.Context, m workflow.Messenger, ev workflow.Event, state *workflow.UserState, data *workflow.CallbackData) workflow.StepResult {
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
		"Are you sure you want to proceed with this transaction?\n\nTransaction Type: Create Token\nName: %s\nSymbol: %s\nDecimals: %d\nToken Supply: %v",
		state.GetString(KeyName), state.GetString(KeySymbol), state.GetInt(KeyDecimals), state.GetFloat(KeySupply),
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

		result := s.wallet.CreateToken(ctx, state.ChatID, state.GetInt(KeyDecimals), state.GetFloat(KeySupply))

		if placeholder != 0 {
			_ = m.DeleteMessage(state.ChatID, placeholder)
		}
		if result.Success {
			_, _ = m.SendText(state.ChatID, fmt.Sprintf(
				"Congratulations! Your token has been created successfully:\n\nName: %s\nSymbol: %s\nDecimals: %d\nTotal Supply: %v\nMint Address: %s\nToken Account: %s",
				state.GetString(KeyName), state.GetString(KeySymbol), state.GetInt(KeyDecimals),
				state.GetFloat(KeySupply), result.MintAddress, result.TokenAccount,
			))
		} else {
			_, _ = m.SendText(state.ChatID, "❌ Transaction Failed\n\nTransaction Type: Create Token")
		}
		return workflow.StepResult{Complete: true}

	case data.IsCancel():
		return cancelFlow(m, ev, state)
	}
	return workflow.StepResult{}
}
