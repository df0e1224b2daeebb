package workflow

import "strings"

// Callback payloads are structured strings of the form
// "<domain>_<verb>_<args...>", e.g. "transfer_confirm" or "dice_guess_even".
// The leading domain tag scopes the action to one flow kind.

// Domain tags
const (
	DomainAccount      = "account"
	DomainSubscription = "subscription"
	DomainTransfer     = "transfer"
	DomainCreateToken  = "createtoken"
	DomainSendToken    = "sendtoken"
	DomainDice         = "dice"
)

// Common verbs
const (
	VerbConfirm = "confirm"
	VerbCancel  = "cancel"
	VerbGuess   = "guess"
	VerbPlay    = "play"
)

// CallbackData represents a parsed callback payload.
type CallbackData struct {
	Domain string
	Verb   string
	Arg    string
}

// ParseCallback parses a callback payload by delimiter-splitting.
// Payloads without a verb part are not flow callbacks.
func ParseCallback(data string) *CallbackData {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) < 2 || parts[0] == "" {
		return nil
	}
	cb := &CallbackData{
		Domain: parts[0],
		Verb:   parts[1],
	}
	if len(parts) > 2 {
		cb.Arg = parts[2]
	}
	return cb
}

// BuildCallback assembles a callback payload string.
func BuildCallback(domain, verb string, args ...string) string {
	data := domain + "_" + verb
	for _, a := range args {
		data += "_" + a
	}
	return data
}

// IsConfirm checks if the callback is a confirm action.
func (c *CallbackData) IsConfirm() bool {
	return c.Verb == VerbConfirm
}

// IsCancel checks if the callback is a cancel action.
func (c *CallbackData) IsCancel() bool {
	return c.Verb == VerbCancel
}

// Is checks callback domain and verb in one go.
func (c *CallbackData) Is(domain, verb string) bool {
	return c.Domain == domain && c.Verb == verb
}
