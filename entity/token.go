package entity

// TokenBalance is one SPL token holding of an account.
type TokenBalance struct {
	Mint     string  `json:"mint"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

// TxResult is the outcome of one committed ledger operation.
// Exactly one of Signature / Reason is meaningful depending on Success.
type TxResult struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// MintResult reports a completed token creation.
type MintResult struct {
	Success      bool   `json:"success"`
	MintAddress  string `json:"mint_address,omitempty"`
	TokenAccount string `json:"token_account,omitempty"`
	Reason       string `json:"reason,omitempty"`
}
