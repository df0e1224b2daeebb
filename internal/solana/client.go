package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"SolBuddy/entity"
	"SolBuddy/internal/lib/sl"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// Client talks JSON-RPC to a Solana node. All methods are stateless; every
// call is one round trip plus optional confirmation polling.
type Client struct {
	url        string
	commitment string
	http       *http.Client
	log        *slog.Logger
}

// NewClient creates a ledger client for the given RPC endpoint.
func NewClient(url, commitment string, log *slog.Logger) *Client {
	if commitment == "" {
		commitment = "confirmed"
	}
	return &Client{
		url:        url,
		commitment: commitment,
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        log.With(sl.Module("solana")),
	}
}

type rpcRequest struct {
	JsonRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JsonRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshaling rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc %s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("unmarshaling %s result: %w", method, err)
		}
	}
	return nil
}

// GetBalance returns the SOL balance of an address.
func (c *Client) GetBalance(ctx context.Context, address string) (float64, error) {
	if _, err := DecodePublicKey(address); err != nil {
		return 0, err
	}
	var result struct {
		Value uint64 `json:"value"`
	}
	params := []any{address, map[string]any{"commitment": c.commitment}}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return float64(result.Value) / LamportsPerSol, nil
}

// GetTokenBalances lists the SPL token holdings of an address, skipping
// empty accounts.
func (c *Client) GetTokenBalances(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	if _, err := DecodePublicKey(address); err != nil {
		return nil, err
	}
	var result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string `json:"mint"`
							TokenAmount struct {
								UIAmount float64 `json:"uiAmount"`
								Decimals int     `json:"decimals"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	params := []any{
		address,
		map[string]any{"programId": TokenProgramID},
		map[string]any{"encoding": "jsonParsed", "commitment": c.commitment},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	balances := make([]entity.TokenBalance, 0, len(result.Value))
	for _, acc := range result.Value {
		info := acc.Account.Data.Parsed.Info
		if info.TokenAmount.UIAmount <= 0 {
			continue
		}
		balances = append(balances, entity.TokenBalance{
			Mint:     info.Mint,
			Amount:   info.TokenAmount.UIAmount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return balances, nil
}

// RequestAirdrop asks the devnet faucet for test funds.
func (c *Client) RequestAirdrop(ctx context.Context, address string, amount float64) (string, error) {
	if _, err := DecodePublicKey(address); err != nil {
		return "", err
	}
	lamports := uint64(amount * LamportsPerSol)
	var signature string
	if err := c.call(ctx, "requestAirdrop", []any{address, lamports}, &signature); err != nil {
		return "", err
	}
	c.log.Debug("airdrop requested",
		slog.String("address", address),
		slog.String("signature", signature),
	)
	return signature, nil
}

// latestBlockhash fetches a recent blockhash for transaction assembly.
func (c *Client) latestBlockhash(ctx context.Context) ([32]byte, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	params := []any{map[string]any{"commitment": c.commitment}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return [32]byte{}, err
	}
	return DecodePublicKey(result.Value.Blockhash)
}

// minimumRentExemption returns the lamports needed to make an account of
// the given size rent exempt.
func (c *Client) minimumRentExemption(ctx context.Context, size int) (uint64, error) {
	var lamports uint64
	if err := c.call(ctx, "getMinimumBalanceForRentExemption", []any{size}, &lamports); err != nil {
		return 0, err
	}
	return lamports, nil
}

// sendTransaction signs the assembled transaction and submits it.
func (c *Client) sendTransaction(ctx context.Context, tx *Transaction, signers ...*Keypair) (string, error) {
	wire, err := tx.Sign(signers...)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	var signature string
	params := []any{
		base64.StdEncoding.EncodeToString(wire),
		map[string]any{"encoding": "base64", "preflightCommitment": c.commitment},
	}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}
