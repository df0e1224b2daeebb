package solana

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mr-tron/base58"
)

const mintAccountSize = 82

// Token program instruction tags.
const (
	tokenIxTransferChecked = 12
	tokenIxMintToChecked   = 14
	tokenIxInitializeMint2 = 20
)

// MintInfo is the outcome of a completed token creation.
type MintInfo struct {
	MintAddress  string
	TokenAccount string
}

func systemCreateAccountInstruction(funder, newAccount, owner [32]byte, lamports, space uint64) (Instruction, error) {
	program, err := DecodePublicKey(SystemProgramID)
	if err != nil {
		return Instruction{}, err
	}
	data := make([]byte, 52)
	binary.LittleEndian.PutUint32(data[0:4], 0) // SystemInstruction::CreateAccount
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:52], owner[:])
	return Instruction{
		ProgramID: program,
		Accounts: []AccountMeta{
			{Key: funder, Signer: true, Writable: true},
			{Key: newAccount, Signer: true, Writable: true},
		},
		Data: data,
	}, nil
}

func initializeMint2Instruction(mint, authority [32]byte, decimals uint8) (Instruction, error) {
	program, err := DecodePublicKey(TokenProgramID)
	if err != nil {
		return Instruction{}, err
	}
	data := make([]byte, 0, 67)
	data = append(data, tokenIxInitializeMint2, decimals)
	data = append(data, authority[:]...)
	data = append(data, 1) // freeze authority present
	data = append(data, authority[:]...)
	return Instruction{
		ProgramID: program,
		Accounts: []AccountMeta{
			{Key: mint, Writable: true},
		},
		Data: data,
	}, nil
}

func createAssociatedTokenAccountInstruction(payer, owner, mint, ata [32]byte) (Instruction, error) {
	program, err := DecodePublicKey(AssociatedTokenProgramID)
	if err != nil {
		return Instruction{}, err
	}
	systemProgram, err := DecodePublicKey(SystemProgramID)
	if err != nil {
		return Instruction{}, err
	}
	tokenProgram, err := DecodePublicKey(TokenProgramID)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		ProgramID: program,
		Accounts: []AccountMeta{
			{Key: payer, Signer: true, Writable: true},
			{Key: ata, Writable: true},
			{Key: owner},
			{Key: mint},
			{Key: systemProgram},
			{Key: tokenProgram},
		},
		Data: []byte{0}, // AssociatedTokenInstruction::Create
	}, nil
}

func mintToCheckedInstruction(mint, dest, authority [32]byte, amount uint64, decimals uint8) (Instruction, error) {
	program, err := DecodePublicKey(TokenProgramID)
	if err != nil {
		return Instruction{}, err
	}
	data := make([]byte, 10)
	data[0] = tokenIxMintToChecked
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals
	return Instruction{
		ProgramID: program,
		Accounts: []AccountMeta{
			{Key: mint, Writable: true},
			{Key: dest, Writable: true},
			{Key: authority, Signer: true},
		},
		Data: data,
	}, nil
}

func transferCheckedInstruction(source, mint, dest, authority [32]byte, amount uint64, decimals uint8) (Instruction, error) {
	program, err := DecodePublicKey(TokenProgramID)
	if err != nil {
		return Instruction{}, err
	}
	data := make([]byte, 10)
	data[0] = tokenIxTransferChecked
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals
	return Instruction{
		ProgramID: program,
		Accounts: []AccountMeta{
			{Key: source, Writable: true},
			{Key: mint},
			{Key: dest, Writable: true},
			{Key: authority, Signer: true},
		},
		Data: data,
	}, nil
}

// baseUnits converts a user-facing token amount to base units.
func baseUnits(amount float64, decimals int) uint64 {
	return uint64(math.Round(amount * math.Pow10(decimals)))
}

// CreateToken creates a new fungible token mint owned by the given keypair,
// creates the owner's associated token account and mints the initial supply
// into it, all in a single transaction.
func (c *Client) CreateToken(ctx context.Context, owner *Keypair, decimals int, supply float64) (*MintInfo, error) {
	if decimals < 0 || decimals > 9 {
		return nil, fmt.Errorf("decimals must be between 0 and 9")
	}
	if supply <= 0 || math.IsNaN(supply) || math.IsInf(supply, 0) {
		return nil, fmt.Errorf("supply must be a finite positive number")
	}

	mint, err := NewKeypair()
	if err != nil {
		return nil, err
	}

	rent, err := c.minimumRentExemption(ctx, mintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("fetching rent exemption: %w", err)
	}
	blockhash, err := c.latestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching blockhash: %w", err)
	}

	tokenProgram, err := DecodePublicKey(TokenProgramID)
	if err != nil {
		return nil, err
	}
	ata, err := FindAssociatedTokenAddress(owner.PublicKey, mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("deriving token account: %w", err)
	}

	createIx, err := systemCreateAccountInstruction(owner.PublicKey, mint.PublicKey, tokenProgram, rent, mintAccountSize)
	if err != nil {
		return nil, err
	}
	initIx, err := initializeMint2Instruction(mint.PublicKey, owner.PublicKey, uint8(decimals))
	if err != nil {
		return nil, err
	}
	ataIx, err := createAssociatedTokenAccountInstruction(owner.PublicKey, owner.PublicKey, mint.PublicKey, ata)
	if err != nil {
		return nil, err
	}
	mintIx, err := mintToCheckedInstruction(mint.PublicKey, ata, owner.PublicKey, baseUnits(supply, decimals), uint8(decimals))
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		FeePayer:     owner.PublicKey,
		Blockhash:    blockhash,
		Instructions: []Instruction{createIx, initIx, ataIx, mintIx},
	}
	if _, err := c.sendTransaction(ctx, tx, owner, mint); err != nil {
		return nil, err
	}

	return &MintInfo{
		MintAddress:  mint.Address(),
		TokenAccount: base58.Encode(ata[:]),
	}, nil
}

// TransferToken moves SPL tokens from the owner's associated account to the
// recipient's, creating the recipient account when it does not exist yet.
func (c *Client) TransferToken(ctx context.Context, owner *Keypair, mintAddress, toAddress string, amount float64) (string, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", fmt.Errorf("amount must be a finite positive number")
	}
	mint, err := DecodePublicKey(mintAddress)
	if err != nil {
		return "", err
	}
	to, err := DecodePublicKey(toAddress)
	if err != nil {
		return "", err
	}

	decimals, err := c.mintDecimals(ctx, mintAddress)
	if err != nil {
		return "", fmt.Errorf("fetching mint info: %w", err)
	}

	sourceATA, err := FindAssociatedTokenAddress(owner.PublicKey, mint)
	if err != nil {
		return "", fmt.Errorf("deriving source account: %w", err)
	}
	destATA, err := FindAssociatedTokenAddress(to, mint)
	if err != nil {
		return "", fmt.Errorf("deriving destination account: %w", err)
	}

	blockhash, err := c.latestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching blockhash: %w", err)
	}

	ataIx, err := createAssociatedTokenAccountInstruction(owner.PublicKey, to, mint, destATA)
	if err != nil {
		return "", err
	}
	transferIx, err := transferCheckedInstruction(sourceATA, mint, destATA, owner.PublicKey, baseUnits(amount, decimals), uint8(decimals))
	if err != nil {
		return "", err
	}

	ixs := []Instruction{transferIx}
	exists, err := c.accountExists(ctx, destATA)
	if err == nil && !exists {
		ixs = []Instruction{ataIx, transferIx}
	}

	tx := &Transaction{
		FeePayer:     owner.PublicKey,
		Blockhash:    blockhash,
		Instructions: ixs,
	}
	return c.sendTransaction(ctx, tx, owner)
}

// mintDecimals reads the decimals of a mint from parsed account data.
func (c *Client) mintDecimals(ctx context.Context, mintAddress string) (int, error) {
	var result struct {
		Value *struct {
			Data struct {
				Parsed struct {
					Info struct {
						Decimals int `json:"decimals"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"value"`
	}
	params := []any{mintAddress, map[string]any{"encoding": "jsonParsed", "commitment": c.commitment}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return 0, err
	}
	if result.Value == nil {
		return 0, fmt.Errorf("mint account %s not found", mintAddress)
	}
	return result.Value.Data.Parsed.Info.Decimals, nil
}

func (c *Client) accountExists(ctx context.Context, key [32]byte) (bool, error) {
	var result struct {
		Value *struct {
			Lamports uint64 `json:"lamports"`
		} `json:"value"`
	}
	params := []any{base58.Encode(key[:]), map[string]any{"commitment": c.commitment}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return false, err
	}
	return result.Value != nil, nil
}
