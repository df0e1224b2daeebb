package solana

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// systemTransferInstruction builds a native SOL transfer.
func systemTransferInstruction(from, to [32]byte, lamports uint64) (Instruction, error) {
	program, err := DecodePublicKey(SystemProgramID)
	if err != nil {
		return Instruction{}, err
	}
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // SystemInstruction::Transfer
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return Instruction{
		ProgramID: program,
		Accounts: []AccountMeta{
			{Key: from, Signer: true, Writable: true},
			{Key: to, Writable: true},
		},
		Data: data,
	}, nil
}

// TransferSOL moves native currency from the signing keypair to a
// recipient address and returns the transaction signature.
func (c *Client) TransferSOL(ctx context.Context, from *Keypair, toAddress string, amount float64) (string, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", fmt.Errorf("amount must be a finite positive number")
	}
	to, err := DecodePublicKey(toAddress)
	if err != nil {
		return "", err
	}

	blockhash, err := c.latestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching blockhash: %w", err)
	}

	lamports := uint64(math.Round(amount * LamportsPerSol))
	ix, err := systemTransferInstruction(from.PublicKey, to, lamports)
	if err != nil {
		return "", err
	}

	tx := &Transaction{
		FeePayer:     from.PublicKey,
		Blockhash:    blockhash,
		Instructions: []Instruction{ix},
	}
	return c.sendTransaction(ctx, tx, from)
}
