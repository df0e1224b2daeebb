package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program addresses.
const (
	SystemProgramID          = "11111111111111111111111111111111"
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
)

// AccountMeta describes how one account participates in an instruction.
type AccountMeta struct {
	Key      [32]byte
	Signer   bool
	Writable bool
}

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	ProgramID [32]byte
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is a legacy-format transaction under assembly.
type Transaction struct {
	FeePayer     [32]byte
	Blockhash    [32]byte
	Instructions []Instruction
}

// shortvec encodes Solana's compact-u16 length prefix.
func shortvec(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}

type accountEntry struct {
	key      [32]byte
	signer   bool
	writable bool
}

// compile orders accounts per the message layout: writable signers first,
// then readonly signers, writable non-signers, readonly non-signers. The
// fee payer is always the first writable signer.
func (t *Transaction) compile() ([]accountEntry, []byte, error) {
	entries := []accountEntry{{key: t.FeePayer, signer: true, writable: true}}
	idx := func(key [32]byte) int {
		for i, e := range entries {
			if e.key == key {
				return i
			}
		}
		return -1
	}
	merge := func(key [32]byte, signer, writable bool) {
		if i := idx(key); i >= 0 {
			entries[i].signer = entries[i].signer || signer
			entries[i].writable = entries[i].writable || writable
			return
		}
		entries = append(entries, accountEntry{key: key, signer: signer, writable: writable})
	}
	for _, ix := range t.Instructions {
		for _, acc := range ix.Accounts {
			merge(acc.Key, acc.Signer, acc.Writable)
		}
		merge(ix.ProgramID, false, false)
	}

	rank := func(e accountEntry) int {
		switch {
		case e.signer && e.writable:
			return 0
		case e.signer:
			return 1
		case e.writable:
			return 2
		default:
			return 3
		}
	}
	// Stable selection sort keeps the fee payer at index 0 and preserves
	// first-use order within each class.
	ordered := make([]accountEntry, 0, len(entries))
	for class := 0; class <= 3; class++ {
		for _, e := range entries {
			if rank(e) == class {
				ordered = append(ordered, e)
			}
		}
	}

	var numSigners, numReadonlySigned, numReadonlyUnsigned int
	for _, e := range ordered {
		if e.signer {
			numSigners++
			if !e.writable {
				numReadonlySigned++
			}
		} else if !e.writable {
			numReadonlyUnsigned++
		}
	}

	var msg bytes.Buffer
	msg.WriteByte(byte(numSigners))
	msg.WriteByte(byte(numReadonlySigned))
	msg.WriteByte(byte(numReadonlyUnsigned))

	msg.Write(shortvec(len(ordered)))
	for _, e := range ordered {
		msg.Write(e.key[:])
	}
	msg.Write(t.Blockhash[:])

	msg.Write(shortvec(len(t.Instructions)))
	for _, ix := range t.Instructions {
		find := func(key [32]byte) (int, error) {
			for i, e := range ordered {
				if e.key == key {
					return i, nil
				}
			}
			return 0, fmt.Errorf("account not compiled: %s", base58.Encode(key[:]))
		}
		pi, err := find(ix.ProgramID)
		if err != nil {
			return nil, nil, err
		}
		msg.WriteByte(byte(pi))
		msg.Write(shortvec(len(ix.Accounts)))
		for _, acc := range ix.Accounts {
			ai, err := find(acc.Key)
			if err != nil {
				return nil, nil, err
			}
			msg.WriteByte(byte(ai))
		}
		msg.Write(shortvec(len(ix.Data)))
		msg.Write(ix.Data)
	}

	return ordered, msg.Bytes(), nil
}

// Sign serializes the transaction and signs it with every required signer.
func (t *Transaction) Sign(signers ...*Keypair) ([]byte, error) {
	ordered, msg, err := t.compile()
	if err != nil {
		return nil, err
	}

	byKey := make(map[[32]byte]*Keypair, len(signers))
	for _, kp := range signers {
		byKey[kp.PublicKey] = kp
	}

	var sigs [][]byte
	for _, e := range ordered {
		if !e.signer {
			break
		}
		kp, ok := byKey[e.key]
		if !ok {
			return nil, fmt.Errorf("missing signer for %s", base58.Encode(e.key[:]))
		}
		sigs = append(sigs, ed25519.Sign(kp.PrivateKey, msg))
	}

	var wire bytes.Buffer
	wire.Write(shortvec(len(sigs)))
	for _, sig := range sigs {
		wire.Write(sig)
	}
	wire.Write(msg)
	return wire.Bytes(), nil
}

// FindAssociatedTokenAddress derives the canonical token account for an
// owner/mint pair: the first off-curve program address over the seeds
// [owner, token program, mint].
func FindAssociatedTokenAddress(owner, mint [32]byte) ([32]byte, error) {
	program, err := DecodePublicKey(AssociatedTokenProgramID)
	if err != nil {
		return [32]byte{}, err
	}
	tokenProgram, err := DecodePublicKey(TokenProgramID)
	if err != nil {
		return [32]byte{}, err
	}

	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		h.Write(owner[:])
		h.Write(tokenProgram[:])
		h.Write(mint[:])
		h.Write([]byte{byte(bump)})
		h.Write(program[:])
		h.Write([]byte("ProgramDerivedAddress"))
		candidate := h.Sum(nil)

		// A program address must not be a valid curve point.
		if _, err := new(edwards25519.Point).SetBytes(candidate); err != nil {
			var addr [32]byte
			copy(addr[:], candidate)
			return addr, nil
		}
	}
	return [32]byte{}, fmt.Errorf("no viable program address bump")
}
