package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// Keypair is an ed25519 signing key with its base58 public address.
type Keypair struct {
	PublicKey  [32]byte
	PrivateKey ed25519.PrivateKey
}

// NewKeypair generates a fresh account keypair.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	kp := &Keypair{PrivateKey: priv}
	copy(kp.PublicKey[:], pub)
	return kp, nil
}

// KeypairFromBase58 restores a keypair from its base58-encoded 64-byte
// secret, the storage format for custodial keys.
func KeypairFromBase58(secret string) (*Keypair, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decoding secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	kp := &Keypair{PrivateKey: ed25519.PrivateKey(raw)}
	copy(kp.PublicKey[:], kp.PrivateKey.Public().(ed25519.PublicKey))
	return kp, nil
}

// Address returns the base58 public address.
func (k *Keypair) Address() string {
	return base58.Encode(k.PublicKey[:])
}

// Secret returns the base58-encoded secret key for storage.
func (k *Keypair) Secret() string {
	return base58.Encode(k.PrivateKey)
}

// DecodePublicKey decodes a base58 address into its 32 raw bytes. It is the
// syntactic validity check for every address field collected from chat.
func DecodePublicKey(address string) ([32]byte, error) {
	var key [32]byte
	raw, err := base58.Decode(address)
	if err != nil {
		return key, fmt.Errorf("invalid address %q: %w", address, err)
	}
	if len(raw) != 32 {
		return key, fmt.Errorf("invalid address %q: expected 32 bytes, got %d", address, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// IsValidAddress reports whether a string decodes as a ledger public key.
func IsValidAddress(address string) bool {
	_, err := DecodePublicKey(address)
	return err == nil
}
