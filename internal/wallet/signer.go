// Package wallet provides the signing capability consumed by the executor.
package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Signer signs serialized transaction messages. Any error is fatal to the
// attempt being executed; callers fail closed.
type Signer interface {
	// Sign returns the fully signed transaction bytes for an unsigned
	// message: signature (64 bytes) followed by the message.
	Sign(ctx context.Context, message []byte) ([]byte, error)

	// PublicKey returns the base58-encoded public key of the signing wallet.
	PublicKey() string
}

// LocalSigner signs with an ed25519 keypair loaded from a Solana CLI keypair
// file (JSON array of 64 bytes: seed then public key).
type LocalSigner struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// NewLocalSigner loads and validates a keypair file.
func NewLocalSigner(path string) (*LocalSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}

	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keypair file: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair file: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	// The embedded public key must be a valid curve point and match the seed.
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("keypair public key not on curve: %w", err)
	}
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !priv.Equal(derived) {
		return nil, fmt.Errorf("keypair file: public half does not match seed")
	}

	return &LocalSigner{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// NewEphemeralSigner generates a throwaway keypair. Suitable only for dry
// runs where nothing is broadcast.
func NewEphemeralSigner() (*LocalSigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &LocalSigner{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// Sign signs the message and returns signature || message.
func (s *LocalSigner) Sign(_ context.Context, message []byte) ([]byte, error) {
	if len(message) == 0 {
		return nil, fmt.Errorf("empty message")
	}
	sig := ed25519.Sign(s.priv, message)
	signed := make([]byte, 0, len(sig)+len(message))
	signed = append(signed, sig...)
	signed = append(signed, message...)
	return signed, nil
}

// PublicKey returns the base58-encoded public key.
func (s *LocalSigner) PublicKey() string {
	return s.pubkey
}

// Verify interface compliance at compile time.
var _ Signer = (*LocalSigner)(nil)
