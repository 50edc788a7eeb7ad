// Package signer holds the fee-payer custody boundary. Key material never
// leaves this package; the rest of the relay only sees the narrow Signer
// capability and cannot tell a local key from a delegated signing service.
package signer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer produces fee-payer signatures over serialized message bytes.
type Signer interface {
	PublicKey() solana.PublicKey
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)
}

// Local signs with in-process key material.
type Local struct {
	key solana.PrivateKey
}

// NewLocal parses a fee-payer secret. Both encodings the relay has
// historically accepted work: base58, or a JSON array of key bytes.
func NewLocal(secret string) (*Local, error) {
	if secret == "" {
		return nil, fmt.Errorf("fee payer secret is empty")
	}

	key, err := solana.PrivateKeyFromBase58(secret)
	if err == nil {
		return &Local{key: key}, nil
	}

	var nums []uint16
	if jsonErr := json.Unmarshal([]byte(secret), &nums); jsonErr != nil {
		return nil, fmt.Errorf("fee payer secret is neither base58 nor a JSON byte array: %w", err)
	}
	if len(nums) != 64 {
		return nil, fmt.Errorf("fee payer secret has %d bytes, want 64", len(nums))
	}
	raw := make([]byte, len(nums))
	for i, n := range nums {
		if n > 255 {
			return nil, fmt.Errorf("fee payer secret byte %d out of range", i)
		}
		raw[i] = byte(n)
	}
	return &Local{key: solana.PrivateKey(raw)}, nil
}

func (l *Local) PublicKey() solana.PublicKey {
	return l.key.PublicKey()
}

// SignMessage signs the serialized message. Signing is a pure function of
// the message bytes and the key, so concurrent use needs no coordination.
func (l *Local) SignMessage(_ context.Context, message []byte) (solana.Signature, error) {
	sig, err := l.key.Sign(message)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}

// CoSign writes the fee-payer signature into slot 0 of a transaction the
// policy has already approved. Every other byte of the message, and every
// existing signature, is left untouched.
func CoSign(ctx context.Context, tx *solana.Transaction, s Signer) error {
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	sig, err := s.SignMessage(ctx, message)
	if err != nil {
		return err
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	tx.Signatures[0] = sig
	return nil
}
