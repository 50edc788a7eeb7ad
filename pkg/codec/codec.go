// Package codec decodes and encodes the Solana wire transaction format.
// Decoding is side-effect-free and lossless: Encode(Decode(b)) == b for any
// well-formed input.
package codec

import (
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DecodeError is returned for any malformed transaction input: truncated
// buffers, bad length prefixes, or signature/account-count mismatches.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "decode " + e.Op
	}
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a serialized transaction. The returned transaction keeps the
// exact account ordering, instruction data and signature slots of the input.
func Decode(raw []byte) (*solana.Transaction, error) {
	if len(raw) == 0 {
		return nil, &DecodeError{Op: "transaction", Err: fmt.Errorf("empty input")}
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, &DecodeError{Op: "transaction", Err: err}
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 {
		return nil, &DecodeError{Op: "header", Err: fmt.Errorf("no required signers")}
	}
	if required > len(tx.Message.AccountKeys) {
		return nil, &DecodeError{Op: "header", Err: fmt.Errorf(
			"%d required signers but only %d accounts", required, len(tx.Message.AccountKeys))}
	}
	if len(tx.Signatures) > required {
		return nil, &DecodeError{Op: "signatures", Err: fmt.Errorf(
			"%d signatures for %d required signers", len(tx.Signatures), required)}
	}
	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(tx.Message.AccountKeys) {
			return nil, &DecodeError{Op: "instructions", Err: fmt.Errorf(
				"program index %d out of range", ix.ProgramIDIndex)}
		}
		for _, ai := range ix.Accounts {
			if int(ai) >= len(tx.Message.AccountKeys) {
				return nil, &DecodeError{Op: "instructions", Err: fmt.Errorf(
					"account index %d out of range", ai)}
			}
		}
	}

	return tx, nil
}

// DecodeBase64 parses a base64-encoded serialized transaction.
func DecodeBase64(b64 string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &DecodeError{Op: "base64", Err: err}
	}
	return Decode(raw)
}

// Encode serializes a transaction back to wire bytes.
func Encode(tx *solana.Transaction) ([]byte, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return raw, nil
}

// EncodeBase64 serializes a transaction to base64 wire bytes.
func EncodeBase64(tx *solana.Transaction) (string, error) {
	raw, err := Encode(tx)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// RequiredSigners returns the number of signature slots the message demands.
func RequiredSigners(tx *solana.Transaction) int {
	return int(tx.Message.Header.NumRequiredSignatures)
}

// FeePayer returns the designated fee payer, account index 0 by wire
// convention.
func FeePayer(tx *solana.Transaction) solana.PublicKey {
	if len(tx.Message.AccountKeys) == 0 {
		return solana.PublicKey{}
	}
	return tx.Message.AccountKeys[0]
}

// NormalizeSignatures extends the signature array with zero slots until it is
// aligned 1:1 with the signer prefix of the account list. Wallets commonly
// serialize partially-signed transactions with the trailing empty slots
// omitted.
func NormalizeSignatures(tx *solana.Transaction) {
	required := RequiredSigners(tx)
	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
}
