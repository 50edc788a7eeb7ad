// Package policy decides whether the relay will co-sign a transaction. The
// fee payer's signature authorizes the entire message, so every instruction
// is inspected, not just an expected fee slot: an unrelated transfer out of
// one of the sponsor's accounts would otherwise ride along with the
// sponsorship.
package policy

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"sol-relay/config"
)

// Reason identifies why a transaction was rejected.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonUnsupportedToken     Reason = "unsupported_token"
	ReasonWrongFeePayer        Reason = "wrong_fee_payer"
	ReasonMissingUserSignature Reason = "missing_user_signature"
	ReasonSponsorAlreadySigned Reason = "sponsor_already_signed"
	ReasonUnexpectedSignature  Reason = "unexpected_signature"
	ReasonNoFeeInstruction     Reason = "no_fee_instruction"
	ReasonFeeBelowMinimum      Reason = "fee_below_minimum"
)

// Verdict is the outcome of validating a transaction against the fee policy.
// Token is set only when Valid is true.
type Verdict struct {
	Valid  bool
	Reason Reason
	Token  *config.Token
}

func reject(r Reason) Verdict {
	return Verdict{Valid: false, Reason: r}
}

// SPL Token program instruction discriminators.
const (
	splTransfer        = 3
	splTransferChecked = 12
)

// Validate checks a decoded transaction against the relay's fee policy.
// Checks run in a fixed order and stop at the first failure so every
// rejection carries a deterministic reason:
//
//  1. a hinted mint must be a configured token
//  2. the sponsor must be named at the fee-payer slot
//  3. exactly one foreign signature must be present, and the sponsor slot
//     must still be empty
//  4. some instruction must transfer at least the token's minimum fee to the
//     token's fee account
//
// Without a hint, configured tokens are tried in order and the first whose
// fee account receives a transfer wins.
func Validate(tx *solana.Transaction, hintedMint string, cfg *config.Config, sponsor solana.PublicKey) Verdict {
	candidates := cfg.Tokens
	if hintedMint != "" {
		tok, ok := cfg.TokenByMint(hintedMint)
		if !ok {
			return reject(ReasonUnsupportedToken)
		}
		candidates = []config.Token{*tok}
	}

	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(sponsor) {
		return reject(ReasonWrongFeePayer)
	}

	if r := checkSignatures(tx); r != ReasonNone {
		return reject(r)
	}

	for i := range candidates {
		tok := &candidates[i]
		total, found := sumFeeTransfers(tx, tok)
		if !found {
			continue
		}
		if total < tok.MinFee {
			return reject(ReasonFeeBelowMinimum)
		}
		return Verdict{Valid: true, Token: tok}
	}

	return reject(ReasonNoFeeInstruction)
}

// checkSignatures enforces the partially-signed shape the relay sponsors:
// the fee-payer slot empty, exactly one non-zero signature elsewhere in the
// signer prefix.
func checkSignatures(tx *solana.Transaction) Reason {
	required := int(tx.Message.Header.NumRequiredSignatures)

	if len(tx.Signatures) > 0 && !tx.Signatures[0].IsZero() {
		return ReasonSponsorAlreadySigned
	}

	foreign := 0
	for i := 1; i < required && i < len(tx.Signatures); i++ {
		if !tx.Signatures[i].IsZero() {
			foreign++
		}
	}
	switch {
	case foreign == 0:
		return ReasonMissingUserSignature
	case foreign > 1:
		return ReasonUnexpectedSignature
	}
	return ReasonNone
}

// sumFeeTransfers walks every instruction and accumulates SPL token transfer
// amounts whose destination is the token's fee account. Matching never
// depends on instruction position; legitimate instructions before or after
// the fee transfer are ignored.
func sumFeeTransfers(tx *solana.Transaction, tok *config.Token) (uint64, bool) {
	var total uint64
	found := false

	for _, ix := range tx.Message.Instructions {
		amount, ok := feeTransferAmount(&tx.Message, ix, tok)
		if ok {
			total += amount
			found = true
		}
	}

	return total, found
}

// feeTransferAmount returns the amount an instruction transfers to the
// token's fee account, or false if the instruction is not such a transfer.
func feeTransferAmount(msg *solana.Message, ix solana.CompiledInstruction, tok *config.Token) (uint64, bool) {
	if int(ix.ProgramIDIndex) >= len(msg.AccountKeys) {
		return 0, false
	}
	if !msg.AccountKeys[ix.ProgramIDIndex].Equals(solana.TokenProgramID) {
		return 0, false
	}
	if len(ix.Data) < 9 {
		return 0, false
	}

	// Transfer: [source, destination, owner]
	// TransferChecked: [source, mint, destination, owner]
	var destPos int
	switch ix.Data[0] {
	case splTransfer:
		destPos = 1
	case splTransferChecked:
		destPos = 2
	default:
		return 0, false
	}
	if len(ix.Accounts) <= destPos {
		return 0, false
	}

	destIdx := int(ix.Accounts[destPos])
	if destIdx >= len(msg.AccountKeys) {
		return 0, false
	}
	if !msg.AccountKeys[destIdx].Equals(tok.FeeAccountKey) {
		return 0, false
	}

	// TransferChecked names the mint; use it to rule out a foreign token
	// paying into a reused fee account.
	if ix.Data[0] == splTransferChecked {
		mintIdx := int(ix.Accounts[1])
		if mintIdx >= len(msg.AccountKeys) || !msg.AccountKeys[mintIdx].Equals(tok.MintKey) {
			return 0, false
		}
	}

	return binary.LittleEndian.Uint64(ix.Data[1:9]), true
}
