// Package testutil builds the transaction fixtures shared by the relay's
// test suites.
package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"sol-relay/config"
)

// Blockhash returns a random hash usable as a recent blockhash.
func Blockhash() solana.Hash {
	return solana.Hash(solana.NewWallet().PublicKey())
}

// TransferData encodes an SPL Token Transfer instruction payload.
func TransferData(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

// TransferCheckedData encodes an SPL Token TransferChecked instruction
// payload.
func TransferCheckedData(amount uint64, decimals uint8) []byte {
	data := make([]byte, 10)
	data[0] = 12
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals
	return data
}

// SponsoredTransfer builds the canonical shape the relay sponsors: the
// sponsor at the fee-payer slot with its signature slot empty, the user
// signed, and one SPL transfer of amount into the token's fee account.
//
// Account layout: 0 sponsor, 1 user, 2 user token account, 3 fee account,
// 4 token program.
func SponsoredTransfer(tb testing.TB, sponsor solana.PublicKey, user *solana.Wallet, tok config.Token, amount uint64) *solana.Transaction {
	tb.Helper()

	tx := &solana.Transaction{
		Message: solana.Message{
			Header: solana.MessageHeader{
				NumRequiredSignatures:       2,
				NumReadonlySignedAccounts:   0,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys: []solana.PublicKey{
				sponsor,
				user.PublicKey(),
				solana.NewWallet().PublicKey(),
				tok.FeeAccountKey,
				solana.TokenProgramID,
			},
			RecentBlockhash: Blockhash(),
			Instructions: []solana.CompiledInstruction{
				{
					ProgramIDIndex: 4,
					Accounts:       []uint16{2, 3, 1},
					Data:           solana.Base58(TransferData(amount)),
				},
			},
		},
		Signatures: []solana.Signature{{}, {}},
	}

	SignAsUser(tb, tx, user, 1)
	return tx
}

// SignAsUser writes a real signature over the message into the given slot.
func SignAsUser(tb testing.TB, tx *solana.Transaction, user *solana.Wallet, slot int) {
	tb.Helper()

	msg, err := tx.Message.MarshalBinary()
	require.NoError(tb, err)

	sig, err := user.PrivateKey.Sign(msg)
	require.NoError(tb, err)

	for len(tx.Signatures) <= slot {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	tx.Signatures[slot] = sig
}

// FeeToken builds a configured fee token with freshly generated addresses.
func FeeToken(symbol string, minFee uint64) config.Token {
	mint := solana.NewWallet().PublicKey()
	feeAccount := solana.NewWallet().PublicKey()
	return config.Token{
		Mint:          mint.String(),
		Symbol:        symbol,
		Decimals:      6,
		MinFee:        minFee,
		FeeAccount:    feeAccount.String(),
		MintKey:       mint,
		FeeAccountKey: feeAccount,
	}
}
