package codec

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/require"

	"sol-relay/pkg/testutil"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	payer := solana.NewWallet()
	user := solana.NewWallet()

	ix := token.NewTransferInstruction(
		10000,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		user.PublicKey(),
		[]solana.PublicKey{},
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		testutil.Blockhash(),
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	// Partially sign as the user only, leaving the fee payer slot empty.
	NormalizeSignatures(tx)
	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	userSig, err := user.PrivateKey.Sign(msg)
	require.NoError(t, err)
	tx.Signatures[1] = userSig

	raw, err := Encode(tx)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, tx.Message.AccountKeys, decoded.Message.AccountKeys)
	require.Equal(t, tx.Signatures, decoded.Signatures)

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, raw, reencoded)
}

func TestDecodeBase64RoundTrip(t *testing.T) {
	payer := solana.NewWallet()

	ix := token.NewTransferInstruction(
		1,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		payer.PublicKey(),
		[]solana.PublicKey{},
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		testutil.Blockhash(),
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	b64, err := EncodeBase64(tx)
	require.NoError(t, err)

	decoded, err := DecodeBase64(b64)
	require.NoError(t, err)

	roundTrip, err := EncodeBase64(decoded)
	require.NoError(t, err)
	require.Equal(t, b64, roundTrip)
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestDecodeTruncatedInput(t *testing.T) {
	payer := solana.NewWallet()
	ix := token.NewTransferInstruction(
		1,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		payer.PublicKey(),
		[]solana.PublicKey{},
	).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		testutil.Blockhash(),
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	raw, err := Encode(tx)
	require.NoError(t, err)

	for _, cut := range []int{1, len(raw) / 2, len(raw) - 1} {
		_, err := Decode(raw[:cut])
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr), "truncated at %d bytes should fail", cut)
	}
}

func TestDecodeBase64Garbage(t *testing.T) {
	_, err := DecodeBase64("not base64 at all!!!")
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))

	// Valid base64, malformed payload.
	_, err = DecodeBase64(base64.StdEncoding.EncodeToString([]byte{0xff, 0x01, 0x02}))
	require.Error(t, err)
}

func TestNormalizeSignatures(t *testing.T) {
	payer := solana.NewWallet()
	ix := token.NewTransferInstruction(
		1,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		payer.PublicKey(),
		[]solana.PublicKey{},
	).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		testutil.Blockhash(),
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	require.Empty(t, tx.Signatures)
	NormalizeSignatures(tx)
	require.Len(t, tx.Signatures, RequiredSigners(tx))
	for _, sig := range tx.Signatures {
		require.True(t, sig.IsZero())
	}
}

func TestFeePayerIsAccountZero(t *testing.T) {
	payer := solana.NewWallet()
	ix := token.NewTransferInstruction(
		1,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		payer.PublicKey(),
		[]solana.PublicKey{},
	).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		testutil.Blockhash(),
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	require.Equal(t, payer.PublicKey(), FeePayer(tx))
}
