package signer

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"sol-relay/pkg/testutil"
)

func TestNewLocalBase58(t *testing.T) {
	wallet := solana.NewWallet()

	local, err := NewLocal(wallet.PrivateKey.String())
	require.NoError(t, err)
	require.Equal(t, wallet.PublicKey(), local.PublicKey())
}

func TestNewLocalJSONArray(t *testing.T) {
	wallet := solana.NewWallet()

	parts := make([]string, len(wallet.PrivateKey))
	for i, b := range wallet.PrivateKey {
		parts[i] = fmt.Sprintf("%d", b)
	}
	secret := "[" + strings.Join(parts, ",") + "]"

	local, err := NewLocal(secret)
	require.NoError(t, err)
	require.Equal(t, wallet.PublicKey(), local.PublicKey())
}

func TestNewLocalRejectsGarbage(t *testing.T) {
	_, err := NewLocal("")
	require.Error(t, err)

	_, err = NewLocal("not a key")
	require.Error(t, err)

	_, err = NewLocal("[1,2,3]")
	require.Error(t, err)
}

func TestCoSignFillsOnlySponsorSlot(t *testing.T) {
	sponsorWallet := solana.NewWallet()
	local, err := NewLocal(sponsorWallet.PrivateKey.String())
	require.NoError(t, err)

	user := solana.NewWallet()
	tok := testutil.FeeToken("USDC", 10000)
	tx := testutil.SponsoredTransfer(t, sponsorWallet.PublicKey(), user, tok, 10000)

	messageBefore, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	userSigBefore := tx.Signatures[1]

	require.NoError(t, CoSign(context.Background(), tx, local))

	// The message and the user's signature are byte-identical; only the
	// sponsor slot changed.
	messageAfter, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, messageBefore, messageAfter)
	require.Equal(t, userSigBefore, tx.Signatures[1])
	require.False(t, tx.Signatures[0].IsZero())

	// And the new signature actually verifies over the message.
	pub := ed25519.PublicKey(sponsorWallet.PublicKey().Bytes())
	require.True(t, ed25519.Verify(pub, messageAfter, tx.Signatures[0][:]))
}

func TestCoSignExtendsShortSignatureArray(t *testing.T) {
	sponsorWallet := solana.NewWallet()
	local, err := NewLocal(sponsorWallet.PrivateKey.String())
	require.NoError(t, err)

	user := solana.NewWallet()
	tok := testutil.FeeToken("USDC", 10000)
	tx := testutil.SponsoredTransfer(t, sponsorWallet.PublicKey(), user, tok, 10000)
	tx.Signatures = nil

	require.NoError(t, CoSign(context.Background(), tx, local))
	require.Len(t, tx.Signatures, 2)
	require.False(t, tx.Signatures[0].IsZero())
}
