package policy

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"sol-relay/config"
	"sol-relay/pkg/testutil"
)

func testConfig(tokens ...config.Token) *config.Config {
	return &config.Config{Tokens: tokens}
}

func TestValidateAcceptsSponsoredTransfer(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	user := solana.NewWallet()
	tx := testutil.SponsoredTransfer(t, sponsor, user, tok, 10000)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.True(t, verdict.Valid)
	require.Equal(t, ReasonNone, verdict.Reason)
	require.NotNil(t, verdict.Token)
	require.Equal(t, tok.Mint, verdict.Token.Mint)
}

func TestValidateFeeBelowMinimum(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	tx := testutil.SponsoredTransfer(t, sponsor, solana.NewWallet(), tok, 9999)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonFeeBelowMinimum, verdict.Reason)
}

func TestValidateMissingUserSignature(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	tx := testutil.SponsoredTransfer(t, sponsor, solana.NewWallet(), tok, 10000)
	tx.Signatures = nil

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonMissingUserSignature, verdict.Reason)

	// Zero-filled slots count the same as absent ones.
	tx.Signatures = []solana.Signature{{}, {}}
	verdict = Validate(tx, "", testConfig(tok), sponsor)
	require.Equal(t, ReasonMissingUserSignature, verdict.Reason)
}

func TestValidateWrongFeePayerEvenWithValidFee(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	tx := testutil.SponsoredTransfer(t, other, solana.NewWallet(), tok, 10000)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonWrongFeePayer, verdict.Reason)
}

func TestValidateSponsorSlotAlreadyFilled(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	tx := testutil.SponsoredTransfer(t, sponsor, solana.NewWallet(), tok, 10000)
	tx.Signatures[0][0] = 1

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonSponsorAlreadySigned, verdict.Reason)
}

func TestValidateRejectsExtraForeignSignatures(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	tx := testutil.SponsoredTransfer(t, sponsor, solana.NewWallet(), tok, 10000)
	tx.Message.Header.NumRequiredSignatures = 3
	extra := solana.Signature{}
	extra[0] = 7
	tx.Signatures = append(tx.Signatures, extra)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonUnexpectedSignature, verdict.Reason)
}

func TestValidateHintedMintMustBeConfigured(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	tx := testutil.SponsoredTransfer(t, sponsor, solana.NewWallet(), tok, 10000)

	verdict := Validate(tx, solana.NewWallet().PublicKey().String(), testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonUnsupportedToken, verdict.Reason)

	verdict = Validate(tx, tok.Mint, testConfig(tok), sponsor)
	require.True(t, verdict.Valid)
}

func TestValidateNoFeeInstruction(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	tx := testutil.SponsoredTransfer(t, sponsor, solana.NewWallet(), tok, 10000)

	// Redirect the transfer away from the fee account.
	tx.Message.AccountKeys[3] = solana.NewWallet().PublicKey()

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonNoFeeInstruction, verdict.Reason)
}

func TestValidateIgnoresInstructionPosition(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	user := solana.NewWallet()
	tx := testutil.SponsoredTransfer(t, sponsor, user, tok, 10000)

	// Surround the fee transfer with unrelated token transfers to other
	// destinations.
	unrelated := solana.CompiledInstruction{
		ProgramIDIndex: 4,
		Accounts:       []uint16{2, 2, 1},
		Data:           solana.Base58(testutil.TransferData(1)),
	}
	feeIx := tx.Message.Instructions[0]
	tx.Message.Instructions = []solana.CompiledInstruction{unrelated, feeIx, unrelated}
	testutil.SignAsUser(t, tx, user, 1)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.True(t, verdict.Valid)
}

func TestValidateSumsSplitFeeTransfers(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	user := solana.NewWallet()
	tx := testutil.SponsoredTransfer(t, sponsor, user, tok, 6000)

	half := solana.CompiledInstruction{
		ProgramIDIndex: 4,
		Accounts:       []uint16{2, 3, 1},
		Data:           solana.Base58(testutil.TransferData(4000)),
	}
	tx.Message.Instructions = append(tx.Message.Instructions, half)
	testutil.SignAsUser(t, tx, user, 1)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.True(t, verdict.Valid)
}

func TestValidateTransferChecked(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	user := solana.NewWallet()
	tx := testutil.SponsoredTransfer(t, sponsor, user, tok, 10000)

	// Swap in a TransferChecked: [source, mint, destination, owner].
	tx.Message.AccountKeys = append(tx.Message.AccountKeys, tok.MintKey)
	mintIdx := uint16(len(tx.Message.AccountKeys) - 1)
	tx.Message.Instructions = []solana.CompiledInstruction{
		{
			ProgramIDIndex: 4,
			Accounts:       []uint16{2, mintIdx, 3, 1},
			Data:           solana.Base58(testutil.TransferCheckedData(10000, 6)),
		},
	}
	testutil.SignAsUser(t, tx, user, 1)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.True(t, verdict.Valid)

	// A TransferChecked naming a foreign mint must not count, even into the
	// right account.
	tx.Message.AccountKeys[mintIdx] = solana.NewWallet().PublicKey()
	testutil.SignAsUser(t, tx, user, 1)
	verdict = Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonNoFeeInstruction, verdict.Reason)
}

func TestValidateFirstMatchingTokenWins(t *testing.T) {
	first := testutil.FeeToken("USDC", 10000)
	second := testutil.FeeToken("USDT", 5000)
	sponsor := solana.NewWallet().PublicKey()
	user := solana.NewWallet()

	// The transfer pays the second token's fee account.
	tx := testutil.SponsoredTransfer(t, sponsor, user, second, 5000)

	verdict := Validate(tx, "", testConfig(first, second), sponsor)
	require.True(t, verdict.Valid)
	require.Equal(t, second.Mint, verdict.Token.Mint)
}

func TestValidateNonTokenProgramIgnored(t *testing.T) {
	tok := testutil.FeeToken("USDC", 10000)
	sponsor := solana.NewWallet().PublicKey()
	user := solana.NewWallet()
	tx := testutil.SponsoredTransfer(t, sponsor, user, tok, 10000)

	// Same data shape, but the program is not the SPL token program.
	tx.Message.AccountKeys[4] = solana.SystemProgramID
	testutil.SignAsUser(t, tx, user, 1)

	verdict := Validate(tx, "", testConfig(tok), sponsor)
	require.False(t, verdict.Valid)
	require.Equal(t, ReasonNoFeeInstruction, verdict.Reason)
}
