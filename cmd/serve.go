package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"sol-relay/config"
	"sol-relay/pkg/logging"
	"sol-relay/pkg/pipeline"
	"sol-relay/pkg/ratelimit"
	"sol-relay/pkg/server"
	"sol-relay/pkg/signer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay HTTP service",
	Long: `Start the relay: load configuration, open the custody key (or connect the
delegated signer) and serve the /config, /health and /transfer endpoints.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	sgn, err := buildSigner(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open fee payer key")
		os.Exit(1)
	}
	log.Info().Str("fee_payer", sgn.PublicKey().String()).Msg("custody key ready")

	client := rpc.New(cfg.RPCURL)
	pipe := pipeline.New(client, cfg.CommitmentType(), time.Duration(cfg.ConfirmTimeout)*time.Second, log)
	balances := pipeline.NewBalanceCache(client, sgn.PublicKey(), cfg.Tokens, 10*time.Second)
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)

	srv := server.New(cfg, sgn, pipe, balances, limiter, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// buildSigner picks the custody variant: a local key when a secret is
// configured, otherwise the delegated signing service.
func buildSigner(cfg *config.Config) (signer.Signer, error) {
	if cfg.FeePayerSecret != "" {
		return signer.NewLocal(cfg.FeePayerSecret)
	}

	pub, err := solana.PublicKeyFromBase58(cfg.FeePayerPubkey)
	if err != nil {
		return nil, fmt.Errorf("invalid fee_payer_pubkey: %w", err)
	}
	return signer.NewRemote(cfg.RemoteSignerURL, pub, 10*time.Second), nil
}
