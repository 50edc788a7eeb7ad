package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sol-relay/pkg/codec"
	"sol-relay/pkg/logging"
	"sol-relay/pkg/observability"
	"sol-relay/pkg/pipeline"
	"sol-relay/pkg/policy"
	"sol-relay/pkg/signer"
)

type tokenInfo struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Fee      uint64 `json:"fee"`
	Account  string `json:"account"`
}

// handleConfig reports the relay's public parameters. Read-only; never
// touches the signer or the pipeline.
func (s *Server) handleConfig(c *gin.Context) {
	tokens := make([]tokenInfo, 0, len(s.cfg.Tokens))
	for _, t := range s.cfg.Tokens {
		tokens = append(tokens, tokenInfo{
			Mint:     t.Mint,
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
			Fee:      t.MinFee,
			Account:  t.FeeAccount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"feePayer": s.signer.PublicKey().String(),
		"endpoints": gin.H{
			"transfer": gin.H{"tokens": tokens},
		},
		"rateLimit": s.cfg.RateLimit.MaxRequests,
	})
}

type tokenBalanceInfo struct {
	Mint             string `json:"mint"`
	Symbol           string `json:"symbol"`
	Balance          uint64 `json:"balance"`
	BalanceFormatted string `json:"balanceFormatted"`
}

// handleHealth reports the fee payer's balances. Advisory: a low balance
// flips the status but never blocks the signing path.
func (s *Server) handleHealth(c *gin.Context) {
	balances, err := s.balances.Snapshot(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("balance refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "health check failed"})
		return
	}

	tokens := make([]tokenBalanceInfo, 0, len(balances.Tokens))
	for _, t := range balances.Tokens {
		tokens = append(tokens, tokenBalanceInfo{
			Mint:             t.Mint,
			Symbol:           t.Symbol,
			Balance:          t.Amount,
			BalanceFormatted: t.Formatted(),
		})
	}

	status := "healthy"
	if float64(balances.Lamports)/1e9 <= s.cfg.MinSOLBalance {
		status = "low_sol"
	}

	c.JSON(http.StatusOK, gin.H{
		"feePayer":      s.signer.PublicKey().String(),
		"solBalance":    balances.SOL(),
		"tokenBalances": tokens,
		"status":        status,
	})
}

// handleLiveness is the bare process liveness probe.
func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type transferRequest struct {
	Transaction string `json:"transaction"`
	Mint        string `json:"mint"`
}

// handleTransfer is the relay hot path: decode, validate, co-sign, submit.
func (s *Server) handleTransfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Transaction == "" {
		observability.RequestsTotal.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing transaction"})
		return
	}

	tx, err := codec.DecodeBase64(req.Transaction)
	if err != nil {
		observability.RequestsTotal.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verdict := policy.Validate(tx, req.Mint, s.cfg, s.signer.PublicKey())
	if !verdict.Valid {
		observability.RequestsTotal.WithLabelValues("rejected").Inc()
		observability.RejectionsTotal.WithLabelValues(string(verdict.Reason)).Inc()
		s.log.Info().
			Str(logging.FieldReason, string(verdict.Reason)).
			Str(logging.FieldRemote, c.ClientIP()).
			Msg("transaction rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": string(verdict.Reason)})
		return
	}

	if err := signer.CoSign(c.Request.Context(), tx, s.signer); err != nil {
		observability.RequestsTotal.WithLabelValues("sign_error").Inc()
		s.log.Error().Err(err).Msg("co-signing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signing failed"})
		return
	}

	started := time.Now()
	outcome, err := s.submitter.Submit(c.Request.Context(), tx)
	if err != nil {
		// The network never handed out a signature; the raw error goes back
		// verbatim so the caller can decide how to rebuild.
		observability.RequestsTotal.WithLabelValues("send_error").Inc()
		s.log.Error().Err(err).Msg("submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	observability.ConfirmationSeconds.Observe(time.Since(started).Seconds())
	observability.RequestsTotal.WithLabelValues(string(outcome.State)).Inc()

	log := s.log.With().
		Str(logging.FieldSignature, outcome.Signature.String()).
		Str(logging.FieldMint, verdict.Token.Mint).
		Str(logging.FieldState, string(outcome.State)).
		Logger()

	switch outcome.State {
	case pipeline.StateOnChainError:
		log.Warn().Str("detail", outcome.ErrorDetail).Msg("transaction failed on chain")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     outcome.ErrorDetail,
			"signature": outcome.Signature.String(),
		})
	case pipeline.StateTimeout:
		log.Warn().Msg("confirmation timed out")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     outcome.ErrorDetail,
			"signature": outcome.Signature.String(),
		})
	default:
		log.Info().Msg("transaction relayed")
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"signature": outcome.Signature.String(),
		})
	}
}
