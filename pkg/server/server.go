// Package server is the relay's HTTP boundary: routing, CORS, admission
// control and the mapping from internal errors to response codes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sol-relay/config"
	"sol-relay/pkg/logging"
	"sol-relay/pkg/pipeline"
	"sol-relay/pkg/ratelimit"
	"sol-relay/pkg/signer"

	"github.com/gagliardetto/solana-go"
)

// Submitter is the slice of the submission pipeline the handlers use.
type Submitter interface {
	Submit(ctx context.Context, tx *solana.Transaction) (pipeline.Outcome, error)
}

// BalanceSource feeds the health surface.
type BalanceSource interface {
	Snapshot(ctx context.Context) (*pipeline.Balances, error)
}

// Server wires the relay components behind the HTTP surface.
type Server struct {
	cfg       *config.Config
	signer    signer.Signer
	submitter Submitter
	balances  BalanceSource
	limiter   *ratelimit.Limiter
	log       zerolog.Logger
	engine    *gin.Engine
}

// New assembles the gin engine with all routes registered.
func New(cfg *config.Config, sgn signer.Signer, submitter Submitter, balances BalanceSource, limiter *ratelimit.Limiter, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:       cfg,
		signer:    sgn,
		submitter: submitter,
		balances:  balances,
		limiter:   limiter,
		log:       logging.WithComponent(log, "server"),
	}

	engine := gin.New()
	engine.Use(s.recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "X-Api-Key"},
	}))

	engine.GET("/config", s.handleConfig)
	engine.GET("/health", s.handleHealth)
	engine.GET("/healthz", s.handleLiveness)
	engine.POST("/transfer", s.rateLimit(), s.handleTransfer)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
	return s
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("relay listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// recovery catches handler panics, logs the detail and answers with a
// generic 500; the caller never sees a stack trace.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().
					Interface("panic_value", r).
					Str(logging.FieldRemote, c.ClientIP()).
					Msg("panic recovered in handler")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
