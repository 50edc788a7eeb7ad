package pipeline

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"sol-relay/config"
)

// TokenBalance is the fee payer's holding of one supported fee token.
type TokenBalance struct {
	Mint     string
	Symbol   string
	Amount   uint64
	Decimals uint8
}

// Formatted renders the amount in whole-token units.
func (b TokenBalance) Formatted() string {
	scale := 1.0
	for i := uint8(0); i < b.Decimals; i++ {
		scale *= 10
	}
	return strconv.FormatFloat(float64(b.Amount)/scale, 'f', int(b.Decimals), 64)
}

// Balances is a point-in-time view of the fee payer's funds. Advisory only:
// it feeds the health surface and never gates signing.
type Balances struct {
	Lamports  uint64
	Tokens    []TokenBalance
	FetchedAt time.Time
}

// SOL renders the native balance in whole SOL.
func (b *Balances) SOL() string {
	return strconv.FormatFloat(float64(b.Lamports)/1e9, 'f', 9, 64)
}

// BalanceCache refreshes the fee payer's native and token balances on
// demand, keeping the last snapshot for a TTL so health probes don't hammer
// the RPC node.
type BalanceCache struct {
	client Broadcaster
	owner  solana.PublicKey
	tokens []config.Token
	ttl    time.Duration

	mu   sync.Mutex
	last *Balances
}

// NewBalanceCache builds a cache for the fee payer's balances in the
// configured fee tokens.
func NewBalanceCache(client Broadcaster, owner solana.PublicKey, tokens []config.Token, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &BalanceCache{
		client: client,
		owner:  owner,
		tokens: tokens,
		ttl:    ttl,
	}
}

// Snapshot returns the cached balances, refreshing them when stale.
func (c *BalanceCache) Snapshot(ctx context.Context) (*Balances, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && time.Since(c.last.FetchedAt) < c.ttl {
		return c.last, nil
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.last = fresh
	return fresh, nil
}

func (c *BalanceCache) fetch(ctx context.Context) (*Balances, error) {
	native, err := c.client.GetBalance(ctx, c.owner, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}

	out := &Balances{
		Lamports:  native.Value,
		Tokens:    make([]TokenBalance, 0, len(c.tokens)),
		FetchedAt: time.Now(),
	}

	for _, tok := range c.tokens {
		out.Tokens = append(out.Tokens, TokenBalance{
			Mint:     tok.Mint,
			Symbol:   tok.Symbol,
			Amount:   c.tokenAmount(ctx, tok),
			Decimals: tok.Decimals,
		})
	}

	return out, nil
}

// tokenAmount resolves the fee payer's associated token account and reads
// its balance. A missing account reads as zero, matching how an unfunded
// fee payer should look on the health surface.
func (c *BalanceCache) tokenAmount(ctx context.Context, tok config.Token) uint64 {
	ata, _, err := solana.FindAssociatedTokenAddress(c.owner, tok.MintKey)
	if err != nil {
		return 0
	}

	resp, err := c.client.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil || resp == nil || resp.Value == nil {
		return 0
	}

	amount, err := strconv.ParseUint(resp.Value.Amount, 10, 64)
	if err != nil {
		return 0
	}
	return amount
}
