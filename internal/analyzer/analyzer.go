// Package analyzer turns Solana RPC responses into token metadata,
// holder and activity listings, and a heuristic risk assessment.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"

	"solana-token-analyzer/internal/domain"
	"solana-token-analyzer/internal/solana"
)

// Analyzer queries token data through an RPCClient.
type Analyzer struct {
	rpc    solana.RPCClient
	logger *log.Logger
}

// Option configures Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates an Analyzer backed by rpc.
func New(rpc solana.RPCClient, opts ...Option) *Analyzer {
	a := &Analyzer{
		rpc:    rpc,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetTokenMetadata fetches the supply and the mint account of address and
// merges them. Client failures are returned; missing fields are left absent.
func (a *Analyzer) GetTokenMetadata(ctx context.Context, address string) (*domain.TokenMetadata, error) {
	if err := solana.ValidateAddress(address); err != nil {
		return nil, err
	}

	supply, err := a.rpc.GetTokenSupply(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get token supply: %w", err)
	}

	mint, err := a.rpc.GetMintInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get mint info: %w", err)
	}

	meta := &domain.TokenMetadata{
		Address: address,
	}

	if supply.Decimals.Valid && supply.Decimals.Value >= 0 {
		meta.Decimals = int(supply.Decimals.Value)
	}
	if supply.Amount != nil {
		meta.RawAmount = *supply.Amount
		total, ok := uiAmount(*supply.Amount, meta.Decimals)
		if !ok {
			a.logger.Printf("WARN: unparseable supply amount %q for %s", *supply.Amount, address)
		}
		meta.TotalSupply = total
	}

	meta.MintAuthority = nonEmpty(mint.MintAuthority)
	meta.FreezeAuthority = nonEmpty(mint.FreezeAuthority)
	if mint.IsInitialized != nil {
		meta.IsInitialized = *mint.IsInitialized
	}
	meta.MintDecimals = mint.Decimals.IntPtr()

	if meta.DecimalsMismatch() {
		a.logger.Printf("WARN: decimals mismatch for %s: supply reports %d, mint account reports %d",
			address, meta.Decimals, *meta.MintDecimals)
	}

	return meta, nil
}

// uiAmount converts a raw integer amount to a UI amount. An unparseable
// amount yields 0 and false.
func uiAmount(raw string, decimals int) (float64, bool) {
	amount, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(amount) / math.Pow(10, float64(decimals)), true
}

// nonEmpty treats an empty authority string as absent.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
