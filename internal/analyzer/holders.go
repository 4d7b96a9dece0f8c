package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"solana-token-analyzer/internal/domain"
	"solana-token-analyzer/internal/solana"
)

// DefaultHolderLimit is the number of holders listed when no limit is given.
const DefaultHolderLimit = 10

// Holders lists up to limit of the largest token accounts of meta.Address,
// largest first, with each account's owner resolved and classified.
// Owner lookup is best effort: on failure owners are left unknown.
func (a *Analyzer) Holders(ctx context.Context, meta *domain.TokenMetadata, limit int) ([]domain.Holder, error) {
	if limit <= 0 {
		limit = DefaultHolderLimit
	}

	largest, err := a.rpc.GetTokenLargestAccounts(ctx, meta.Address)
	if err != nil {
		return nil, fmt.Errorf("get largest accounts: %w", err)
	}
	if len(largest) > limit {
		largest = largest[:limit]
	}
	if len(largest) == 0 {
		return nil, nil
	}

	holders := make([]domain.Holder, len(largest))
	addresses := make([]string, len(largest))
	for i, bal := range largest {
		addresses[i] = bal.Address
		holders[i] = domain.Holder{
			TokenAccount: bal.Address,
			OwnerKind:    domain.OwnerUnknown,
		}
		if bal.Amount != nil {
			holders[i].RawAmount = *bal.Amount
		}
		holders[i].Amount = balanceAmount(bal, meta.Decimals)
		if meta.TotalSupply > 0 {
			holders[i].Share = holders[i].Amount / meta.TotalSupply
		}
	}

	accounts, err := a.rpc.GetTokenAccounts(ctx, addresses)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, err
		}
		a.logger.Printf("WARN: resolve holder owners for %s: %v", meta.Address, err)
		return holders, nil
	}

	for i := range holders {
		if i >= len(accounts) || accounts[i] == nil || accounts[i].Owner == nil || *accounts[i].Owner == "" {
			continue
		}
		owner := *accounts[i].Owner
		holders[i].Owner = owner
		holders[i].OwnerKind = classifyOwner(owner)
	}

	return holders, nil
}

// balanceAmount prefers the node's uiAmountString and falls back to the
// raw amount scaled by the entry's decimals, or by fallback decimals.
func balanceAmount(bal solana.TokenAccountBalance, fallback int) float64 {
	if bal.UIAmountString != nil {
		if v, err := strconv.ParseFloat(*bal.UIAmountString, 64); err == nil {
			return v
		}
	}
	if bal.Amount == nil {
		return 0
	}
	decimals := fallback
	if bal.Decimals.Valid && bal.Decimals.Value >= 0 {
		decimals = int(bal.Decimals.Value)
	}
	v, _ := uiAmount(*bal.Amount, decimals)
	return v
}

// classifyOwner tells wallets (ed25519 keys) from program derived addresses.
func classifyOwner(owner string) domain.OwnerKind {
	if solana.ValidateAddress(owner) != nil {
		return domain.OwnerUnknown
	}
	if solana.IsOnCurveAddress(owner) {
		return domain.OwnerWallet
	}
	return domain.OwnerPDA
}
