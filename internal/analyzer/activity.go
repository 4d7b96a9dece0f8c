package analyzer

import (
	"context"
	"fmt"

	"solana-token-analyzer/internal/domain"
	"solana-token-analyzer/internal/solana"
)

// DefaultActivityLimit is the number of transactions listed when no limit is given.
const DefaultActivityLimit = 5

// RecentActivity lists the most recent transactions that reference mint,
// newest first. Transactions are fetched one by one; a failed fetch keeps
// the signature-level status and leaves the fee unknown.
func (a *Analyzer) RecentActivity(ctx context.Context, mint string, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	sigs, err := a.rpc.GetSignaturesForAddress(ctx, mint, &solana.SignaturesOpts{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}
	if len(sigs) > limit {
		sigs = sigs[:limit]
	}

	activity := make([]domain.Activity, 0, len(sigs))
	for _, sig := range sigs {
		act := domain.Activity{
			Signature: sig.Signature,
			Slot:      sig.Slot,
			BlockTime: sig.BlockTime,
			Success:   sig.Err == nil,
		}

		tx, err := a.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Printf("WARN: get transaction %s: %v", sig.Signature, err)
		} else if tx != nil {
			act.Success = tx.Succeeded()
			if act.BlockTime == nil && tx.BlockTime != 0 {
				bt := tx.BlockTime
				act.BlockTime = &bt
			}
			if tx.Meta != nil {
				fee := tx.Meta.Fee
				act.Fee = &fee
			}
		}

		activity = append(activity, act)
	}

	return activity, nil
}
