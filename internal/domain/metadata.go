package domain

import "sort"

// TokenMetadata is the merged view of a mint's supply and mint account.
// It is recomputed on every query and never cached.
type TokenMetadata struct {
	Address         string  // mint address as queried
	TotalSupply     float64 // raw supply / 10^Decimals
	RawAmount       string  // raw supply as reported by getTokenSupply
	Decimals        int     // decimals from getTokenSupply
	MintDecimals    *int    // decimals from the mint account (nullable)
	MintAuthority   *string // nullable
	FreezeAuthority *string // nullable
	IsInitialized   bool
	Name            *string // Metaplex name (nullable)
	Symbol          *string // Metaplex symbol (nullable)
}

// DecimalsMismatch reports whether the mint account disagrees with the
// supply query about decimals. TotalSupply always uses Decimals.
func (m *TokenMetadata) DecimalsMismatch() bool {
	return m.MintDecimals != nil && *m.MintDecimals != m.Decimals
}

// Risk keys.
const (
	RiskCentralizedMint    = "centralized_mint"
	RiskFreeze             = "freeze_risk"
	RiskWhaleConcentration = "whale_concentration"
	RiskTop10Concentration = "top10_concentration"
)

// RiskAssessment maps a risk key to a human-readable message.
// A key is present only when its condition holds.
type RiskAssessment map[string]string

// Keys returns the risk keys in sorted order.
func (r RiskAssessment) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge copies other into r, overwriting duplicate keys.
func (r RiskAssessment) Merge(other RiskAssessment) {
	for k, v := range other {
		r[k] = v
	}
}
