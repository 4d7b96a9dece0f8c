package analyzer

import (
	"fmt"
	"sort"

	"solana-token-analyzer/internal/domain"
)

// Risk messages.
const (
	MsgCentralizedMint = "Mint authority exists, additional tokens can be created."
	MsgFreezeRisk      = "Freeze authority exists, tokens can be frozen."
)

// Concentration thresholds, as fractions of total supply.
const (
	WhaleThreshold = 0.5
	Top10Threshold = 0.8
)

// AnalyzeRisk evaluates the authority rules against meta.
// An empty assessment means neither authority is set.
func AnalyzeRisk(meta *domain.TokenMetadata) domain.RiskAssessment {
	risks := make(domain.RiskAssessment)
	if meta == nil {
		return risks
	}
	if meta.MintAuthority != nil {
		risks[domain.RiskCentralizedMint] = MsgCentralizedMint
	}
	if meta.FreezeAuthority != nil {
		risks[domain.RiskFreeze] = MsgFreezeRisk
	}
	return risks
}

// ConcentrationRisk flags supply held by few accounts: a single holder at
// or above WhaleThreshold, or the ten largest at or above Top10Threshold.
func ConcentrationRisk(holders []domain.Holder) domain.RiskAssessment {
	risks := make(domain.RiskAssessment)
	if len(holders) == 0 {
		return risks
	}

	shares := make([]float64, len(holders))
	for i, h := range holders {
		shares[i] = h.Share
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(shares)))

	if shares[0] >= WhaleThreshold {
		risks[domain.RiskWhaleConcentration] = fmt.Sprintf("Top holder owns %.1f%% of supply.", shares[0]*100)
	}

	n := len(shares)
	if n > 10 {
		n = 10
	}
	var top float64
	for _, s := range shares[:n] {
		top += s
	}
	if top >= Top10Threshold {
		risks[domain.RiskTop10Concentration] = fmt.Sprintf("Top %d holders own %.1f%% of supply.", n, top*100)
	}

	return risks
}
