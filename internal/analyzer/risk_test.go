package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-token-analyzer/internal/domain"
)

func TestAnalyzeRisk(t *testing.T) {
	tests := []struct {
		name string
		meta *domain.TokenMetadata
		want domain.RiskAssessment
	}{
		{
			name: "no authorities",
			meta: &domain.TokenMetadata{},
			want: domain.RiskAssessment{},
		},
		{
			name: "mint authority only",
			meta: &domain.TokenMetadata{MintAuthority: strPtr("Auth")},
			want: domain.RiskAssessment{domain.RiskCentralizedMint: MsgCentralizedMint},
		},
		{
			name: "freeze authority only",
			meta: &domain.TokenMetadata{FreezeAuthority: strPtr("Frz")},
			want: domain.RiskAssessment{domain.RiskFreeze: MsgFreezeRisk},
		},
		{
			name: "both",
			meta: &domain.TokenMetadata{MintAuthority: strPtr("Auth"), FreezeAuthority: strPtr("Frz")},
			want: domain.RiskAssessment{
				domain.RiskCentralizedMint: MsgCentralizedMint,
				domain.RiskFreeze:          MsgFreezeRisk,
			},
		},
		{
			name: "nil metadata",
			meta: nil,
			want: domain.RiskAssessment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeRisk(tt.meta)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyzeRisk_IgnoresOtherFields(t *testing.T) {
	meta := &domain.TokenMetadata{
		TotalSupply:   1e18,
		Decimals:      0,
		IsInitialized: false,
		Name:          strPtr("Scam"),
	}
	assert.Empty(t, AnalyzeRisk(meta))
}

func TestConcentrationRisk(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, ConcentrationRisk(nil))
	})

	t.Run("whale", func(t *testing.T) {
		risks := ConcentrationRisk([]domain.Holder{{Share: 0.1}, {Share: 0.625}})
		assert.Equal(t, "Top holder owns 62.5% of supply.", risks[domain.RiskWhaleConcentration])
		assert.NotContains(t, risks, domain.RiskTop10Concentration)
	})

	t.Run("top ten", func(t *testing.T) {
		holders := make([]domain.Holder, 12)
		for i := range holders {
			holders[i].Share = 0.085
		}
		risks := ConcentrationRisk(holders)
		assert.NotContains(t, risks, domain.RiskWhaleConcentration)
		assert.Equal(t, "Top 10 holders own 85.0% of supply.", risks[domain.RiskTop10Concentration])
	})

	t.Run("distributed", func(t *testing.T) {
		holders := []domain.Holder{{Share: 0.2}, {Share: 0.1}, {Share: 0.05}}
		assert.Empty(t, ConcentrationRisk(holders))
	})

	t.Run("threshold inclusive", func(t *testing.T) {
		risks := ConcentrationRisk([]domain.Holder{{Share: 0.5}, {Share: 0.4}})
		assert.Contains(t, risks, domain.RiskWhaleConcentration)
		assert.Contains(t, risks, domain.RiskTop10Concentration)
	})
}
