package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

func approvedReports(n int) []domain.ReportRecord {
	out := make([]domain.ReportRecord, n)
	for i := range out {
		out[i] = domain.ReportRecord{
			ID:         int64(i + 1),
			EntityType: domain.EntityTypePhone,
			Value:      "0912345678",
			Status:     domain.ReportStatusApproved,
			CreatedAt:  time.Date(2026, 1, i+1, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestExplain_AllRulesFire(t *testing.T) {
	t.Parallel()

	entry := domain.CacheEntry{
		EntityType:  domain.EntityTypePhone,
		Value:       "0912345678",
		ReportCount: 5,
		RiskLevel:   domain.RiskLevelHigh,
	}

	got := Explain(entry, approvedReports(2))

	assert.Equal(t, 85, got.RiskScore)
	assert.Equal(t, domain.RiskLevelHigh, got.RiskLevel)
	assert.Equal(t, []string{RuleMultiReport, RuleCommunityConfirmed, RuleHighRiskLevel}, got.TriggeredRules)
	assert.Equal(t, map[string]int{
		RuleMultiReport:        10,
		RuleCommunityConfirmed: 20,
		RuleHighRiskLevel:      30,
	}, got.RuleWeights)
}

func TestExplain_NoRules(t *testing.T) {
	t.Parallel()

	entry := domain.CacheEntry{RiskLevel: domain.RiskLevelSafe}

	got := Explain(entry, nil)

	assert.Equal(t, 20, got.RiskScore)
	require.NotNil(t, got.TriggeredRules)
	assert.Empty(t, got.TriggeredRules)
	assert.Empty(t, got.RuleWeights)
}

func TestExplain_RulesAreIndependent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entry    domain.CacheEntry
		approved int
		want     []string
	}{
		{
			name:     "approved only",
			entry:    domain.CacheEntry{ReportCount: 1, RiskLevel: domain.RiskLevelMedium},
			approved: 1,
			want:     []string{RuleCommunityConfirmed},
		},
		{
			name:  "stale high level without approvals",
			entry: domain.CacheEntry{ReportCount: 2, RiskLevel: domain.RiskLevelHigh},
			want:  []string{RuleHighRiskLevel},
		},
		{
			name:  "many reports pending moderation",
			entry: domain.CacheEntry{ReportCount: 3, RiskLevel: domain.RiskLevelHigh},
			want:  []string{RuleMultiReport, RuleHighRiskLevel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Explain(tt.entry, approvedReports(tt.approved))
			assert.Equal(t, tt.want, got.TriggeredRules)
			assert.Len(t, got.RuleWeights, len(tt.want))
		})
	}
}

func TestScoreForLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 85, ScoreForLevel(domain.RiskLevelHigh))
	assert.Equal(t, 55, ScoreForLevel(domain.RiskLevelMedium))
	assert.Equal(t, 20, ScoreForLevel(domain.RiskLevelSafe))
	assert.Equal(t, 20, ScoreForLevel(domain.RiskLevelUnknown))
}
