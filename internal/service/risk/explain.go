package risk

import "github.com/checkscam/checkscam-backend/internal/domain"

// Rule identifiers reported by Explain.
const (
	RuleMultiReport        = "MULTI_REPORT"
	RuleCommunityConfirmed = "COMMUNITY_CONFIRMED"
	RuleHighRiskLevel      = "HIGH_RISK_LEVEL"
)

// Rule weights. They are advisory metadata and are not added to the score.
const (
	WeightMultiReport        = 10
	WeightCommunityConfirmed = 20
	WeightHighRiskLevel      = 30
)

// Scores per level, for human consumption only.
const (
	ScoreHigh   = 85
	ScoreMedium = 55
	ScoreLow    = 20
)

// multiReportThreshold matches the count at which Classify reports HIGH.
const multiReportThreshold = 3

// ExplainResult justifies a stored verdict. It is computed on demand and
// never persisted.
type ExplainResult struct {
	RiskScore      int
	RiskLevel      domain.RiskLevel
	TriggeredRules []string
	RuleWeights    map[string]int
}

// Explain reconstructs why entry carries its verdict. It reads only its
// arguments and does not reclassify.
func Explain(entry domain.CacheEntry, approved []domain.ReportRecord) ExplainResult {
	res := ExplainResult{
		RiskScore:      ScoreForLevel(entry.RiskLevel),
		RiskLevel:      entry.RiskLevel,
		TriggeredRules: []string{},
		RuleWeights:    map[string]int{},
	}

	if entry.ReportCount >= multiReportThreshold {
		res.fire(RuleMultiReport, WeightMultiReport)
	}
	if len(approved) > 0 {
		res.fire(RuleCommunityConfirmed, WeightCommunityConfirmed)
	}
	if entry.RiskLevel == domain.RiskLevelHigh {
		res.fire(RuleHighRiskLevel, WeightHighRiskLevel)
	}

	return res
}

func (r *ExplainResult) fire(rule string, weight int) {
	r.TriggeredRules = append(r.TriggeredRules, rule)
	r.RuleWeights[rule] = weight
}

// ScoreForLevel converts a risk level into a coarse 0-100 score.
func ScoreForLevel(level domain.RiskLevel) int {
	switch level {
	case domain.RiskLevelHigh:
		return ScoreHigh
	case domain.RiskLevelMedium:
		return ScoreMedium
	default:
		return ScoreLow
	}
}
