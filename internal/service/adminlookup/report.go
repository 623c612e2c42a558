package adminlookup

import (
	"time"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// Source flags reported in Report.SourceSummary. Only community is fed today.
const (
	SourceCommunity         = "community"
	SourceGovernment        = "government"
	SourceNews              = "news"
	SourceExternalBlacklist = "externalBlacklist"
)

// Admin hints.
const (
	HintNoData          = "no data on file"
	HintPendingReview   = "pending review exists"
	HintHighRisk        = "high risk — needs attention"
	HintMultiApproved   = "multiple approved reports — high confidence"
	highRiskScoreCutoff = 70
)

// Report is the explained verdict shown to administrators.
type Report struct {
	EntityType      string
	EntityValue     string
	NormalizedValue string
	RiskScore       int
	RiskLevel       domain.RiskLevel
	Confidence      float64
	ReportCount     int
	ApprovedReports int
	PendingReports  int
	RejectedReports int
	FirstReportedAt *time.Time
	LastReportedAt  *time.Time
	RiskSignals     []string
	SignalWeights   map[string]int
	SourceSummary   map[string]bool
	AdminHints      []string
	LastUpdated     *time.Time
}

// Found reports whether a cached verdict backed this report.
func (r Report) Found() bool { return r.LastUpdated != nil }

func sourceSummary(community bool) map[string]bool {
	return map[string]bool{
		SourceCommunity:         community,
		SourceGovernment:        false,
		SourceNews:              false,
		SourceExternalBlacklist: false,
	}
}

// emptyReport is returned when no verdict is cached for the key.
func emptyReport(typeName, value string) Report {
	return Report{
		EntityType:      typeName,
		EntityValue:     value,
		NormalizedValue: value,
		RiskLevel:       domain.RiskLevelUnknown,
		RiskSignals:     []string{},
		SignalWeights:   map[string]int{},
		SourceSummary:   sourceSummary(false),
		AdminHints:      []string{HintNoData},
	}
}

// Confidence grades how far moderation backs the verdict. First match wins.
func Confidence(approved, pending int) float64 {
	switch {
	case approved >= 3:
		return 0.85
	case approved == 2:
		return 0.70
	case approved == 1:
		return 0.55
	case pending > 0:
		return 0.40
	default:
		return 0.20
	}
}

func hints(approved, pending, score int) []string {
	out := []string{}
	if approved == 0 && pending > 0 {
		out = append(out, HintPendingReview)
	}
	if score >= highRiskScoreCutoff {
		out = append(out, HintHighRisk)
	}
	if approved >= 3 {
		out = append(out, HintMultiApproved)
	}
	return out
}
