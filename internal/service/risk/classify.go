// Package risk holds the verdict policy shared by the lookup path and the
// admin explain path.
package risk

import "github.com/checkscam/checkscam-backend/internal/domain"

// Classify maps a report count to a risk level:
// 0 is SAFE, 1-2 is MEDIUM, 3 and above is HIGH.
// Negative counts are not meaningful and are treated as zero.
func Classify(reportCount int) domain.RiskLevel {
	switch {
	case reportCount <= 0:
		return domain.RiskLevelSafe
	case reportCount <= 2:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelHigh
	}
}
