package domain

import (
	"regexp"
	"strings"
)

// EntityType identifies what kind of value is being checked.
type EntityType string

const (
	EntityTypePhone EntityType = "PHONE"
	EntityTypeBank  EntityType = "BANK"
	EntityTypeURL   EntityType = "URL"
)

// EntityTypes lists every supported entity type in display order.
var EntityTypes = []EntityType{EntityTypePhone, EntityTypeBank, EntityTypeURL}

func (t EntityType) String() string { return string(t) }

func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypePhone, EntityTypeBank, EntityTypeURL:
		return true
	}
	return false
}

// ParseEntityType resolves a type name case-insensitively.
func ParseEntityType(name string) (EntityType, error) {
	t := EntityType(strings.ToUpper(strings.TrimSpace(name)))
	if !t.IsValid() {
		return "", NewValidationError("type", "must be one of PHONE, BANK, URL")
	}
	return t, nil
}

var (
	phonePattern = regexp.MustCompile(`^[0-9]{8,12}$`)
	bankPattern  = regexp.MustCompile(`^[0-9]{8,16}$`)
)

// Normalize validates a raw value against the rule for t and returns the
// canonical form used as the cache key. Values are stored exactly as given;
// there is no country-code or URL canonicalization yet.
func (t EntityType) Normalize(raw string) (string, error) {
	switch t {
	case EntityTypePhone:
		if !phonePattern.MatchString(raw) {
			return "", NewValidationError("value", "phone must be 8-12 digits")
		}
	case EntityTypeBank:
		if !bankPattern.MatchString(raw) {
			return "", NewValidationError("value", "bank account must be 8-16 digits")
		}
	case EntityTypeURL:
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return "", NewValidationError("value", "url must start with http:// or https://")
		}
	default:
		return "", NewValidationError("type", "must be one of PHONE, BANK, URL")
	}
	return raw, nil
}

// RiskLevel is the severity bucket of a verdict. SAFE < MEDIUM < HIGH.
type RiskLevel string

const (
	RiskLevelSafe   RiskLevel = "SAFE"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"

	// RiskLevelUnknown marks the absence of a cache entry. Never stored.
	RiskLevelUnknown RiskLevel = "UNKNOWN"
)

func (l RiskLevel) String() string { return string(l) }

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelSafe, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// Rank orders stored levels; UNKNOWN and invalid values rank lowest.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelSafe:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	}
	return 0
}

// ReportStatus is the moderation state of a community report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "PENDING"
	ReportStatusApproved ReportStatus = "APPROVED"
	ReportStatusRejected ReportStatus = "REJECTED"
)

func (s ReportStatus) String() string { return string(s) }

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusApproved, ReportStatusRejected:
		return true
	}
	return false
}

// AuditAction identifies what an audit record describes.
type AuditAction string

const (
	AuditActionAdminLookup AuditAction = "ADMIN_LOOKUP"
	AuditActionInvalidate  AuditAction = "INVALIDATE_LOOKUP"
)

func (a AuditAction) String() string { return string(a) }

// Role is the caller's authorization role as carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
