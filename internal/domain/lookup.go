package domain

import (
	"time"

	"github.com/google/uuid"
)

// CacheEntry is the last computed verdict for one (EntityType, Value) key.
// ReportCount is a snapshot taken when the entry was written.
type CacheEntry struct {
	EntityType  EntityType
	Value       string
	ReportCount int
	RiskLevel   RiskLevel
	UpdatedAt   time.Time
}

// Exists reports whether any community report was on file at write time.
func (e CacheEntry) Exists() bool { return e.ReportCount > 0 }

// Key returns the natural key used for in-process coordination.
func (e CacheEntry) Key() string { return CacheKey(e.EntityType, e.Value) }

// CacheKey joins a type and value into a single string key.
func CacheKey(t EntityType, value string) string {
	return string(t) + ":" + value
}

// CacheStats summarises the lookup cache.
type CacheStats struct {
	TotalTargets int
	RiskyTargets int
}

// ReportRecord is a community report as seen by the lookup core. Reports are
// owned by the moderation workflow; the core only reads them.
type ReportRecord struct {
	ID          int64
	EntityType  EntityType
	Value       string
	Status      ReportStatus
	Description *string
	CreatedAt   time.Time
}

// ReportSpan holds the first and last report timestamps for a key.
// Both are nil when no report exists.
type ReportSpan struct {
	First *time.Time
	Last  *time.Time
}

// Caller identifies who is invoking an operation. It is passed explicitly
// from the transport layer rather than read from ambient state.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// AuditRecord logs an administrative action against a lookup key.
type AuditRecord struct {
	ID          uuid.UUID
	ActorID     *uuid.UUID
	Action      AuditAction
	EntityType  EntityType
	EntityValue string
	Details     map[string]any
	CreatedAt   time.Time
}
