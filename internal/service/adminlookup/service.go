// Package adminlookup composes a cached verdict, moderation counts and the
// risk explanation into a single report for administrators.
package adminlookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/checkscam/checkscam-backend/internal/domain"
	"github.com/checkscam/checkscam-backend/internal/service/risk"
)

type cacheReader interface {
	Get(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error)
}

type reportReader interface {
	CountByStatus(ctx context.Context, et domain.EntityType, value string, status domain.ReportStatus) (int, error)
	ListApproved(ctx context.Context, et domain.EntityType, value string) ([]domain.ReportRecord, error)
	Span(ctx context.Context, et domain.EntityType, value string) (domain.ReportSpan, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

// snapshotRunner runs fn so that all report reads it issues observe one
// consistent state of the report store.
type snapshotRunner interface {
	RunReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

type directRunner struct{}

func (directRunner) RunReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service implements the admin lookup.
type Service struct {
	log     *slog.Logger
	cache   cacheReader
	reports reportReader
	audit   auditLogger
	tx      snapshotRunner
}

// NewService creates a new admin lookup service. audit may be nil. tx may be
// nil, in which case report reads run without a shared snapshot.
func NewService(
	logger *slog.Logger,
	cache cacheReader,
	reports reportReader,
	audit auditLogger,
	tx snapshotRunner,
) *Service {
	if tx == nil {
		tx = directRunner{}
	}
	return &Service{
		log:     logger.With("service", "adminlookup"),
		cache:   cache,
		reports: reports,
		audit:   audit,
		tx:      tx,
	}
}

// Lookup builds the admin report for a key. A key with no cached verdict,
// including one of an unrecognised type, yields the empty UNKNOWN report
// rather than an error. Only store failures are returned.
func (s *Service) Lookup(ctx context.Context, caller domain.Caller, typeName, rawValue string) (Report, error) {
	typeName = strings.ToUpper(strings.TrimSpace(typeName))
	value := strings.TrimSpace(rawValue)

	report, err := s.build(ctx, typeName, value)
	if err != nil {
		return Report{}, err
	}

	s.record(ctx, caller, typeName, value, report)
	return report, nil
}

func (s *Service) build(ctx context.Context, typeName, value string) (Report, error) {
	et := domain.EntityType(typeName)
	if !et.IsValid() {
		return emptyReport(typeName, value), nil
	}

	entry, err := s.cache.Get(ctx, et, value)
	if errors.Is(err, domain.ErrNotFound) {
		return emptyReport(typeName, value), nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("get cached verdict: %w", err)
	}

	var (
		approved          []domain.ReportRecord
		pending, rejected int
		span              domain.ReportSpan
	)
	err = s.tx.RunReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if approved, err = s.reports.ListApproved(ctx, et, value); err != nil {
			return fmt.Errorf("list approved reports: %w", err)
		}
		if pending, err = s.reports.CountByStatus(ctx, et, value, domain.ReportStatusPending); err != nil {
			return fmt.Errorf("count pending reports: %w", err)
		}
		if rejected, err = s.reports.CountByStatus(ctx, et, value, domain.ReportStatusRejected); err != nil {
			return fmt.Errorf("count rejected reports: %w", err)
		}
		if span, err = s.reports.Span(ctx, et, value); err != nil {
			return fmt.Errorf("report span: %w", err)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	total := len(approved) + pending + rejected
	explained := risk.Explain(entry, approved)
	updated := entry.UpdatedAt

	return Report{
		EntityType:      typeName,
		EntityValue:     value,
		NormalizedValue: value,
		RiskScore:       explained.RiskScore,
		RiskLevel:       explained.RiskLevel,
		Confidence:      Confidence(len(approved), pending),
		ReportCount:     total,
		ApprovedReports: len(approved),
		PendingReports:  pending,
		RejectedReports: rejected,
		FirstReportedAt: span.First,
		LastReportedAt:  span.Last,
		RiskSignals:     explained.TriggeredRules,
		SignalWeights:   explained.RuleWeights,
		SourceSummary:   sourceSummary(total > 0),
		AdminHints:      hints(len(approved), pending, explained.RiskScore),
		LastUpdated:     &updated,
	}, nil
}

// record writes the audit entry. A failed write is logged and otherwise
// ignored so that auditing never blocks an admin read.
func (s *Service) record(ctx context.Context, caller domain.Caller, typeName, value string, r Report) {
	if s.audit == nil {
		return
	}

	rec := domain.AuditRecord{
		Action:      domain.AuditActionAdminLookup,
		EntityType:  domain.EntityType(typeName),
		EntityValue: value,
		Details: map[string]any{
			"found":     r.Found(),
			"riskLevel": string(r.RiskLevel),
		},
	}
	if caller.UserID != uuid.Nil {
		id := caller.UserID
		rec.ActorID = &id
	}

	if err := s.audit.Log(ctx, rec); err != nil {
		s.log.WarnContext(ctx, "audit write failed",
			slog.String("action", string(rec.Action)),
			slog.String("error", err.Error()),
		)
	}
}
