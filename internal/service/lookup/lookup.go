package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/checkscam/checkscam-backend/internal/domain"
	"github.com/checkscam/checkscam-backend/internal/service/risk"
)

// Lookup returns the verdict for (et, raw). A cached verdict is returned
// as stored, with no check against current report volume. On a miss the
// verdict is computed from every report for the key, whatever its status,
// and persisted.
func (s *Service) Lookup(ctx context.Context, et domain.EntityType, raw string) (domain.CacheEntry, error) {
	value, err := et.Normalize(raw)
	if err != nil {
		return domain.CacheEntry{}, err
	}

	entry, err := s.cache.Get(ctx, et, value)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.CacheEntry{}, fmt.Errorf("get cached verdict: %w", err)
	}

	return s.populate(ctx, et, value)
}

// LookupPhone looks up a phone number.
func (s *Service) LookupPhone(ctx context.Context, value string) (domain.CacheEntry, error) {
	return s.Lookup(ctx, domain.EntityTypePhone, value)
}

// LookupBank looks up a bank account number.
func (s *Service) LookupBank(ctx context.Context, value string) (domain.CacheEntry, error) {
	return s.Lookup(ctx, domain.EntityTypeBank, value)
}

// LookupURL looks up a URL.
func (s *Service) LookupURL(ctx context.Context, value string) (domain.CacheEntry, error) {
	return s.Lookup(ctx, domain.EntityTypeURL, value)
}

// LookupByType dispatches on a case-insensitive type name.
func (s *Service) LookupByType(ctx context.Context, typeName, value string) (domain.CacheEntry, error) {
	et, err := domain.ParseEntityType(typeName)
	if err != nil {
		return domain.CacheEntry{}, err
	}
	return s.Lookup(ctx, et, value)
}

// populate computes and stores a verdict. Concurrent misses for one key in
// this process share a single computation; misses racing across processes
// are resolved by the store, which keeps the first row written.
func (s *Service) populate(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error) {
	key := domain.CacheKey(et, value)

	// The shared computation must not die with whichever caller started it.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.computeAndStore(context.WithoutCancel(ctx), et, value)
	})

	select {
	case <-ctx.Done():
		return domain.CacheEntry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.CacheEntry{}, res.Err
		}
		return res.Val.(domain.CacheEntry), nil
	}
}

func (s *Service) computeAndStore(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error) {
	count, err := s.reports.CountByKey(ctx, et, value)
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("count reports: %w", err)
	}

	entry := domain.CacheEntry{
		EntityType:  et,
		Value:       value,
		ReportCount: count,
		RiskLevel:   risk.Classify(count),
		UpdatedAt:   s.now(),
	}

	stored, created, err := s.cache.Insert(ctx, entry)
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("store verdict: %w", err)
	}

	if created {
		s.log.InfoContext(ctx, "verdict cached",
			slog.String("type", et.String()),
			slog.String("value", value),
			slog.Int("report_count", stored.ReportCount),
			slog.String("risk_level", stored.RiskLevel.String()),
		)
	} else {
		s.log.DebugContext(ctx, "verdict already cached by another writer",
			slog.String("type", et.String()),
			slog.String("value", value),
		)
	}

	return stored, nil
}
