package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// UniqueDigits returns n pseudo-random digits so tests sharing the container
// never collide on (entity_type, value).
func UniqueDigits(n int) string {
	out := make([]byte, 0, n)
	for len(out) < n {
		id := uuid.New()
		for _, b := range id {
			if len(out) == n {
				break
			}
			out = append(out, '0'+b%10)
		}
	}
	// A leading zero keeps the value looking like a local phone number.
	out[0] = '0'
	return string(out)
}

// UniquePhone returns a valid, unused PHONE value.
func UniquePhone() string { return UniqueDigits(10) }

// UniqueBank returns a valid, unused BANK value.
func UniqueBank() string { return UniqueDigits(14) }

// UniqueURL returns a valid, unused URL value.
func UniqueURL() string { return "https://" + uuid.New().String()[:8] + ".scam.example" }

// SeedReport inserts one report and returns it with its generated ID.
func SeedReport(t *testing.T, pool *pgxpool.Pool, et domain.EntityType, value string, status domain.ReportStatus, createdAt time.Time) domain.ReportRecord {
	t.Helper()

	rec := domain.ReportRecord{
		EntityType: et,
		Value:      value,
		Status:     status,
		CreatedAt:  createdAt.UTC().Truncate(time.Microsecond),
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO reports (entity_type, info_value, status, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		string(et), value, string(status), rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedReport: %v", err)
	}

	return rec
}

// SeedReports inserts one report per status, spaced one hour apart starting
// at base, and returns them in insertion order.
func SeedReports(t *testing.T, pool *pgxpool.Pool, et domain.EntityType, value string, base time.Time, statuses ...domain.ReportStatus) []domain.ReportRecord {
	t.Helper()

	out := make([]domain.ReportRecord, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, SeedReport(t, pool, et, value, s, base.Add(time.Duration(i)*time.Hour)))
	}
	return out
}

// SeedCacheEntry writes a lookup_cache row directly, bypassing the store.
// Used to stage stale verdicts.
func SeedCacheEntry(t *testing.T, pool *pgxpool.Pool, entry domain.CacheEntry) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO lookup_cache (entity_type, value, report_count, risk_level_id, updated_at)
		 SELECT $1, $2, $3, id, $5 FROM risk_levels WHERE name = $4`,
		string(entry.EntityType), entry.Value, entry.ReportCount, string(entry.RiskLevel), entry.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCacheEntry: %v", err)
	}
}
