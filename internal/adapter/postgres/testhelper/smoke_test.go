package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	var levels int
	if err := pool.QueryRow(context.Background(), `SELECT count(*) FROM risk_levels`).Scan(&levels); err != nil {
		t.Fatalf("count risk_levels: %v", err)
	}
	if levels != 3 {
		t.Fatalf("expected 3 seeded risk levels, got %d", levels)
	}

	value := UniquePhone()
	rec := SeedReport(t, pool, domain.EntityTypePhone, value, domain.ReportStatusApproved, time.Now())

	var status string
	err := pool.QueryRow(context.Background(),
		`SELECT status FROM reports WHERE id = $1`, rec.ID,
	).Scan(&status)
	if err != nil {
		t.Fatalf("expected report in DB, got error: %v", err)
	}
	if status != string(domain.ReportStatusApproved) {
		t.Fatalf("expected status %q, got %q", domain.ReportStatusApproved, status)
	}
}

func TestUniqueValuesAreValid(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		et    domain.EntityType
		value string
	}{
		{domain.EntityTypePhone, UniquePhone()},
		{domain.EntityTypeBank, UniqueBank()},
		{domain.EntityTypeURL, UniqueURL()},
	} {
		if _, err := tc.et.Normalize(tc.value); err != nil {
			t.Errorf("%s value %q rejected: %v", tc.et, tc.value, err)
		}
	}
}
