package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkscam/checkscam-backend/internal/domain"
	"github.com/checkscam/checkscam-backend/internal/service/adminlookup"
	"github.com/checkscam/checkscam-backend/pkg/ctxutil"
)

func adminRequest(method, target string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := ctxutil.WithRole(ctxutil.WithUserID(req.Context(), userID), ctxutil.AdminRole)
	return req.WithContext(ctx)
}

func TestAdminHandler_LookupPassesCaller(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	var got domain.Caller
	reporter := &adminReporterMock{
		LookupFunc: func(_ context.Context, caller domain.Caller, typeName, rawValue string) (adminlookup.Report, error) {
			got = caller
			assert.Equal(t, "phone", typeName)
			assert.Equal(t, "0912345678", rawValue)
			return adminlookup.Report{
				EntityType:      "PHONE",
				EntityValue:     rawValue,
				NormalizedValue: rawValue,
				RiskScore:       85,
				RiskLevel:       domain.RiskLevelHigh,
				Confidence:      0.85,
				ReportCount:     3,
				ApprovedReports: 3,
				RiskSignals:     []string{"MULTI_REPORT"},
				SignalWeights:   map[string]int{"MULTI_REPORT": 10},
				SourceSummary:   map[string]bool{"community": true},
				AdminHints:      []string{"high risk — needs attention"},
				LastUpdated:     &updated,
			}, nil
		},
	}
	h := NewAdminHandler(reporter, &cacheAdminMock{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Lookup(rec, adminRequest(http.MethodGet, "/api/admin/lookup?type=phone&value=0912345678", adminID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, adminID, got.UserID)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	var resp AdminLookupResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 85, resp.RiskScore)
	assert.Equal(t, "HIGH", resp.RiskLevel)
	assert.InDelta(t, 0.85, resp.Confidence, 1e-9)
	assert.Equal(t, []string{"high risk — needs attention"}, resp.AdminHints)
	require.NotNil(t, resp.LastUpdated)
	assert.True(t, updated.Equal(*resp.LastUpdated))
}

func TestAdminHandler_LookupEmptyShape(t *testing.T) {
	t.Parallel()

	reporter := &adminReporterMock{
		LookupFunc: func(context.Context, domain.Caller, string, string) (adminlookup.Report, error) {
			return adminlookup.Report{EntityType: "BANK", EntityValue: "1", RiskLevel: domain.RiskLevelUnknown}, nil
		},
	}
	h := NewAdminHandler(reporter, &cacheAdminMock{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Lookup(rec, adminRequest(http.MethodGet, "/api/admin/lookup?type=bank&value=1", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Equal(t, "UNKNOWN", raw["riskLevel"])
	assert.Nil(t, raw["lastUpdated"])
	assert.Nil(t, raw["firstReportedAt"])
	assert.Equal(t, []any{}, raw["riskSignals"])
	assert.Equal(t, map[string]any{}, raw["signalWeights"])
}

func TestAdminHandler_Invalidate(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()
	cache := &cacheAdminMock{
		InvalidateFunc: func(_ context.Context, caller domain.Caller, et domain.EntityType, raw string) (bool, error) {
			assert.Equal(t, adminID, caller.UserID)
			assert.Equal(t, domain.EntityTypeBank, et)
			assert.Equal(t, "00112233", raw)
			return true, nil
		},
	}
	h := NewAdminHandler(&adminReporterMock{}, cache, discardLogger())

	rec := httptest.NewRecorder()
	h.Invalidate(rec, adminRequest(http.MethodDelete, "/api/admin/lookup?type=Bank&value=00112233", adminID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"invalidated":true}`, rec.Body.String())
}

func TestAdminHandler_InvalidateUnknownType(t *testing.T) {
	t.Parallel()

	cache := &cacheAdminMock{
		InvalidateFunc: func(context.Context, domain.Caller, domain.EntityType, string) (bool, error) {
			t.Error("service must not be called for an unknown type")
			return false, nil
		},
	}
	h := NewAdminHandler(&adminReporterMock{}, cache, discardLogger())

	rec := httptest.NewRecorder()
	h.Invalidate(rec, adminRequest(http.MethodDelete, "/api/admin/lookup?type=EMAIL&value=x", uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandler_Stats(t *testing.T) {
	t.Parallel()

	cache := &cacheAdminMock{
		StatsFunc: func(context.Context) (domain.CacheStats, error) {
			return domain.CacheStats{TotalTargets: 12, RiskyTargets: 5}, nil
		},
	}
	h := NewAdminHandler(&adminReporterMock{}, cache, discardLogger())

	rec := httptest.NewRecorder()
	h.Stats(rec, adminRequest(http.MethodGet, "/api/admin/lookup/stats", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalLookupTargets":12,"riskyTargets":5}`, rec.Body.String())
}

func TestAdminHandler_StatsStoreFailure(t *testing.T) {
	t.Parallel()

	cache := &cacheAdminMock{
		StatsFunc: func(context.Context) (domain.CacheStats, error) {
			return domain.CacheStats{}, errors.New("db down")
		},
	}
	h := NewAdminHandler(&adminReporterMock{}, cache, discardLogger())

	rec := httptest.NewRecorder()
	h.Stats(rec, adminRequest(http.MethodGet, "/api/admin/lookup/stats", uuid.New()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
