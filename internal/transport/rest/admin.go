package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/checkscam/checkscam-backend/internal/domain"
	"github.com/checkscam/checkscam-backend/internal/service/adminlookup"
	"github.com/checkscam/checkscam-backend/pkg/ctxutil"
)

type adminReporter interface {
	Lookup(ctx context.Context, caller domain.Caller, typeName, rawValue string) (adminlookup.Report, error)
}

type cacheAdmin interface {
	Invalidate(ctx context.Context, caller domain.Caller, et domain.EntityType, raw string) (bool, error)
	Stats(ctx context.Context) (domain.CacheStats, error)
}

// AdminHandler serves the admin lookup endpoints. Routing guarantees an
// authenticated admin before any method runs.
type AdminHandler struct {
	reports adminReporter
	cache   cacheAdmin
	log     *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(reports adminReporter, cache cacheAdmin, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		reports: reports,
		cache:   cache,
		log:     logger.With("handler", "admin"),
	}
}

// AdminLookupResponse is the JSON form of adminlookup.Report.
type AdminLookupResponse struct {
	EntityType      string          `json:"entityType"`
	EntityValue     string          `json:"entityValue"`
	NormalizedValue string          `json:"normalizedValue"`
	RiskScore       int             `json:"riskScore"`
	RiskLevel       string          `json:"riskLevel"`
	Confidence      float64         `json:"confidence"`
	ReportCount     int             `json:"reportCount"`
	ApprovedReports int             `json:"approvedReports"`
	PendingReports  int             `json:"pendingReports"`
	RejectedReports int             `json:"rejectedReports"`
	FirstReportedAt *time.Time      `json:"firstReportedAt"`
	LastReportedAt  *time.Time      `json:"lastReportedAt"`
	RiskSignals     []string        `json:"riskSignals"`
	SignalWeights   map[string]int  `json:"signalWeights"`
	SourceSummary   map[string]bool `json:"sourceSummary"`
	AdminHints      []string        `json:"adminHints"`
	LastUpdated     *time.Time      `json:"lastUpdated"`
}

type invalidateResponse struct {
	Invalidated bool `json:"invalidated"`
}

type statsResponse struct {
	TotalLookupTargets int `json:"totalLookupTargets"`
	RiskyTargets       int `json:"riskyTargets"`
}

// NewAdminLookupResponse converts a report into its JSON form, replacing nil
// collections with empty ones.
func NewAdminLookupResponse(r adminlookup.Report) AdminLookupResponse {
	resp := AdminLookupResponse{
		EntityType:      r.EntityType,
		EntityValue:     r.EntityValue,
		NormalizedValue: r.NormalizedValue,
		RiskScore:       r.RiskScore,
		RiskLevel:       string(r.RiskLevel),
		Confidence:      r.Confidence,
		ReportCount:     r.ReportCount,
		ApprovedReports: r.ApprovedReports,
		PendingReports:  r.PendingReports,
		RejectedReports: r.RejectedReports,
		FirstReportedAt: r.FirstReportedAt,
		LastReportedAt:  r.LastReportedAt,
		RiskSignals:     r.RiskSignals,
		SignalWeights:   r.SignalWeights,
		SourceSummary:   r.SourceSummary,
		AdminHints:      r.AdminHints,
		LastUpdated:     r.LastUpdated,
	}
	if resp.RiskSignals == nil {
		resp.RiskSignals = []string{}
	}
	if resp.SignalWeights == nil {
		resp.SignalWeights = map[string]int{}
	}
	if resp.AdminHints == nil {
		resp.AdminHints = []string{}
	}
	return resp
}

// Lookup handles GET /api/admin/lookup?type=&value=.
// A key with no cached verdict answers 200 with the UNKNOWN report.
func (h *AdminHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.reports.Lookup(r.Context(), callerFromCtx(r.Context()), q.Get("type"), q.Get("value"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewAdminLookupResponse(report))
}

// Invalidate handles DELETE /api/admin/lookup?type=&value=.
func (h *AdminHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	et, err := domain.ParseEntityType(q.Get("type"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	removed, err := h.cache.Invalidate(r.Context(), callerFromCtx(r.Context()), et, q.Get("value"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: removed})
}

// Stats handles GET /api/admin/lookup/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalLookupTargets: stats.TotalTargets,
		RiskyTargets:       stats.RiskyTargets,
	})
}

func callerFromCtx(ctx context.Context) domain.Caller {
	userID, _ := ctxutil.UserIDFromCtx(ctx)
	return domain.Caller{UserID: userID, Role: domain.Role(ctxutil.RoleFromCtx(ctx))}
}
