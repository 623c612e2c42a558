package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

type lookupService interface {
	LookupPhone(ctx context.Context, value string) (domain.CacheEntry, error)
	LookupBank(ctx context.Context, value string) (domain.CacheEntry, error)
	LookupURL(ctx context.Context, value string) (domain.CacheEntry, error)
	LookupByType(ctx context.Context, typeName, value string) (domain.CacheEntry, error)
}

// LookupHandler serves the public, unauthenticated lookup endpoints.
type LookupHandler struct {
	svc lookupService
	log *slog.Logger
}

// NewLookupHandler creates a LookupHandler.
func NewLookupHandler(svc lookupService, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{svc: svc, log: logger.With("handler", "lookup")}
}

// LookupResponse is the public view of a cached verdict.
type LookupResponse struct {
	Type        string    `json:"type"`
	Value       string    `json:"value"`
	ReportCount int       `json:"reportCount"`
	RiskLevel   string    `json:"riskLevel"`
	Exists      bool      `json:"exists"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type lookupRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NewLookupResponse converts a cache entry into its public JSON form.
func NewLookupResponse(e domain.CacheEntry) LookupResponse {
	return LookupResponse{
		Type:        e.EntityType.String(),
		Value:       e.Value,
		ReportCount: e.ReportCount,
		RiskLevel:   string(e.RiskLevel),
		Exists:      e.Exists(),
		UpdatedAt:   e.UpdatedAt,
	}
}

// Phone handles GET /api/lookup/phone?value=.
func (h *LookupHandler) Phone(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.svc.LookupPhone)
}

// Bank handles GET /api/lookup/bank?value=.
func (h *LookupHandler) Bank(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.svc.LookupBank)
}

// URL handles GET /api/lookup/url?value=.
func (h *LookupHandler) URL(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.svc.LookupURL)
}

// ByType handles POST /api/lookup with a {type, value} body.
func (h *LookupHandler) ByType(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.svc.LookupByType(r.Context(), req.Type, req.Value)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewLookupResponse(entry))
}

func (h *LookupHandler) serve(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (domain.CacheEntry, error)) {
	entry, err := fn(r.Context(), r.URL.Query().Get("value"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewLookupResponse(entry))
}
