package http

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/sellpoint/sellpoint/internal/domain"
	"github.com/sellpoint/sellpoint/internal/engine"
	"github.com/sellpoint/sellpoint/internal/snapshot"
)

// Handlers serves the analysis API over an assembled pipeline.
type Handlers struct {
	pipeline  *engine.Pipeline
	snapshots snapshot.Source // nil disables lookups
	version   string
	startTime time.Time
}

// NewHandlers creates the handler set. snapshots may be nil when no
// market data provider is configured.
func NewHandlers(pipeline *engine.Pipeline, snapshots snapshot.Source, version string) *Handlers {
	return &Handlers{
		pipeline:  pipeline,
		snapshots: snapshots,
		version:   version,
		startTime: time.Now(),
	}
}

// AnalyzeRequest is the API input: a finance profile plus either an
// inline market snapshot or a registration to look one up by.
type AnalyzeRequest struct {
	Profile      domain.VehicleFinanceProfile    `json:"profile"`
	Snapshot     *domain.MarketValuationSnapshot `json:"snapshot,omitempty"`
	Registration string                          `json:"registration,omitempty"`
}

// AnalyzeResponse carries the recommendation with its backing series.
type AnalyzeResponse struct {
	Recommendation domain.SellRecommendation  `json:"recommendation"`
	Projection     []domain.MonthlyProjection `json:"projection"`
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": h.version,
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Analyze runs the full pipeline for one vehicle.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	series, rec := h.pipeline.Analyze(req.Profile, h.resolveSnapshot(r, req))
	writeJSON(w, http.StatusOK, AnalyzeResponse{Recommendation: rec, Projection: series})
}

// Projection returns the monthly series without interpretation.
func (h *Handlers) Projection(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	series := h.pipeline.Project(req.Profile, h.resolveSnapshot(r, req))
	writeJSON(w, http.StatusOK, series)
}

func (h *Handlers) decodeRequest(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Profile.PurchasePrice <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "profile.purchase_price must be positive"})
		return req, false
	}
	return req, true
}

// resolveSnapshot prefers an inline snapshot and otherwise consults the
// configured source. Lookup failures degrade to formula-only analysis.
func (h *Handlers) resolveSnapshot(r *http.Request, req AnalyzeRequest) *domain.MarketValuationSnapshot {
	if req.Snapshot != nil || req.Registration == "" || h.snapshots == nil {
		return req.Snapshot
	}
	snap, err := h.snapshots.Fetch(r.Context(), req.Registration, req.Profile.CurrentMileage)
	if err != nil {
		log.Warn().Err(err).Str("registration", req.Registration).Msg("snapshot lookup failed")
		return nil
	}
	return snap
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}
