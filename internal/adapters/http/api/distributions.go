package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/myskills/skillhub/internal/domain/model"
)

// DistributionDependencies defines the interface for reward runs.
type DistributionDependencies interface {
	Distribute(ctx context.Context, start, end time.Time, pool *big.Int) (model.DistributionRecord, error)
	Distributions(ctx context.Context) []model.DistributionRecord
}

// DistributionsHandler handles reward distribution requests.
type DistributionsHandler struct {
	deps DistributionDependencies
}

// NewDistributionsHandler creates a new distributions handler.
func NewDistributionsHandler(deps DistributionDependencies) *DistributionsHandler {
	return &DistributionsHandler{deps: deps}
}

// distributionRequest mirrors the body of POST /distributions. Pool is
// a decimal string; empty falls back to the configured default.
type distributionRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Pool        string `json:"pool"`
}

// HandleDistributions handles POST /distributions and GET /distributions.
func (h *DistributionsHandler) HandleDistributions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleRun(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *DistributionsHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.run_distribution"
	var req distributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	start, err := time.Parse(time.RFC3339, req.PeriodStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid period_start; must be RFC3339")))
		return
	}
	end, err := time.Parse(time.RFC3339, req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid period_end; must be RFC3339")))
		return
	}
	pool, ok := parseAmount(req.Pool)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid pool; must be a decimal integer")))
		return
	}

	record, err := h.deps.Distribute(r.Context(), start, end, pool)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDistributionResponse(record))
}

func (h *DistributionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records := h.deps.Distributions(r.Context())
	out := make([]distributionResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toDistributionResponse(record))
	}
	writeJSON(w, http.StatusOK, out)
}
