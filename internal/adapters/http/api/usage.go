package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/myskills/skillhub/internal/domain/model"
)

// UsageDependencies defines the interface for usage tracking.
type UsageDependencies interface {
	RecordUsage(ctx context.Context, skillID, userID string, ts time.Time) (model.UsageEvent, error)
}

// UsageHandler handles usage event requests.
type UsageHandler struct {
	deps UsageDependencies
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(deps UsageDependencies) *UsageHandler {
	return &UsageHandler{deps: deps}
}

// usageRequest mirrors the body of POST /usage. TS is optional; empty
// means "now".
type usageRequest struct {
	SkillID string `json:"skill_id"`
	UserID  string `json:"user_id"`
	TS      string `json:"ts"`
}

func (u usageRequest) validate() error {
	switch {
	case strings.TrimSpace(u.SkillID) == "":
		return errors.New("missing skill_id")
	case strings.TrimSpace(u.UserID) == "":
		return errors.New("missing user_id")
	}
	if u.TS != "" {
		if _, err := time.Parse(time.RFC3339, u.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

type usageResponse struct {
	EventID string    `json:"event_id"`
	SkillID string    `json:"skill_id"`
	UserID  string    `json:"user_id"`
	TS      time.Time `json:"ts"`
}

// HandlePostUsage handles POST /usage requests.
func (h *UsageHandler) HandlePostUsage(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_usage"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ts, _ := parseTime(req.TS)
	event, err := h.deps.RecordUsage(r.Context(), req.SkillID, req.UserID, ts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, usageResponse{
		EventID: event.EventID,
		SkillID: event.SkillID,
		UserID:  event.UserID,
		TS:      event.Timestamp,
	})
}
