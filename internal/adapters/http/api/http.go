// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/myskills/skillhub/internal/domain/bounty"
	"github.com/myskills/skillhub/internal/domain/distributor"
	"github.com/myskills/skillhub/internal/domain/leaderboard"
	"github.com/myskills/skillhub/internal/domain/metadata"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/internal/domain/registry"
	"github.com/myskills/skillhub/internal/domain/usage"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SkillDependencies
	UsageDependencies
	DistributionDependencies
	LeaderboardDependencies
	BountyDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	skillsHandler        *SkillsHandler
	usageHandler         *UsageHandler
	distributionsHandler *DistributionsHandler
	leaderboardHandler   *LeaderboardHandler
	bountiesHandler      *BountiesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		skillsHandler:        NewSkillsHandler(deps),
		usageHandler:         NewUsageHandler(deps),
		distributionsHandler: NewDistributionsHandler(deps),
		leaderboardHandler:   NewLeaderboardHandler(deps, maxLeaderboardLimit),
		bountiesHandler:      NewBountiesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/skills", MetricsMiddleware(s.skillsHandler.HandleSkills, "skills"))
	mux.HandleFunc("/skills/", MetricsMiddleware(s.skillsHandler.HandleSkill, "skill"))
	mux.HandleFunc("/usage", MetricsMiddleware(s.usageHandler.HandlePostUsage, "usage"))
	mux.HandleFunc("/distributions", MetricsMiddleware(s.distributionsHandler.HandleDistributions, "distributions"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/bounties", MetricsMiddleware(s.bountiesHandler.HandleBounties, "bounties"))
	mux.HandleFunc("/bounties/", MetricsMiddleware(s.bountiesHandler.HandleBounty, "bounty"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain sentinels into HTTP responses so
// handlers do not repeat the mapping.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, metadata.ErrValidation),
		errors.Is(err, usage.ErrInvalidUser),
		errors.Is(err, bounty.ErrValidation),
		errors.Is(err, leaderboard.ErrInvalidLimit),
		errors.Is(err, distributor.ErrInvalidWindow),
		errors.Is(err, distributor.ErrInvalidPool):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, distributor.ErrPoolCapExceeded):
		writeError(w, http.StatusUnprocessableEntity, "pool_cap_exceeded", err)
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, usage.ErrUnknownSkill),
		errors.Is(err, bounty.ErrNotFound),
		errors.Is(err, distributor.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, bounty.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// parseAmount reads a decimal token amount from its request form.
func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, true
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	return amount, true
}

// parseTime accepts RFC3339 timestamps; empty maps to the zero time.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// amountString renders a token amount for response bodies.
func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

// skillResponse mirrors the read shape of a registered skill.
type skillResponse struct {
	SkillID       string    `json:"skill_id"`
	Name          string    `json:"name"`
	Platform      string    `json:"platform"`
	Description   string    `json:"description"`
	RepositoryURL string    `json:"repository_url"`
	CreatorWallet string    `json:"creator_wallet"`
	Keywords      []string  `json:"keywords"`
	Stars         int       `json:"stars"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSkillResponse(d model.SkillDescriptor) skillResponse {
	return skillResponse{
		SkillID:       d.SkillID,
		Name:          d.Name,
		Platform:      d.Platform,
		Description:   d.Description,
		RepositoryURL: d.RepositoryURL,
		CreatorWallet: d.CreatorWallet,
		Keywords:      d.Keywords,
		Stars:         d.Stars,
		CreatedAt:     d.CreatedAt,
	}
}

// distributionResponse renders amounts as decimal strings so callers do
// not lose precision in JSON number parsing.
type distributionResponse struct {
	DistributionID string            `json:"distribution_id"`
	PeriodStart    time.Time         `json:"period_start"`
	PeriodEnd      time.Time         `json:"period_end"`
	PerCreator     map[string]string `json:"per_creator_amount"`
	Total          string            `json:"total"`
	ComputedAt     time.Time         `json:"computed_at"`
}

func toDistributionResponse(record model.DistributionRecord) distributionResponse {
	perCreator := make(map[string]string, len(record.PerCreatorAmount))
	for wallet, amount := range record.PerCreatorAmount {
		perCreator[wallet] = amountString(amount)
	}
	return distributionResponse{
		DistributionID: record.DistributionID,
		PeriodStart:    record.PeriodStart,
		PeriodEnd:      record.PeriodEnd,
		PerCreator:     perCreator,
		Total:          amountString(record.TotalAmount()),
		ComputedAt:     record.ComputedAt,
	}
}

// leaderboardEntryResponse is one ranked row.
type leaderboardEntryResponse struct {
	Rank          int    `json:"rank"`
	SkillID       string `json:"skill_id"`
	CreatorWallet string `json:"creator_wallet"`
	TotalEarnings string `json:"total_earnings"`
	TotalStars    int    `json:"total_stars"`
}

func toLeaderboardResponse(entries []model.LeaderboardEntry) []leaderboardEntryResponse {
	out := make([]leaderboardEntryResponse, 0, len(entries))
	for i, entry := range entries {
		out = append(out, leaderboardEntryResponse{
			Rank:          i + 1,
			SkillID:       entry.SkillID,
			CreatorWallet: entry.CreatorWallet,
			TotalEarnings: amountString(entry.TotalEarnings),
			TotalStars:    entry.TotalStars,
		})
	}
	return out
}

// bountyResponse mirrors the read shape of a bounty.
type bountyResponse struct {
	BountyID       string    `json:"bounty_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Reward         string    `json:"reward"`
	Category       string    `json:"category"`
	CreatorWallet  string    `json:"creator_wallet"`
	AssigneeWallet string    `json:"assignee_wallet,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	Deadline       time.Time `json:"deadline"`
}

func toBountyResponse(record model.BountyRecord) bountyResponse {
	return bountyResponse{
		BountyID:       record.BountyID,
		Title:          record.Title,
		Description:    record.Description,
		Reward:         amountString(record.Reward),
		Category:       record.Category,
		CreatorWallet:  record.CreatorWallet,
		AssigneeWallet: record.AssigneeWallet,
		Status:         string(record.Status),
		CreatedAt:      record.CreatedAt,
		Deadline:       record.Deadline,
	}
}
