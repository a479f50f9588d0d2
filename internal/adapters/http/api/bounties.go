package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/myskills/skillhub/internal/domain/bounty"
	"github.com/myskills/skillhub/internal/domain/model"
)

// BountyDependencies defines the interface for bounty board operations.
type BountyDependencies interface {
	PostBounty(ctx context.Context, in bounty.Input) (model.BountyRecord, error)
	AssignBounty(ctx context.Context, bountyID, assigneeWallet string) (model.BountyRecord, error)
	CompleteBounty(ctx context.Context, bountyID string) (model.BountyRecord, error)
	CancelBounty(ctx context.Context, bountyID string) (model.BountyRecord, error)
	GetBounty(ctx context.Context, bountyID string) (model.BountyRecord, error)
	ListBounties(ctx context.Context, status model.BountyStatus) ([]model.BountyRecord, error)
}

// BountiesHandler handles bounty board requests.
type BountiesHandler struct {
	deps BountyDependencies
}

// NewBountiesHandler creates a new bounties handler.
func NewBountiesHandler(deps BountyDependencies) *BountiesHandler {
	return &BountiesHandler{deps: deps}
}

// bountyRequest mirrors the body of POST /bounties. Reward is a decimal
// string; Deadline is RFC3339.
type bountyRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Reward        string `json:"reward"`
	Category      string `json:"category"`
	CreatorWallet string `json:"creator_wallet"`
	Deadline      string `json:"deadline"`
}

type assignRequest struct {
	AssigneeWallet string `json:"assignee_wallet"`
}

// HandleBounties handles POST /bounties and GET /bounties?status=S.
func (h *BountiesHandler) HandleBounties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandleBounty handles GET /bounties/{id} and
// POST /bounties/{id}/assign|complete|cancel.
func (h *BountiesHandler) HandleBounty(w http.ResponseWriter, r *http.Request) {
	const op = "api.bounty"
	path := strings.TrimPrefix(r.URL.Path, "/bounties/")
	bountyID, action, _ := strings.Cut(path, "/")
	if bountyID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	if r.Method == http.MethodGet && action == "" {
		record, err := h.deps.GetBounty(r.Context(), bountyID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBountyResponse(record))
		return
	}
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var (
		record model.BountyRecord
		err    error
	)
	switch action {
	case "assign":
		var req assignRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, decodeErr))
			return
		}
		record, err = h.deps.AssignBounty(r.Context(), bountyID, req.AssigneeWallet)
	case "complete":
		record, err = h.deps.CompleteBounty(r.Context(), bountyID)
	case "cancel":
		record, err = h.deps.CancelBounty(r.Context(), bountyID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBountyResponse(record))
}

func (h *BountiesHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_bounty"
	var req bountyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	reward, ok := parseAmount(req.Reward)
	if !ok || reward == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid reward; must be a decimal integer")))
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid deadline; must be RFC3339")))
		return
	}

	record, err := h.deps.PostBounty(r.Context(), bounty.Input{
		Title:         req.Title,
		Description:   req.Description,
		Reward:        reward,
		Category:      req.Category,
		CreatorWallet: req.CreatorWallet,
		Deadline:      deadline,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBountyResponse(record))
}

func (h *BountiesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	status := model.BountyStatus(r.URL.Query().Get("status"))
	records, err := h.deps.ListBounties(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]bountyResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toBountyResponse(record))
	}
	writeJSON(w, http.StatusOK, out)
}
