package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/myskills/skillhub/internal/domain/metadata"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/internal/domain/registry"
)

// SkillDependencies defines the interface for skill registry operations.
type SkillDependencies interface {
	RegisterSkill(ctx context.Context, raw metadata.Raw) (model.SkillDescriptor, error)
	GetSkill(ctx context.Context, skillID string) (model.SkillDescriptor, error)
	ListSkills(ctx context.Context, f registry.Filter) []model.SkillDescriptor
	RescanSkill(ctx context.Context, skillID string, raw metadata.Raw) (model.SkillDescriptor, error)
	RemoveSkill(ctx context.Context, skillID string) error
}

// SkillsHandler handles skill registry requests.
type SkillsHandler struct {
	deps SkillDependencies
}

// NewSkillsHandler creates a new skills handler.
func NewSkillsHandler(deps SkillDependencies) *SkillsHandler {
	return &SkillsHandler{deps: deps}
}

// HandleSkills handles POST /skills and GET /skills requests.
func (h *SkillsHandler) HandleSkills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleRegister(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandleSkill handles /skills/{skill_id} and /skills/{skill_id}/rescan.
func (h *SkillsHandler) HandleSkill(w http.ResponseWriter, r *http.Request) {
	const op = "api.skill"
	path := strings.TrimPrefix(r.URL.Path, "/skills/")
	skillID, action, _ := strings.Cut(path, "/")
	if skillID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		desc, err := h.deps.GetSkill(r.Context(), skillID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSkillResponse(desc))
	case action == "" && r.Method == http.MethodDelete:
		if err := h.deps.RemoveSkill(r.Context(), skillID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	case action == "rescan" && r.Method == http.MethodPost:
		h.handleRescan(w, r, skillID)
	default:
		http.NotFound(w, r)
	}
}

func (h *SkillsHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_skill"
	var raw metadata.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	desc, err := h.deps.RegisterSkill(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSkillResponse(desc))
}

func (h *SkillsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := registry.Filter{
		Platform: r.URL.Query().Get("platform"),
		Keyword:  r.URL.Query().Get("keyword"),
	}
	skills := h.deps.ListSkills(r.Context(), filter)
	out := make([]skillResponse, 0, len(skills))
	for _, desc := range skills {
		out = append(out, toSkillResponse(desc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SkillsHandler) handleRescan(w http.ResponseWriter, r *http.Request, skillID string) {
	const op = "api.rescan_skill"
	var raw metadata.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	desc, err := h.deps.RescanSkill(r.Context(), skillID, raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillResponse(desc))
}
