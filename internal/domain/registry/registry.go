// Package registry owns the set of registered skills.
//
// Registration is idempotent on (repository URL, name): the same source
// always resolves to the same descriptor, and re-registering returns
// the existing record unchanged. The registry persists the whole
// collection through the store on every successful mutation.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/myskills/skillhub/internal/adapters/repository"
	"github.com/myskills/skillhub/internal/domain/metadata"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/pkg/logger"
	"github.com/myskills/skillhub/pkg/metrics"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Platform string
	Keyword  string
}

// Registry is the authoritative owner of skill descriptors.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]model.SkillDescriptor

	store  repository.Store
	logger logger.Logger
}

// New creates a Registry backed by store, loading any previously
// persisted descriptors.
func New(ctx context.Context, store repository.Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		skills: make(map[string]model.SkillDescriptor),
		store:  store,
		logger: logger.Named("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}

	var persisted []model.SkillDescriptor
	if err := store.Load(ctx, repository.CollectionSkills, &persisted); err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	for _, d := range persisted {
		r.skills[d.SkillID] = d
	}
	metrics.UpdateTrackedSkills(len(r.skills))
	return r, nil
}

// Register validates and normalizes raw metadata, derives the stable
// skill ID and creates a descriptor. If the ID is already registered
// the existing descriptor is returned unchanged.
func (r *Registry) Register(ctx context.Context, raw metadata.Raw) (model.SkillDescriptor, error) {
	desc, err := metadata.Normalize(raw)
	if err != nil {
		return model.SkillDescriptor{}, err
	}
	skillID := metadata.SkillID(desc.RepositoryURL, desc.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.skills[skillID]; ok {
		metrics.RecordSkillDuplicate()
		r.logger.Debug(ctx, "skill already registered",
			logger.String("skillID", skillID),
			logger.String("name", existing.Name),
		)
		return existing, nil
	}

	record := model.SkillDescriptor{
		SkillID:       skillID,
		Name:          desc.Name,
		Platform:      desc.Platform,
		Description:   desc.Description,
		RepositoryURL: desc.RepositoryURL,
		CreatorWallet: desc.CreatorWallet,
		Keywords:      desc.Keywords,
		Stars:         desc.Stars,
		CreatedAt:     time.Now().UTC(),
	}
	r.skills[skillID] = record
	if err := r.persistLocked(ctx); err != nil {
		delete(r.skills, skillID)
		return model.SkillDescriptor{}, err
	}

	metrics.RecordSkillRegistered()
	metrics.UpdateTrackedSkills(len(r.skills))
	r.logger.Info(ctx, "skill registered",
		logger.String("skillID", skillID),
		logger.String("name", record.Name),
		logger.String("creator", record.CreatorWallet),
	)
	return record, nil
}

// Get returns the descriptor for skillID.
func (r *Registry) Get(ctx context.Context, skillID string) (model.SkillDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.skills[skillID]
	if !ok {
		return model.SkillDescriptor{}, fmt.Errorf("%w: %s", ErrNotFound, skillID)
	}
	return d, nil
}

// List returns descriptors matching the filter, newest first. Ties on
// creation time are broken by skill ID for a deterministic order.
func (r *Registry) List(ctx context.Context, f Filter) []model.SkillDescriptor {
	r.mu.RLock()
	out := make([]model.SkillDescriptor, 0, len(r.skills))
	for _, d := range r.skills {
		if f.Platform != "" && d.Platform != f.Platform {
			continue
		}
		if f.Keyword != "" && !hasKeyword(d.Keywords, f.Keyword) {
			continue
		}
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SkillID < out[j].SkillID
	})
	return out
}

// Rescan refreshes the mutable fields of a descriptor (keywords and
// stars) from fresh metadata. Everything else stays untouched.
func (r *Registry) Rescan(ctx context.Context, skillID string, raw metadata.Raw) (model.SkillDescriptor, error) {
	desc, err := metadata.Normalize(raw)
	if err != nil {
		return model.SkillDescriptor{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.skills[skillID]
	if !ok {
		return model.SkillDescriptor{}, fmt.Errorf("%w: %s", ErrNotFound, skillID)
	}
	previous := existing
	existing.Keywords = desc.Keywords
	existing.Stars = desc.Stars
	r.skills[skillID] = existing
	if err := r.persistLocked(ctx); err != nil {
		r.skills[skillID] = previous
		return model.SkillDescriptor{}, err
	}
	r.logger.Info(ctx, "skill rescanned",
		logger.String("skillID", skillID),
		logger.Int("stars", existing.Stars),
	)
	return existing, nil
}

// Remove deletes a descriptor. Usage recorded for a removed skill is
// discarded with a warning at distribution time rather than failing
// the run.
func (r *Registry) Remove(ctx context.Context, skillID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.skills[skillID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, skillID)
	}
	delete(r.skills, skillID)
	if err := r.persistLocked(ctx); err != nil {
		r.skills[skillID] = existing
		return err
	}
	metrics.UpdateTrackedSkills(len(r.skills))
	r.logger.Info(ctx, "skill removed", logger.String("skillID", skillID))
	return nil
}

// Count returns the number of registered skills.
func (r *Registry) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// persistLocked saves the whole collection. Caller holds the write lock.
func (r *Registry) persistLocked(ctx context.Context) error {
	out := make([]model.SkillDescriptor, 0, len(r.skills))
	for _, d := range r.skills {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	if err := r.store.Save(ctx, repository.CollectionSkills, out); err != nil {
		r.logger.Error(ctx, "persisting skills failed", logger.Error(err))
		return err
	}
	return nil
}

func hasKeyword(keywords []string, keyword string) bool {
	for _, kw := range keywords {
		if kw == keyword {
			return true
		}
	}
	return false
}
