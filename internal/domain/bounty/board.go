// Package bounty keeps the independent ledger of posted bounties.
//
// A bounty's reward is fixed at creation. The lifecycle is
// open -> assigned -> completed, with cancellation allowed from open
// or assigned. The assignee is set exactly once, on assignment.
package bounty

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myskills/skillhub/internal/adapters/repository"
	"github.com/myskills/skillhub/internal/domain/metadata"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/pkg/logger"
	"github.com/myskills/skillhub/pkg/metrics"
)

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Board) {
		if log != nil {
			b.logger = log
		}
	}
}

// Input carries the caller-supplied fields for posting a bounty.
type Input struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Reward        *big.Int  `json:"reward"`
	Category      string    `json:"category"`
	CreatorWallet string    `json:"creator_wallet"`
	Deadline      time.Time `json:"deadline"`
}

// Board owns the bounty ledger.
type Board struct {
	mu       sync.RWMutex
	bounties map[string]model.BountyRecord

	store  repository.Store
	logger logger.Logger
}

// New creates a Board backed by store, loading any persisted bounties.
func New(ctx context.Context, store repository.Store, opts ...Option) (*Board, error) {
	b := &Board{
		bounties: make(map[string]model.BountyRecord),
		store:    store,
		logger:   logger.Named("bounty"),
	}
	for _, opt := range opts {
		opt(b)
	}

	var persisted []model.BountyRecord
	if err := store.Load(ctx, repository.CollectionBounties, &persisted); err != nil {
		return nil, fmt.Errorf("load bounties: %w", err)
	}
	for _, record := range persisted {
		b.bounties[record.BountyID] = record
	}
	return b, nil
}

// Post creates a new open bounty.
func (b *Board) Post(ctx context.Context, in Input) (model.BountyRecord, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.BountyRecord{}, fmt.Errorf("%w: missing title", ErrValidation)
	}
	if in.Reward == nil || in.Reward.Sign() <= 0 {
		return model.BountyRecord{}, fmt.Errorf("%w: reward must be positive", ErrValidation)
	}
	if !in.Deadline.After(time.Now()) {
		return model.BountyRecord{}, fmt.Errorf("%w: deadline is in the past", ErrValidation)
	}
	if !metadata.ValidWallet(in.CreatorWallet) {
		return model.BountyRecord{}, fmt.Errorf("%w: creator wallet %q", ErrValidation, in.CreatorWallet)
	}

	record := model.BountyRecord{
		BountyID:      uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Reward:        new(big.Int).Set(in.Reward),
		Category:      strings.TrimSpace(in.Category),
		CreatorWallet: strings.ToLower(in.CreatorWallet),
		Status:        model.BountyOpen,
		CreatedAt:     time.Now().UTC(),
		Deadline:      in.Deadline.UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.bounties[record.BountyID] = record
	if err := b.persistLocked(ctx); err != nil {
		delete(b.bounties, record.BountyID)
		return model.BountyRecord{}, err
	}

	metrics.RecordBountyTransition(string(model.BountyOpen))
	b.logger.Info(ctx, "bounty posted",
		logger.String("bountyID", record.BountyID),
		logger.String("title", record.Title),
		logger.BigInt("reward", record.Reward),
	)
	return record, nil
}

// Assign moves an open bounty to assigned and pins the assignee.
func (b *Board) Assign(ctx context.Context, bountyID, assigneeWallet string) (model.BountyRecord, error) {
	if !metadata.ValidWallet(assigneeWallet) {
		return model.BountyRecord{}, fmt.Errorf("%w: assignee wallet %q", ErrValidation, assigneeWallet)
	}
	return b.transition(ctx, bountyID, model.BountyAssigned, []model.BountyStatus{model.BountyOpen}, func(record *model.BountyRecord) {
		record.AssigneeWallet = strings.ToLower(assigneeWallet)
	})
}

// Complete moves an assigned bounty to completed.
func (b *Board) Complete(ctx context.Context, bountyID string) (model.BountyRecord, error) {
	return b.transition(ctx, bountyID, model.BountyCompleted, []model.BountyStatus{model.BountyAssigned}, nil)
}

// Cancel moves an open or assigned bounty to cancelled.
func (b *Board) Cancel(ctx context.Context, bountyID string) (model.BountyRecord, error) {
	return b.transition(ctx, bountyID, model.BountyCancelled, []model.BountyStatus{model.BountyOpen, model.BountyAssigned}, nil)
}

// Get returns one bounty.
func (b *Board) Get(ctx context.Context, bountyID string) (model.BountyRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	record, ok := b.bounties[bountyID]
	if !ok {
		return model.BountyRecord{}, fmt.Errorf("%w: %s", ErrNotFound, bountyID)
	}
	return record, nil
}

// List returns bounties, optionally filtered by status, newest first.
func (b *Board) List(ctx context.Context, status model.BountyStatus) ([]model.BountyRecord, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	b.mu.RLock()
	out := make([]model.BountyRecord, 0, len(b.bounties))
	for _, record := range b.bounties {
		if status != "" && record.Status != status {
			continue
		}
		out = append(out, record)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].BountyID < out[j].BountyID
	})
	return out, nil
}

// transition applies one state change if the current status is in from.
func (b *Board) transition(ctx context.Context, bountyID string, to model.BountyStatus, from []model.BountyStatus, mutate func(*model.BountyRecord)) (model.BountyRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.bounties[bountyID]
	if !ok {
		return model.BountyRecord{}, fmt.Errorf("%w: %s", ErrNotFound, bountyID)
	}

	allowed := false
	for _, status := range from {
		if record.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.BountyRecord{}, fmt.Errorf("%w: %s is %s, requested %s", ErrInvalidState, bountyID, record.Status, to)
	}

	previous := record
	record.Status = to
	if mutate != nil {
		mutate(&record)
	}
	b.bounties[bountyID] = record
	if err := b.persistLocked(ctx); err != nil {
		b.bounties[bountyID] = previous
		return model.BountyRecord{}, err
	}

	metrics.RecordBountyTransition(string(to))
	b.logger.Info(ctx, "bounty transitioned",
		logger.String("bountyID", bountyID),
		logger.String("from", string(previous.Status)),
		logger.String("to", string(to)),
	)
	return record, nil
}

// persistLocked saves the ledger. Caller holds the write lock.
func (b *Board) persistLocked(ctx context.Context) error {
	out := make([]model.BountyRecord, 0, len(b.bounties))
	for _, record := range b.bounties {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BountyID < out[j].BountyID })
	if err := b.store.Save(ctx, repository.CollectionBounties, out); err != nil {
		b.logger.Error(ctx, "persisting bounties failed", logger.Error(err))
		return err
	}
	return nil
}
