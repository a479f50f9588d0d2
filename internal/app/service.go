// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the MCP tool surface.
package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/myskills/skillhub/internal/adapters/repository"
	"github.com/myskills/skillhub/internal/adapters/sink"
	"github.com/myskills/skillhub/internal/domain/bounty"
	"github.com/myskills/skillhub/internal/domain/distributor"
	"github.com/myskills/skillhub/internal/domain/leaderboard"
	"github.com/myskills/skillhub/internal/domain/metadata"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/internal/domain/registry"
	"github.com/myskills/skillhub/internal/domain/usage"
	"github.com/myskills/skillhub/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataDir sets the persistence root directory.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithPoolCap bounds the reward pool accepted per distribution window.
func WithPoolCap(limit *big.Int) Option {
	return func(s *Service) {
		if limit != nil {
			s.poolCap = new(big.Int).Set(limit)
		}
	}
}

// WithDefaultPool sets the pool used when a distribution request does
// not carry an explicit amount, and by the schedule.
func WithDefaultPool(pool *big.Int) Option {
	return func(s *Service) {
		if pool != nil && pool.Sign() >= 0 {
			s.defaultPool = new(big.Int).Set(pool)
		}
	}
}

// WithScheduleInterval enables periodic distribution runs. A zero
// interval disables the schedule.
func WithScheduleInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.scheduleInterval = interval
	}
}

// WithSink sets the ledger sink receiving finished records.
func WithSink(ledger sink.Sink) Option {
	return func(s *Service) {
		if ledger != nil {
			s.ledger = ledger
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// Service wires the registry, tracker, distributor, leaderboard and
// bounty board over one shared file store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.FileStore
	skills    *registry.Registry
	tracker   *usage.Tracker
	dist      *distributor.Distributor
	scheduler *distributor.Scheduler
	board     *leaderboard.View
	bounties  *bounty.Board

	// Configuration
	dataDir          string
	poolCap          *big.Int
	defaultPool      *big.Int
	scheduleInterval time.Duration
	ledger           sink.Sink

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:     "data",
		defaultPool: big.NewInt(1_000_000),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes all components and loads persisted state.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.ledger == nil {
		s.ledger = sink.NewLogSink()
	}

	s.logger.Info(ctx, "starting skillhub service...",
		logger.String("dataDir", s.dataDir),
	)

	store, err := repository.NewFileStore(s.dataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	s.store = store

	if s.skills, err = registry.New(ctx, store); err != nil {
		return err
	}
	if s.tracker, err = usage.New(ctx, store, s.skills); err != nil {
		return err
	}
	distOpts := []distributor.Option{distributor.WithSink(s.ledger)}
	if s.poolCap != nil {
		distOpts = append(distOpts, distributor.WithPoolCap(s.poolCap))
	}
	if s.dist, err = distributor.New(ctx, store, s.tracker, s.skills, distOpts...); err != nil {
		return err
	}
	s.board = leaderboard.New(s.skills, s.dist)
	if s.bounties, err = bounty.New(ctx, store); err != nil {
		return err
	}

	s.tracker.Start(ctx)

	if s.scheduleInterval > 0 {
		s.scheduler, err = distributor.NewScheduler(s.dist, s.scheduleInterval, s.defaultPool)
		if err != nil {
			return err
		}
		if err := s.scheduler.Start(ctx); err != nil {
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "skillhub service started",
		logger.Int("skills", s.skills.Count(ctx)),
		logger.Int("usageEvents", s.tracker.Count(ctx)),
		logger.Duration("scheduleInterval", s.scheduleInterval),
	)
	return nil
}

// Stop gracefully shuts the service down, flushing pending state.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil {
			s.logger.Error(ctx, "scheduler shutdown failed", logger.Error(err))
		}
	}
	s.tracker.Stop(ctx)
	s.started = false
	s.logger.Info(ctx, "skillhub service stopped")
}

// RegisterSkill registers (or idempotently resolves) a skill from raw
// provider metadata.
func (s *Service) RegisterSkill(ctx context.Context, raw metadata.Raw) (model.SkillDescriptor, error) {
	return s.skills.Register(ctx, raw)
}

// GetSkill returns one skill descriptor.
func (s *Service) GetSkill(ctx context.Context, skillID string) (model.SkillDescriptor, error) {
	return s.skills.Get(ctx, skillID)
}

// ListSkills returns descriptors matching the filter, newest first.
func (s *Service) ListSkills(ctx context.Context, f registry.Filter) []model.SkillDescriptor {
	return s.skills.List(ctx, f)
}

// RescanSkill refreshes a descriptor's keywords and stars.
func (s *Service) RescanSkill(ctx context.Context, skillID string, raw metadata.Raw) (model.SkillDescriptor, error) {
	return s.skills.Rescan(ctx, skillID, raw)
}

// RemoveSkill deletes a descriptor from the registry.
func (s *Service) RemoveSkill(ctx context.Context, skillID string) error {
	return s.skills.Remove(ctx, skillID)
}

// RecordUsage appends one usage event.
func (s *Service) RecordUsage(ctx context.Context, skillID, userID string, ts time.Time) (model.UsageEvent, error) {
	return s.tracker.Record(ctx, skillID, userID, ts)
}

// Distribute runs (or replays) the distribution for one window. A nil
// pool falls back to the configured default.
func (s *Service) Distribute(ctx context.Context, start, end time.Time, pool *big.Int) (model.DistributionRecord, error) {
	if pool == nil {
		pool = s.defaultPool
	}
	return s.dist.Distribute(ctx, start, end, pool)
}

// Distributions returns all records ordered by period start.
func (s *Service) Distributions(ctx context.Context) []model.DistributionRecord {
	return s.dist.Records(ctx)
}

// Leaderboard returns the top limit entries by creator earnings.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return s.board.Rank(ctx, limit)
}

// LeaderboardSince ranks counting only periods ended after since.
func (s *Service) LeaderboardSince(ctx context.Context, limit int, since time.Time) ([]model.LeaderboardEntry, error) {
	return s.board.RankSince(ctx, limit, since)
}

// PostBounty creates a new open bounty.
func (s *Service) PostBounty(ctx context.Context, in bounty.Input) (model.BountyRecord, error) {
	return s.bounties.Post(ctx, in)
}

// AssignBounty assigns an open bounty.
func (s *Service) AssignBounty(ctx context.Context, bountyID, assigneeWallet string) (model.BountyRecord, error) {
	return s.bounties.Assign(ctx, bountyID, assigneeWallet)
}

// CompleteBounty completes an assigned bounty.
func (s *Service) CompleteBounty(ctx context.Context, bountyID string) (model.BountyRecord, error) {
	return s.bounties.Complete(ctx, bountyID)
}

// GetBounty returns a single bounty by ID.
func (s *Service) GetBounty(ctx context.Context, bountyID string) (model.BountyRecord, error) {
	return s.bounties.Get(ctx, bountyID)
}

// CancelBounty cancels an open or assigned bounty.
func (s *Service) CancelBounty(ctx context.Context, bountyID string) (model.BountyRecord, error) {
	return s.bounties.Cancel(ctx, bountyID)
}

// ListBounties returns bounties, optionally filtered by status.
func (s *Service) ListBounties(ctx context.Context, status model.BountyStatus) ([]model.BountyRecord, error) {
	return s.bounties.List(ctx, status)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
		"dataDir": s.dataDir,
	}
	if s.started {
		stats["skills"] = s.skills.Count(ctx)
		stats["usageEvents"] = s.tracker.Count(ctx)
		stats["distributions"] = len(s.dist.Records(ctx))
	}
	return stats
}
