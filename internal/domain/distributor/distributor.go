// Package distributor computes creator payouts over closed periods.
//
// Distribution is a batch job: it aggregates the usage events of a
// window [start, end), allocates the reward pool proportionally to
// per-skill usage and emits one DistributionRecord per window. Exactly
// one record may exist per window; recomputing is an idempotent replay
// of the stored record, never a double payment.
package distributor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/myskills/skillhub/internal/adapters/repository"
	"github.com/myskills/skillhub/internal/adapters/sink"
	"github.com/myskills/skillhub/internal/domain/allocation"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/pkg/logger"
	"github.com/myskills/skillhub/pkg/metrics"
)

// EventSource is the read path into the usage log.
type EventSource interface {
	EventsInRange(ctx context.Context, start, end time.Time) iter.Seq[model.UsageEvent]
}

// SkillResolver maps skill IDs to descriptors.
type SkillResolver interface {
	Get(ctx context.Context, skillID string) (model.SkillDescriptor, error)
}

// Option applies a configuration option to the Distributor.
type Option func(*Distributor)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Distributor) {
		if log != nil {
			d.logger = log
		}
	}
}

// WithPoolCap bounds the reward pool accepted per window. A nil cap
// means unbounded.
func WithPoolCap(limit *big.Int) Option {
	return func(d *Distributor) {
		if limit != nil && limit.Sign() >= 0 {
			d.poolCap = new(big.Int).Set(limit)
		}
	}
}

// WithSink sets the ledger sink receiving finished records.
func WithSink(s sink.Sink) Option {
	return func(d *Distributor) {
		if s != nil {
			d.sink = s
		}
	}
}

// Distributor is the only writer of distribution records.
type Distributor struct {
	mu      sync.RWMutex
	records map[string]model.DistributionRecord

	windowMu sync.Mutex
	windows  map[string]*sync.Mutex

	store   repository.Store
	events  EventSource
	skills  SkillResolver
	alloc   *allocation.Allocator
	sink    sink.Sink
	poolCap *big.Int
	logger  logger.Logger
}

// New creates a Distributor backed by store, loading any previously
// persisted records.
func New(ctx context.Context, store repository.Store, events EventSource, skills SkillResolver, opts ...Option) (*Distributor, error) {
	d := &Distributor{
		records: make(map[string]model.DistributionRecord),
		windows: make(map[string]*sync.Mutex),
		store:   store,
		events:  events,
		skills:  skills,
		alloc:   allocation.New(),
		sink:    sink.NewLogSink(),
		logger:  logger.Named("distributor"),
	}
	for _, opt := range opts {
		opt(d)
	}

	var persisted []model.DistributionRecord
	if err := store.Load(ctx, repository.CollectionDistributions, &persisted); err != nil {
		return nil, fmt.Errorf("load distributions: %w", err)
	}
	for _, r := range persisted {
		d.records[r.DistributionID] = r
	}
	return d, nil
}

// WindowID derives the distribution identifier for a window. Equal
// windows always hash to the same ID, which carries the one-record-
// per-window invariant.
func WindowID(start, end time.Time) string {
	sum := sha256.Sum256([]byte(start.UTC().Format(time.RFC3339Nano) + "|" + end.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}

// Distribute computes the payout record for [start, end) with the
// given reward pool. If a record for the exact window already exists
// it is returned as-is without recomputation. Concurrent calls for the
// same window collapse into one execution: the second caller waits on
// the window lock and then returns the stored record.
func (d *Distributor) Distribute(ctx context.Context, start, end time.Time, pool *big.Int) (model.DistributionRecord, error) {
	if !end.After(start) {
		return model.DistributionRecord{}, ErrInvalidWindow
	}
	if pool == nil || pool.Sign() < 0 {
		return model.DistributionRecord{}, ErrInvalidPool
	}
	if d.poolCap != nil && pool.Cmp(d.poolCap) > 0 {
		return model.DistributionRecord{}, fmt.Errorf("%w: pool %s, cap %s", ErrPoolCapExceeded, pool, d.poolCap)
	}

	id := WindowID(start, end)
	if record, ok := d.get(id); ok {
		metrics.RecordDistributionHit()
		return record, nil
	}

	windowLock := d.windowLock(id)
	windowLock.Lock()
	defer windowLock.Unlock()

	// A concurrent call may have finished while we waited on the lock.
	if record, ok := d.get(id); ok {
		metrics.RecordDistributionHit()
		return record, nil
	}

	began := time.Now()
	record, err := d.compute(ctx, id, start, end, pool)
	if err != nil {
		return model.DistributionRecord{}, err
	}
	metrics.RecordDistributionDuration(float64(time.Since(began).Milliseconds()))
	metrics.RecordDistributionRun()

	if err := d.sink.Submit(ctx, record); err != nil {
		// Emission is fire-and-forget; the record stands regardless.
		d.logger.Error(ctx, "ledger sink rejected record",
			logger.String("distributionID", record.DistributionID),
			logger.Error(err),
		)
	}
	return record, nil
}

// compute runs one distribution. Caller holds the window lock.
func (d *Distributor) compute(ctx context.Context, id string, start, end time.Time, pool *big.Int) (model.DistributionRecord, error) {
	// Count usage per skill over the window snapshot.
	counts := make(map[string]int64)
	for event := range d.events.EventsInRange(ctx, start, end) {
		counts[event.SkillID]++
	}

	// Resolve creators; usage for a skill that has since been removed
	// is discarded with a warning, never aborting the run.
	creators := make(map[string]string, len(counts))
	for skillID := range counts {
		descriptor, err := d.skills.Get(ctx, skillID)
		if err != nil {
			d.logger.Warn(ctx, "skipping usage for unresolvable skill",
				logger.String("skillID", skillID),
				logger.Int64("events", counts[skillID]),
				logger.Error(err),
			)
			metrics.RecordSkillSkipped()
			delete(counts, skillID)
			continue
		}
		creators[skillID] = descriptor.CreatorWallet
	}

	perSkill, err := d.alloc.Split(pool, counts)
	if err != nil {
		return model.DistributionRecord{}, err
	}

	// Aggregate per-skill amounts into per-creator totals.
	perCreator := make(map[string]*big.Int)
	for skillID, amount := range perSkill {
		wallet := creators[skillID]
		if existing, ok := perCreator[wallet]; ok {
			existing.Add(existing, amount)
		} else {
			perCreator[wallet] = new(big.Int).Set(amount)
		}
	}

	record := model.DistributionRecord{
		DistributionID:   id,
		PeriodStart:      start.UTC(),
		PeriodEnd:        end.UTC(),
		PerCreatorAmount: perCreator,
		ComputedAt:       time.Now().UTC(),
	}

	d.mu.Lock()
	d.records[id] = record
	err = d.persistLocked(ctx)
	if err != nil {
		delete(d.records, id)
	}
	d.mu.Unlock()
	if err != nil {
		return model.DistributionRecord{}, err
	}

	d.logger.Info(ctx, "distribution computed",
		logger.String("distributionID", id),
		logger.Time("periodStart", record.PeriodStart),
		logger.Time("periodEnd", record.PeriodEnd),
		logger.BigInt("pool", pool),
		logger.Int("creators", len(perCreator)),
	)
	return record, nil
}

// Get returns the record with the given distribution ID.
func (d *Distributor) Get(ctx context.Context, distributionID string) (model.DistributionRecord, error) {
	record, ok := d.get(distributionID)
	if !ok {
		return model.DistributionRecord{}, fmt.Errorf("%w: %s", ErrNotFound, distributionID)
	}
	return record, nil
}

// Records returns all distribution records ordered by period start.
func (d *Distributor) Records(ctx context.Context) []model.DistributionRecord {
	d.mu.RLock()
	out := make([]model.DistributionRecord, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodStart.Equal(out[j].PeriodStart) {
			return out[i].PeriodStart.Before(out[j].PeriodStart)
		}
		return out[i].DistributionID < out[j].DistributionID
	})
	return out
}

func (d *Distributor) get(id string) (model.DistributionRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	record, ok := d.records[id]
	return record, ok
}

// windowLock returns the mutex guarding one window's computation.
func (d *Distributor) windowLock(id string) *sync.Mutex {
	d.windowMu.Lock()
	defer d.windowMu.Unlock()
	l, ok := d.windows[id]
	if !ok {
		l = &sync.Mutex{}
		d.windows[id] = l
	}
	return l
}

// persistLocked saves all records. Caller holds the write lock.
func (d *Distributor) persistLocked(ctx context.Context) error {
	out := make([]model.DistributionRecord, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistributionID < out[j].DistributionID })
	if err := d.store.Save(ctx, repository.CollectionDistributions, out); err != nil {
		d.logger.Error(ctx, "persisting distributions failed", logger.Error(err))
		return err
	}
	return nil
}
