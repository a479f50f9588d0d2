// Package usage keeps the append-only log of skill usage events.
//
// Events are the unit of reward accounting and are never mutated or
// deleted. Ingestion is concurrent-safe: appends serialize through a
// write lock while reads iterate over a snapshot taken at call time,
// so a running distribution never observes events appended after it
// started. Persistence is write-behind: a single flusher goroutine
// rewrites the collection document after appends, keeping disk writes
// serialized and whole-document atomic.
package usage

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myskills/skillhub/internal/adapters/repository"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/pkg/logger"
	"github.com/myskills/skillhub/pkg/metrics"
)

// SkillLookup resolves skill IDs. The tracker checks references
// defensively; the store itself enforces nothing.
type SkillLookup interface {
	Get(ctx context.Context, skillID string) (model.SkillDescriptor, error)
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.logger = log
		}
	}
}

// Tracker is the append-only usage event log.
type Tracker struct {
	mu     sync.RWMutex
	events []model.UsageEvent

	skills SkillLookup
	store  repository.Store
	logger logger.Logger

	flushCh chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// New creates a Tracker backed by store, loading any previously
// persisted events.
func New(ctx context.Context, store repository.Store, skills SkillLookup, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		skills:  skills,
		store:   store,
		logger:  logger.Named("usage"),
		flushCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := store.Load(ctx, repository.CollectionUsageEvents, &t.events); err != nil {
		return nil, fmt.Errorf("load usage events: %w", err)
	}
	metrics.UpdateTrackedEvents(len(t.events))
	return t, nil
}

// Start launches the persistence flusher.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true
	go t.flushLoop()
}

// Stop flushes pending events and stops the flusher.
func (t *Tracker) Stop(ctx context.Context) {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	t.mu.Unlock()

	close(t.stopCh)
	<-t.doneCh
	if err := t.Flush(ctx); err != nil {
		t.logger.Error(ctx, "final usage flush failed", logger.Error(err))
	}
}

// Record appends one usage event. A zero timestamp defaults to the
// ingestion time. Recording fails if the skill is unknown to the
// registry.
func (t *Tracker) Record(ctx context.Context, skillID, userID string, ts time.Time) (model.UsageEvent, error) {
	if userID == "" {
		return model.UsageEvent{}, ErrInvalidUser
	}
	if _, err := t.skills.Get(ctx, skillID); err != nil {
		metrics.RecordUsageRejected()
		return model.UsageEvent{}, fmt.Errorf("%w: %s", ErrUnknownSkill, skillID)
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	event := model.UsageEvent{
		EventID:   uuid.NewString(),
		SkillID:   skillID,
		UserID:    userID,
		Timestamp: ts.UTC(),
	}

	t.mu.Lock()
	t.events = append(t.events, event)
	total := len(t.events)
	t.mu.Unlock()

	metrics.RecordUsageEvent()
	metrics.UpdateTrackedEvents(total)
	t.requestFlush()

	t.logger.Debug(ctx, "usage recorded",
		logger.String("skillID", skillID),
		logger.String("userID", userID),
		logger.Time("ts", event.Timestamp),
	)
	return event, nil
}

// EventsInRange returns a lazy, finite, restartable sequence of events
// with timestamps in [start, end). The sequence iterates a snapshot
// taken now; events appended later are excluded even if their
// timestamps fall before end.
func (t *Tracker) EventsInRange(ctx context.Context, start, end time.Time) iter.Seq[model.UsageEvent] {
	t.mu.RLock()
	// Full slice expression pins the snapshot: later appends may grow
	// t.events but can never alias into this view.
	snapshot := t.events[:len(t.events):len(t.events)]
	t.mu.RUnlock()

	return func(yield func(model.UsageEvent) bool) {
		for _, e := range snapshot {
			if e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Count returns the current length of the event log.
func (t *Tracker) Count(ctx context.Context) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// Flush synchronously persists the current event log.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.RLock()
	snapshot := t.events[:len(t.events):len(t.events)]
	t.mu.RUnlock()
	return t.store.Save(ctx, repository.CollectionUsageEvents, snapshot)
}

// requestFlush signals the flusher; signals coalesce when one is
// already pending.
func (t *Tracker) requestFlush() {
	select {
	case t.flushCh <- struct{}{}:
	default:
	}
}

func (t *Tracker) flushLoop() {
	defer close(t.doneCh)
	ctx := context.Background()
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.flushCh:
			if err := t.Flush(ctx); err != nil {
				t.logger.Error(ctx, "usage flush failed", logger.Error(err))
			}
		}
	}
}
