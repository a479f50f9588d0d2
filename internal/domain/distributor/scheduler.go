package distributor

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/myskills/skillhub/pkg/logger"
)

// Scheduler runs the distributor on a fixed interval, closing the most
// recent fully elapsed window each tick. Windows are aligned to the
// interval, so a missed tick re-closes the same window on the next run
// and the idempotency guard turns it into a replay.
type Scheduler struct {
	sched    gocron.Scheduler
	dist     *Distributor
	interval time.Duration
	pool     *big.Int
	logger   logger.Logger
}

// NewScheduler creates a Scheduler distributing pool every interval.
func NewScheduler(dist *Distributor, interval time.Duration, pool *big.Int) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval %s", ErrInvalidWindow, interval)
	}
	if pool == nil || pool.Sign() < 0 {
		return nil, ErrInvalidPool
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{
		sched:    sched,
		dist:     dist,
		interval: interval,
		pool:     new(big.Int).Set(pool),
		logger:   logger.Named("scheduler"),
	}, nil
}

// Start registers the periodic job and begins running it.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.runOnce(ctx) }),
	)
	if err != nil {
		return fmt.Errorf("schedule distribution job: %w", err)
	}
	s.sched.Start()
	s.logger.Info(ctx, "distribution schedule started",
		logger.Duration("interval", s.interval),
		logger.BigInt("pool", s.pool),
	)
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	end := time.Now().UTC().Truncate(s.interval)
	start := end.Add(-s.interval)

	record, err := s.dist.Distribute(ctx, start, end, s.pool)
	if err != nil {
		s.logger.Error(ctx, "scheduled distribution failed",
			logger.Time("periodStart", start),
			logger.Time("periodEnd", end),
			logger.Error(err),
		)
		return
	}
	s.logger.Info(ctx, "scheduled distribution finished",
		logger.String("distributionID", record.DistributionID),
		logger.BigInt("total", record.TotalAmount()),
	)
}
