// Package sink defines the ledger sink boundary.
//
// A Sink consumes the per-creator payout map of a distribution record
// and is responsible for the actual on-chain transfer. The distributor
// treats emission as fire-and-forget: retries and confirmation belong
// to the sink, not to the accounting core.
package sink

import (
	"context"

	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/pkg/logger"
)

// Sink receives finished distribution records.
type Sink interface {
	Submit(ctx context.Context, record model.DistributionRecord) error
}

// LogSink is the default Sink; it only logs the payout instruction.
// Deployments wire a blockchain client here.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink() *LogSink {
	return &LogSink{logger: logger.Named("sink")}
}

// Submit logs each creator payout and always succeeds.
func (s *LogSink) Submit(ctx context.Context, record model.DistributionRecord) error {
	for wallet, amount := range record.PerCreatorAmount {
		s.logger.Info(ctx, "payout instruction",
			logger.String("distributionID", record.DistributionID),
			logger.String("creator", wallet),
			logger.BigInt("amount", amount),
		)
	}
	return nil
}
