package inventory

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSweepBatchSize bounds how many batches one sweep retires
const DefaultSweepBatchSize = 500

// ExpirySweeper retires active batches whose expiry date has passed
type ExpirySweeper struct {
	batchRepo      inventory.BatchRepository
	ledger         inventory.StockLedger
	recorder       *MovementRecorder
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	batchSize      int
	logger         *zap.Logger
}

// NewExpirySweeper creates a new ExpirySweeper
func NewExpirySweeper(
	batchRepo inventory.BatchRepository,
	ledger inventory.StockLedger,
	recorder *MovementRecorder,
	logger *zap.Logger,
) *ExpirySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirySweeper{
		batchRepo: batchRepo,
		ledger:    ledger,
		recorder:  recorder,
		batchSize: DefaultSweepBatchSize,
		logger:    logger,
	}
}

// SetEventPublisher sets the publisher for BatchRetired events
func (s *ExpirySweeper) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics sink
func (s *ExpirySweeper) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// SetBatchSize overrides DefaultSweepBatchSize
func (s *ExpirySweeper) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// Sweep writes an expired movement for the remaining quantity of every active
// batch whose expiry is before now and marks it expired. A batch that fails
// stays active and is picked up by the next sweep.
func (s *ExpirySweeper) Sweep(ctx context.Context, now time.Time) (*SweepStats, error) {
	stats := &SweepStats{ProcessedAt: now}

	var sweepErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationExpirySweep, nil), func(c context.Context) {
		batches, err := s.batchRepo.FindExpiring(c, now, s.batchSize)
		if err != nil {
			s.logger.Error("failed to find expiring batches", zap.Error(err))
			sweepErr = err
			return
		}

		stats.Total = len(batches)
		if stats.Total == 0 {
			s.logger.Debug("no expired batches found")
			return
		}

		s.logger.Info("found expired batches", zap.Int("count", stats.Total))

		for i := range batches {
			b := &batches[i]
			if err := s.expire(c, b); err != nil {
				s.logger.Error("failed to expire batch",
					zap.String("batch_id", b.ID.String()),
					zap.String("batch_number", b.BatchNumber),
					zap.String("product_id", b.ProductID.String()),
					zap.Error(err),
				)
				stats.Failed++
				continue
			}
			stats.Succeeded++
		}

		s.logger.Info("completed expiry sweep",
			zap.Int("total", stats.Total),
			zap.Int("succeeded", stats.Succeeded),
			zap.Int("failed", stats.Failed),
		)
	})
	if sweepErr != nil {
		return nil, sweepErr
	}
	s.metrics.RecordSweep(ctx, telemetry.OperationExpirySweep, stats.Succeeded, stats.Failed)
	return stats, nil
}

func (s *ExpirySweeper) expire(ctx context.Context, b *inventory.InventoryBatch) error {
	outcome, err := s.ledger.WriteOff(ctx, inventory.WriteOffRequest{
		BatchID:   b.ID,
		Type:      inventory.MovementTypeExpired,
		Reason:    "expired",
		CreatedBy: "expiry-sweeper",
	})
	if err != nil {
		return err
	}
	written := decimal.Zero
	if outcome.Movement != nil {
		written = outcome.Movement.Quantity.Neg()
		if s.recorder != nil {
			s.recorder.Observe(ctx, *outcome.Movement)
		}
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, inventory.NewBatchRetiredEvent(outcome.Batch, written)); err != nil {
			s.logger.Warn("failed to publish batch retired event",
				zap.String("batch_id", b.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}
