package inventory

import (
	"context"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MovementRecorder appends movements to the ledger and announces movements
// written by the ledger adapter. It never edits an existing movement.
type MovementRecorder struct {
	movementRepo   inventory.MovementRepository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
}

// NewMovementRecorder creates a new MovementRecorder
func NewMovementRecorder(movementRepo inventory.MovementRepository, logger *zap.Logger) *MovementRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovementRecorder{
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher for StockMoved events
func (r *MovementRecorder) SetEventPublisher(publisher shared.EventPublisher) {
	r.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics sink
func (r *MovementRecorder) SetMetrics(metrics *telemetry.LedgerMetrics) {
	r.metrics = metrics
}

// Record validates and appends a stand-alone movement, such as a compensating
// entry booked after a reconciliation finds drift. Movements that change batch
// quantities are written by the StockLedger in the same transaction as the
// batch update and only pass through Observe.
func (r *MovementRecorder) Record(ctx context.Context, movement *inventory.StockMovement) (*inventory.StockMovement, error) {
	if movement == nil {
		return nil, shared.ErrInvalidInput
	}
	if err := movement.Validate(); err != nil {
		return nil, err
	}
	if err := r.movementRepo.Append(ctx, movement); err != nil {
		return nil, err
	}
	r.Observe(ctx, *movement)
	return movement, nil
}

// Observe publishes events and metrics for movements already persisted
func (r *MovementRecorder) Observe(ctx context.Context, movements ...inventory.StockMovement) {
	if len(movements) == 0 {
		return
	}
	events := make([]shared.DomainEvent, 0, len(movements))
	for i := range movements {
		m := &movements[i]
		r.metrics.RecordMovement(ctx, m.Type.String(), m.Quantity)
		events = append(events, inventory.NewStockMovedEvent(m))
	}
	if r.eventPublisher == nil {
		return
	}
	if err := r.eventPublisher.Publish(ctx, events...); err != nil {
		r.logger.Warn("failed to publish stock movement events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
