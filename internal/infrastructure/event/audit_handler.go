package event

import (
	"context"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the structured log as JSON
type AuditLogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditLogHandler creates a wildcard audit handler
func NewAuditLogHandler(serializer *EventSerializer, base *zap.Logger) *AuditLogHandler {
	if base == nil {
		base = zap.NewNop()
	}
	return &AuditLogHandler{serializer: serializer, logger: base.Named("audit")}
}

// EventTypes is empty, so the handler sees every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its payload and the request's trace fields
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	h.logger.Info("domain event",
		append(logger.ContextFields(ctx),
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.String("aggregate_type", event.AggregateType()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Time("occurred_at", event.OccurredAt()),
			zap.ByteString("payload", payload),
		)...,
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
