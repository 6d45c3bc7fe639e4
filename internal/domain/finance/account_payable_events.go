package finance

import (
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeAccountPayable = "AccountPayable"

// Event type constants
const (
	EventTypePayableCreated = "AccountPayableCreated"
	EventTypePayablePaid    = "AccountPayablePaid"
)

// PayableCreatedEvent is published when receiving creates a payable
type PayableCreatedEvent struct {
	shared.BaseDomainEvent
	PayableID    uuid.UUID       `json:"payable_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SourceID     uuid.UUID       `json:"source_id"`
	SourceNumber string          `json:"source_number"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
}

// NewPayableCreatedEvent creates a new PayableCreatedEvent
func NewPayableCreatedEvent(ap *AccountPayable) *PayableCreatedEvent {
	return &PayableCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayableCreated, AggregateTypeAccountPayable, ap.ID),
		PayableID:       ap.ID,
		SupplierID:      ap.SupplierID,
		SourceID:        ap.SourceID,
		SourceNumber:    ap.SourceNumber,
		Amount:          ap.Amount,
		DueDate:         ap.DueDate,
	}
}

// PayablePaidEvent is published when a payable is settled
type PayablePaidEvent struct {
	shared.BaseDomainEvent
	PayableID uuid.UUID       `json:"payable_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPayablePaidEvent creates a new PayablePaidEvent
func NewPayablePaidEvent(ap *AccountPayable) *PayablePaidEvent {
	return &PayablePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayablePaid, AggregateTypeAccountPayable, ap.ID),
		PayableID:       ap.ID,
		Amount:          ap.Amount,
	}
}
