package event

import (
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/trade"
)

// RegisterLedgerEvents registers every event the ledger publishes
func RegisterLedgerEvents(s *EventSerializer) {
	s.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	s.Register(catalog.EventTypeProductUOMsChanged, &catalog.ProductUOMsChangedEvent{})

	s.Register(inventory.EventTypeStockMoved, &inventory.StockMovedEvent{})
	s.Register(inventory.EventTypeBatchRetired, &inventory.BatchRetiredEvent{})

	s.Register(trade.EventTypeVoucherCreated, &trade.VoucherCreatedEvent{})
	s.Register(trade.EventTypeVoucherReceived, &trade.VoucherReceivedEvent{})
	s.Register(trade.EventTypeVoucherCancelled, &trade.VoucherCancelledEvent{})
	s.Register(trade.EventTypeSaleCompleted, &trade.SaleCompletedEvent{})

	s.Register(finance.EventTypePayableCreated, &finance.PayableCreatedEvent{})
	s.Register(finance.EventTypePayablePaid, &finance.PayablePaidEvent{})
}

// NewLedgerSerializer returns a serializer with the ledger events registered
func NewLedgerSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterLedgerEvents(s)
	return s
}
