package event

import (
	"context"
	"testing"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewLedgerSerializer()

	m, err := inventory.NewStockMovement(uuid.New(), uuid.New(), inventory.MovementTypeSale, decimal.NewFromInt(-3), uuid.New().String(), "")
	require.NoError(t, err)
	original := inventory.NewStockMovedEvent(m)

	data, err := s.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"movement_type":"sale"`)

	decoded, err := s.Deserialize(inventory.EventTypeStockMoved, data)
	require.NoError(t, err)
	moved, ok := decoded.(*inventory.StockMovedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), moved.EventID())
	assert.Equal(t, inventory.EventTypeStockMoved, moved.EventType())
	assert.Equal(t, m.ID, moved.MovementID)
	assert.True(t, moved.Quantity.Equal(decimal.NewFromInt(-3)))
}

func TestEventSerializer_Registry(t *testing.T) {
	s := NewLedgerSerializer()

	assert.True(t, s.IsRegistered(inventory.EventTypeBatchRetired))
	assert.False(t, s.IsRegistered("OrderShipped"))
	assert.Len(t, s.RegisteredTypes(), 10)

	_, err := s.Deserialize("OrderShipped", []byte(`{}`))
	assert.Error(t, err)
	_, err = s.Deserialize(inventory.EventTypeStockMoved, []byte(`{not json`))
	assert.Error(t, err)
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewAuditLogHandler(NewLedgerSerializer(), zap.New(core))

	assert.Empty(t, h.EventTypes())
	ev := newTestEvent("StockMoved")
	require.NoError(t, h.Handle(context.Background(), ev))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "domain event", entry.Message)
	assert.Equal(t, ev.EventID().String(), entry.ContextMap()["event_id"])
}
