package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// failingLedger fails WriteOff for one batch and delegates everything else
type failingLedger struct {
	inventory.StockLedger
	failFor map[string]bool
}

func (f *failingLedger) WriteOff(ctx context.Context, req inventory.WriteOffRequest) (*inventory.WriteOffOutcome, error) {
	if f.failFor[req.BatchID.String()] {
		return nil, errors.New("lock timeout")
	}
	return f.StockLedger.WriteOff(ctx, req)
}

func TestExpirySweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	l := testutil.NewLedger(t, nil)
	p := l.Product(t, "YOGURT", "cup")
	wh := l.Warehouse(t, "WH-1")

	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	expired := l.AddStock(t, p.ID, wh.ID, 4, &past)
	fresh := l.AddStock(t, p.ID, wh.ID, 6, &future)
	l.AddStock(t, p.ID, wh.ID, 3, nil)

	recorder := NewMovementRecorder(l.Movements, nil)
	publisher := new(MockEventPublisher)
	recorder.SetEventPublisher(publisher)

	sweeper := NewExpirySweeper(l.Batches, l.Stock, recorder, nil)
	sweeper.SetEventPublisher(publisher)

	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == inventory.EventTypeStockMoved
	})).Return(nil).Once()
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == inventory.EventTypeBatchRetired
	})).Return(nil).Once()

	stats, err := sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Zero(t, stats.Failed)
	publisher.AssertExpectations(t)

	retired, err := l.Batches.FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.BatchStatusExpired, retired.Status)

	still, err := l.Batches.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.BatchStatusActive, still.Status)

	movements, err := l.Movements.FindByReference(ctx, expired.ID.String())
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementTypeExpired, movements[0].Type)
	assert.True(t, movements[0].Quantity.Equal(d("-4")))

	assert.True(t, l.RequireBalanced(t, p.ID, wh.ID).Equal(d("9")))

	again, err := sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, again.Total)
}

func TestExpirySweeper_FailedBatchStaysActive(t *testing.T) {
	ctx := context.Background()
	l := testutil.NewLedger(t, nil)
	p := l.Product(t, "MILK", "carton")
	wh := l.Warehouse(t, "WH-1")

	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-time.Hour)
	stuck := l.AddStock(t, p.ID, wh.ID, 2, &past)
	l.AddStock(t, p.ID, wh.ID, 5, &past)

	ledger := &failingLedger{StockLedger: l.Stock, failFor: map[string]bool{stuck.ID.String(): true}}
	sweeper := NewExpirySweeper(l.Batches, ledger, nil, nil)
	sweeper.SetBatchSize(10)

	stats, err := sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)

	b, err := l.Batches.FindByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.BatchStatusActive, b.Status)
	assert.True(t, l.RequireBalanced(t, p.ID, wh.ID).Equal(d("2")))

	// next sweep retries the batch that failed
	ledger.failFor = nil
	stats, err = sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.True(t, l.RequireBalanced(t, p.ID, wh.ID).IsZero())
}

func TestExpirySweeper_PublishFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	l := testutil.NewLedger(t, nil)
	p := l.Product(t, "CREAM", "tub")
	wh := l.Warehouse(t, "WH-1")

	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-time.Hour)
	l.AddStock(t, p.ID, wh.ID, 3, &past)

	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus closed"))

	core, logs := observer.New(zapcore.WarnLevel)
	sweeper := NewExpirySweeper(l.Batches, l.Stock, nil, zap.New(core))
	sweeper.SetEventPublisher(publisher)

	stats, err := sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Zero(t, stats.Failed)
	assert.True(t, l.RequireBalanced(t, p.ID, wh.ID).IsZero())

	warned := logs.FilterMessage("failed to publish batch retired event").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "bus closed", warned[0].ContextMap()["error"])
}
