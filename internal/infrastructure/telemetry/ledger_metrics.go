package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when LedgerMetrics is built without a meter.
var ErrMeterNil = errors.New("NewLedgerMetrics: meter cannot be nil")

// StockGaugeProvider reads point-in-time stock figures for the gauges.
type StockGaugeProvider interface {
	// OnHandByWarehouse returns the active batch quantity per warehouse
	OnHandByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error)
	// ExpiringCount returns active batches with stock expiring before the horizon
	ExpiringCount(ctx context.Context, horizon time.Time) (int64, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	GaugeProvider StockGaugeProvider
	// ExpiryHorizon is how far ahead the expiring-batch gauge looks. Default 7 days.
	ExpiryHorizon time.Duration
}

// LedgerMetrics counts ledger activity. All methods are safe on a nil receiver
// so services can run without metrics wired.
type LedgerMetrics struct {
	logger        *zap.Logger
	provider      StockGaugeProvider
	expiryHorizon time.Duration

	salesTotal         *Counter
	saleLinesTotal     *Counter
	decrementFailures  *Counter
	receiptLinesTotal  *Counter
	movementsTotal     *Counter
	movementUnitsTotal *Counter
	shortfallsTotal    *Counter
	sweepItemsTotal    *Counter
	onHandQuantity     *Gauge
	expiringBatches    *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	horizon := cfg.ExpiryHorizon
	if horizon <= 0 {
		horizon = 7 * 24 * time.Hour
	}
	m := &LedgerMetrics{
		logger:        logger,
		provider:      cfg.GaugeProvider,
		expiryHorizon: horizon,
		stopChan:      make(chan struct{}),
	}

	counters := []struct {
		dst                     **Counter
		name, description, unit string
	}{
		{&m.salesTotal, "stockledger_sales_completed_total", "Completed sales", "{sales}"},
		{&m.saleLinesTotal, "stockledger_sale_lines_total", "Cart lines on completed sales", "{lines}"},
		{&m.decrementFailures, "stockledger_decrement_failures_total", "Stock decrements that failed after the primary record was saved", "{decrements}"},
		{&m.receiptLinesTotal, "stockledger_receipt_lines_total", "Voucher lines processed by receiving, by outcome", "{lines}"},
		{&m.movementsTotal, "stockledger_movements_total", "Stock movements written", "{movements}"},
		{&m.movementUnitsTotal, "stockledger_movement_units_total", "Absolute base units moved", "{units}"},
		{&m.shortfallsTotal, "stockledger_availability_shortfalls_total", "Products short in availability checks", "{products}"},
		{&m.sweepItemsTotal, "stockledger_sweep_items_total", "Items handled by background sweeps, by outcome", "{items}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.onHandQuantity, err = NewGauge(cfg.Meter, "stockledger_on_hand_quantity", "Active batch quantity per warehouse", "{units}")
	if err != nil {
		return nil, err
	}
	m.expiringBatches, err = NewGauge(cfg.Meter, "stockledger_expiring_batches", "Active batches expiring within the horizon", "{batches}")
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMovement counts one movement and its absolute quantity
func (m *LedgerMetrics) RecordMovement(ctx context.Context, movementType string, qty decimal.Decimal) {
	if m == nil {
		return
	}
	attr := AttrMovementType.String(movementType)
	m.movementsTotal.Inc(ctx, attr)
	m.movementUnitsTotal.Add(ctx, qty.Abs().IntPart(), attr)
}

// RecordShortfall counts products found short by an availability check
func (m *LedgerMetrics) RecordShortfall(ctx context.Context, products int) {
	if m == nil || products <= 0 {
		return
	}
	m.shortfallsTotal.Add(ctx, int64(products))
}

// RecordSweep counts the outcome of one sweep pass
func (m *LedgerMetrics) RecordSweep(ctx context.Context, name string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.sweepItemsTotal.Add(ctx, int64(succeeded), AttrSweep.String(name), AttrOutcome.String("succeeded"))
	m.sweepItemsTotal.Add(ctx, int64(failed), AttrSweep.String(name), AttrOutcome.String("failed"))
}

// RecordReceipt counts receiving outcomes for one voucher
func (m *LedgerMetrics) RecordReceipt(ctx context.Context, applied, skipped, failed int) {
	if m == nil {
		return
	}
	m.receiptLinesTotal.Add(ctx, int64(applied), AttrOutcome.String("applied"))
	m.receiptLinesTotal.Add(ctx, int64(skipped), AttrOutcome.String("skipped"))
	m.receiptLinesTotal.Add(ctx, int64(failed), AttrOutcome.String("failed"))
}

// RecordDecrementFailure counts a stock decrement that did not apply
func (m *LedgerMetrics) RecordDecrementFailure(ctx context.Context, movementType string) {
	if m == nil {
		return
	}
	m.decrementFailures.Inc(ctx, AttrMovementType.String(movementType))
}

// RecordSaleCompleted counts a completed sale
func (m *LedgerMetrics) RecordSaleCompleted(ctx context.Context, lines, decrementFailures int) {
	if m == nil {
		return
	}
	outcome := "complete"
	if decrementFailures > 0 {
		outcome = "partial"
	}
	m.salesTotal.Inc(ctx, AttrOutcome.String(outcome))
	m.saleLinesTotal.Add(ctx, int64(lines))
}

// StartPeriodicCollection refreshes the stock gauges every interval until
// Stop is called or ctx is cancelled.
func (m *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if m == nil {
		return
	}
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go m.runPeriodicCollection(ctx, interval)
	})
}

func (m *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.CollectGauges(ctx)
	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CollectGauges(ctx)
		}
	}
}

// CollectGauges reads the provider once and records the stock gauges
func (m *LedgerMetrics) CollectGauges(ctx context.Context) {
	if m == nil || m.provider == nil {
		return
	}
	onHand, err := m.provider.OnHandByWarehouse(ctx)
	if err != nil {
		m.logger.Warn("Failed to read on-hand quantity for metrics", zap.Error(err))
	} else {
		for warehouseID, qty := range onHand {
			m.onHandQuantity.Record(ctx, qty, AttrWarehouseID.String(warehouseID.String()))
		}
	}

	expiring, err := m.provider.ExpiringCount(ctx, time.Now().Add(m.expiryHorizon))
	if err != nil {
		m.logger.Warn("Failed to read expiring batch count for metrics", zap.Error(err))
		return
	}
	m.expiringBatches.Record(ctx, expiring)
}

// Stop ends periodic collection
func (m *LedgerMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}
