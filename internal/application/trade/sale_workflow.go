package trade

import (
	"context"
	"fmt"
	"time"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityChecker validates a cart against on-hand stock
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, warehouseID uuid.UUID, lines []inventoryapp.RequestedLine) (*inventoryapp.AvailabilityResult, error)
}

// SaleConfig holds the tunables of the sale workflow
type SaleConfig struct {
	IdempotencyTTL   time.Duration
	DecrementTimeout time.Duration
}

// DefaultSaleConfig returns the defaults used when no config is supplied
func DefaultSaleConfig() SaleConfig {
	return SaleConfig{
		IdempotencyTTL:   24 * time.Hour,
		DecrementTimeout: 5 * time.Second,
	}
}

// SaleWorkflow completes point-of-sale orders
type SaleWorkflow struct {
	orderRepo      trade.SalesOrderRepository
	productRepo    catalog.ProductRepository
	checker        AvailabilityChecker
	ledger         inventory.StockLedger
	idempotency    shared.IdempotencyStore
	recorder       *inventoryapp.MovementRecorder
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	config         SaleConfig
	logger         *zap.Logger
}

// NewSaleWorkflow creates a new SaleWorkflow
func NewSaleWorkflow(
	orderRepo trade.SalesOrderRepository,
	productRepo catalog.ProductRepository,
	checker AvailabilityChecker,
	ledger inventory.StockLedger,
	config SaleConfig,
	logger *zap.Logger,
) *SaleWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultSaleConfig()
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = defaults.IdempotencyTTL
	}
	if config.DecrementTimeout <= 0 {
		config.DecrementTimeout = defaults.DecrementTimeout
	}
	return &SaleWorkflow{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		checker:     checker,
		ledger:      ledger,
		config:      config,
		logger:      logger,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling
func (w *SaleWorkflow) SetIdempotencyStore(store shared.IdempotencyStore) {
	w.idempotency = store
}

// SetRecorder sets the recorder that announces ledger movements
func (w *SaleWorkflow) SetRecorder(recorder *inventoryapp.MovementRecorder) {
	w.recorder = recorder
}

// SetEventPublisher sets the event publisher for sale events
func (w *SaleWorkflow) SetEventPublisher(publisher shared.EventPublisher) {
	w.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics sink
func (w *SaleWorkflow) SetMetrics(metrics *telemetry.LedgerMetrics) {
	w.metrics = metrics
}

// Complete converts the cart to base units, checks availability, persists the
// completed order and then decrements stock once per product. Conversion and
// availability errors abort before anything is written. Decrement failures do
// not undo the sale; they are returned in SaleResult.Warning.
func (w *SaleWorkflow) Complete(ctx context.Context, cmd CompleteSaleCommand) (result *SaleResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "complete",
		telemetry.WithAttribute(telemetry.SpanAttrWarehouseID, cmd.WarehouseID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(cmd.Lines)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if len(cmd.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cart has no lines")
	}

	if cmd.IdempotencyKey != "" && w.idempotency != nil {
		key := "stockledger:sale:" + cmd.IdempotencyKey
		fresh, markErr := w.idempotency.MarkProcessed(ctx, key, w.config.IdempotencyTTL)
		if markErr != nil {
			return nil, fmt.Errorf("check idempotency key: %w", markErr)
		}
		if !fresh {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A sale with this idempotency key was already submitted")
		}
		// A sale that never reached the database frees its key for a retry.
		defer func() {
			if result != nil {
				return
			}
			if relErr := w.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
				w.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}()
	}

	order, err := w.buildOrder(ctx, cmd)
	if err != nil {
		return nil, err
	}
	grouped := order.AggregateByProduct()

	requested := make([]inventoryapp.RequestedLine, len(grouped))
	for i, g := range grouped {
		requested[i] = inventoryapp.RequestedLine{ProductID: g.ProductID, BaseQuantity: g.Quantity}
	}
	availability, err := w.checker.CheckAvailability(ctx, order.WarehouseID, requested)
	if err != nil {
		return nil, err
	}
	if !availability.Valid {
		w.logger.Info("sale rejected: insufficient stock",
			zap.String("order_number", order.OrderNumber),
			zap.Int("short_products", len(availability.Shortfalls)),
		)
		return nil, availability.Error()
	}

	if err := order.Complete(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := w.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save sales order: %w", err)
	}

	result = &SaleResult{
		Decrements:        make([]DecrementResult, 0, len(grouped)),
		DecrementFailures: make([]shared.StepFailure, 0),
	}
	for _, g := range grouped {
		dr := DecrementResult{ProductID: g.ProductID, Quantity: g.Quantity}
		outcome, decErr := w.decrement(ctx, order, g)
		if decErr != nil {
			w.logger.Error("failed to decrement stock for sale",
				zap.String("order_id", order.ID.String()),
				zap.String("order_number", order.OrderNumber),
				zap.String("product_id", g.ProductID.String()),
				zap.String("quantity", g.Quantity.String()),
				zap.Error(decErr),
			)
			w.metrics.RecordDecrementFailure(ctx, inventory.MovementTypeSale.String())
			dr.Error = decErr.Error()
			result.DecrementFailures = append(result.DecrementFailures, shared.StepFailure{
				Step: StepDecrementStock, Target: g.ProductID.String(), Reason: decErr.Error(), Err: decErr,
			})
			result.Decrements = append(result.Decrements, dr)
			continue
		}
		dr.Plan = outcome.Plan
		if w.recorder != nil {
			w.recorder.Observe(ctx, outcome.Movements...)
		}
		result.Decrements = append(result.Decrements, dr)
	}

	if w.eventPublisher != nil {
		if pubErr := w.eventPublisher.Publish(ctx, order.GetDomainEvents()...); pubErr != nil {
			w.logger.Warn("failed to publish sale events", zap.Error(pubErr))
		}
	}
	order.ClearDomainEvents()

	result.Order = ToSalesOrderResponse(order)
	result.Warning = shared.NewPartialWorkflowFailure("sale", len(grouped)-len(result.DecrementFailures), result.DecrementFailures)
	w.metrics.RecordSaleCompleted(ctx, len(order.Lines), len(result.DecrementFailures))

	w.logger.Info("sale completed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("products", len(grouped)),
		zap.Int("decrement_failures", len(result.DecrementFailures)),
	)
	return result, nil
}

// GetOrder returns a sales order with its lines
func (w *SaleWorkflow) GetOrder(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	order, err := w.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

func (w *SaleWorkflow) buildOrder(ctx context.Context, cmd CompleteSaleCommand) (*trade.SalesOrder, error) {
	number := cmd.OrderNumber
	if number == "" {
		number = generateNumber("SO")
	}
	order, err := trade.NewSalesOrder(number, cmd.WarehouseID, cmd.CustomerRef)
	if err != nil {
		return nil, err
	}
	order.IdempotencyKey = cmd.IdempotencyKey

	ids := make([]uuid.UUID, 0, len(cmd.Lines))
	for _, l := range cmd.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := loadProducts(ctx, w.productRepo, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range cmd.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, unknownProduct(l.ProductID)
		}
		if _, err := order.AddLine(p, l.Quantity, l.UOM, l.UnitPrice); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (w *SaleWorkflow) decrement(ctx context.Context, order *trade.SalesOrder, g trade.ProductQuantity) (*inventory.DecrementOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, w.config.DecrementTimeout)
	defer cancel()
	return w.ledger.Decrement(ctx, inventory.DecrementRequest{
		ProductID:   g.ProductID,
		WarehouseID: order.WarehouseID,
		Quantity:    g.Quantity,
		Type:        inventory.MovementTypeSale,
		ReferenceID: order.ID.String(),
	})
}
