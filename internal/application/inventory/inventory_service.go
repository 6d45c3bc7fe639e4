package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService handles batch queries and manual stock operations
type InventoryService struct {
	batchRepo    inventory.BatchRepository
	movementRepo inventory.MovementRepository
	ledger       inventory.StockLedger
	productRepo  catalog.ProductRepository
	warehouses   partner.WarehouseRepository
	recorder     *MovementRecorder
	metrics      *telemetry.LedgerMetrics
	logger       *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	batchRepo inventory.BatchRepository,
	movementRepo inventory.MovementRepository,
	ledger inventory.StockLedger,
	productRepo catalog.ProductRepository,
	warehouses partner.WarehouseRepository,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		ledger:       ledger,
		productRepo:  productRepo,
		warehouses:   warehouses,
		recorder:     NewMovementRecorder(movementRepo, logger),
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for movement and batch events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.recorder.SetEventPublisher(publisher)
}

// SetMetrics sets the ledger metrics sink
func (s *InventoryService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
	s.recorder.SetMetrics(metrics)
}

// Recorder returns the movement recorder shared with the workflows
func (s *InventoryService) Recorder() *MovementRecorder {
	return s.recorder
}

// ListActiveBatches returns the batches FIFO would draw from, in draw order
func (s *InventoryService) ListActiveBatches(ctx context.Context, productID, warehouseID uuid.UUID) ([]BatchResponse, error) {
	batches, err := s.batchRepo.ListActive(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return ToBatchResponses(inventory.SortFIFO(batches)), nil
}

// Allocate computes a FIFO plan for a base quantity without changing stock
func (s *InventoryService) Allocate(ctx context.Context, productID, warehouseID uuid.UUID, requested decimal.Decimal) (*inventory.AllocationPlan, error) {
	batches, err := s.batchRepo.ListActive(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	plan, err := inventory.PlanAllocation(productID, warehouseID, requested, batches)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// AllocateInUnit converts the request through the product's units and plans it
func (s *InventoryService) AllocateInUnit(ctx context.Context, req AllocateRequest) (*inventory.AllocationPlan, error) {
	base, err := s.toBase(ctx, req.ProductID, req.Quantity, req.UOM)
	if err != nil {
		return nil, err
	}
	return s.Allocate(ctx, req.ProductID, req.WarehouseID, base)
}

// CheckAvailability sums demand per product and compares it with active
// batch stock read at call time. Nothing is reserved.
func (s *InventoryService) CheckAvailability(ctx context.Context, warehouseID uuid.UUID, lines []RequestedLine) (*AvailabilityResult, error) {
	order := make([]uuid.UUID, 0, len(lines))
	requested := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, l := range lines {
		if !l.BaseQuantity.IsPositive() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
		}
		if _, ok := requested[l.ProductID]; !ok {
			order = append(order, l.ProductID)
			requested[l.ProductID] = decimal.Zero
		}
		requested[l.ProductID] = requested[l.ProductID].Add(l.BaseQuantity)
	}

	result := &AvailabilityResult{Valid: true, Shortfalls: make([]inventory.StockShortfall, 0)}
	if len(order) == 0 {
		return result, nil
	}

	onHand, err := s.batchRepo.SumActive(ctx, warehouseID, order)
	if err != nil {
		return nil, fmt.Errorf("read on-hand stock: %w", err)
	}
	for _, productID := range order {
		available, ok := onHand[productID]
		if !ok {
			available = decimal.Zero
		}
		if requested[productID].GreaterThan(available) {
			result.Valid = false
			result.Shortfalls = append(result.Shortfalls, inventory.StockShortfall{
				ProductID:   productID,
				WarehouseID: warehouseID,
				Requested:   requested[productID],
				Available:   available,
			})
		}
	}
	if !result.Valid {
		s.metrics.RecordShortfall(ctx, len(result.Shortfalls))
	}
	return result, nil
}

// CheckCart converts cart lines to base units and checks availability
func (s *InventoryService) CheckCart(ctx context.Context, req AvailabilityRequest) (*AvailabilityResult, error) {
	lines := make([]RequestedLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		base, err := s.toBase(ctx, l.ProductID, l.Quantity, l.UOM)
		if err != nil {
			return nil, err
		}
		lines = append(lines, RequestedLine{ProductID: l.ProductID, BaseQuantity: base})
	}
	return s.CheckAvailability(ctx, req.WarehouseID, lines)
}

// ListMovements returns the movement history for a product in a warehouse
func (s *InventoryService) ListMovements(ctx context.Context, filter MovementListFilter) ([]MovementResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	movements, total, err := s.movementRepo.FindByProduct(ctx, filter.ProductID, filter.WarehouseID, f)
	if err != nil {
		return nil, 0, err
	}
	return ToMovementResponses(movements), total, nil
}

// Adjust corrects stock. A positive delta adds a new ADJ batch at the given
// cost; a negative delta consumes FIFO.
func (s *InventoryService) Adjust(ctx context.Context, req AdjustRequest) (*StockChangeResponse, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, inventory.ErrMovementReason
	}
	if req.Delta.IsZero() {
		return nil, inventory.ErrZeroMovement
	}
	if !inventory.IsWholeQuantity(req.Delta) {
		return nil, inventory.ErrFractionalQuantity
	}
	if _, err := s.findProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}
	if err := s.requireWarehouses(ctx, req.WarehouseID); err != nil {
		return nil, err
	}
	batchNumber := generateReference("ADJ")
	ref := req.ReferenceID
	if ref == "" {
		ref = batchNumber
	}

	if req.Delta.IsPositive() {
		outcome, err := s.ledger.Increase(ctx, inventory.IncreaseRequest{
			ProductID:   req.ProductID,
			WarehouseID: req.WarehouseID,
			BatchNumber: batchNumber,
			Quantity:    req.Delta,
			UnitCost:    req.UnitCost,
			ExpiryDate:  req.ExpiryDate,
			Type:        inventory.MovementTypeAdjustment,
			ReferenceID: ref,
			Reason:      req.Reason,
			CreatedBy:   req.CreatedBy,
		})
		if err != nil {
			return nil, err
		}
		resp := &StockChangeResponse{ReferenceID: ref, Movements: make([]MovementResponse, 0, 1)}
		if outcome.Batch != nil {
			resp.Batches = []BatchResponse{ToBatchResponse(outcome.Batch)}
		}
		if outcome.Movement != nil {
			s.recorder.Observe(ctx, *outcome.Movement)
			resp.Movements = append(resp.Movements, ToMovementResponse(outcome.Movement))
		}
		s.logger.Info("stock adjusted up",
			zap.String("product_id", req.ProductID.String()),
			zap.String("warehouse_id", req.WarehouseID.String()),
			zap.String("delta", req.Delta.String()),
			zap.String("reference_id", ref),
		)
		return resp, nil
	}

	outcome, err := s.ledger.Decrement(ctx, inventory.DecrementRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Delta.Neg(),
		Type:        inventory.MovementTypeAdjustment,
		ReferenceID: ref,
		Reason:      req.Reason,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	s.recorder.Observe(ctx, outcome.Movements...)
	s.logger.Info("stock adjusted down",
		zap.String("product_id", req.ProductID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.String("delta", req.Delta.String()),
		zap.String("reference_id", ref),
	)
	return &StockChangeResponse{
		ReferenceID: ref,
		Plan:        outcome.Plan,
		Movements:   ToMovementResponses(outcome.Movements),
	}, nil
}

// Transfer moves stock between two warehouses in one transaction
func (s *InventoryService) Transfer(ctx context.Context, req TransferRequest) (*StockChangeResponse, error) {
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Source and destination warehouse must differ")
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	if !inventory.IsWholeQuantity(req.Quantity) {
		return nil, inventory.ErrFractionalQuantity
	}
	if _, err := s.findProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}
	if err := s.requireWarehouses(ctx, req.FromWarehouseID, req.ToWarehouseID); err != nil {
		return nil, err
	}
	ref := req.ReferenceID
	if ref == "" {
		ref = generateReference("TRF")
	}

	outcome, err := s.ledger.Transfer(ctx, inventory.TransferRequest{
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		ReferenceID:     ref,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	s.recorder.Observe(ctx, outcome.Movements...)
	s.logger.Info("stock transferred",
		zap.String("product_id", req.ProductID.String()),
		zap.String("from_warehouse_id", req.FromWarehouseID.String()),
		zap.String("to_warehouse_id", req.ToWarehouseID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("reference_id", ref),
	)
	return &StockChangeResponse{
		ReferenceID: ref,
		Plan:        outcome.Plan,
		Batches:     ToBatchResponses(outcome.Created),
		Movements:   ToMovementResponses(outcome.Movements),
	}, nil
}

// MarkDamaged writes off the remaining quantity of a batch
func (s *InventoryService) MarkDamaged(ctx context.Context, batchID uuid.UUID, req DamageRequest) (*StockChangeResponse, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, inventory.ErrMovementReason
	}
	outcome, err := s.ledger.WriteOff(ctx, inventory.WriteOffRequest{
		BatchID:   batchID,
		Type:      inventory.MovementTypeDamaged,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	resp := &StockChangeResponse{
		ReferenceID: batchID.String(),
		Batches:     []BatchResponse{ToBatchResponse(outcome.Batch)},
		Movements:   make([]MovementResponse, 0, 1),
	}
	if outcome.Movement != nil {
		s.recorder.Observe(ctx, *outcome.Movement)
		resp.Movements = append(resp.Movements, ToMovementResponse(outcome.Movement))
	}
	s.logger.Info("batch written off as damaged",
		zap.String("batch_id", batchID.String()),
		zap.String("batch_number", outcome.Batch.BatchNumber),
		zap.String("reason", req.Reason),
	)
	return resp, nil
}

// Reconcile compares the ledger sum with active batch stock
func (s *InventoryService) Reconcile(ctx context.Context, productID, warehouseID uuid.UUID) (*ReconcileResult, error) {
	movementSum, err := s.movementRepo.SumQuantity(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	sums, err := s.batchRepo.SumActive(ctx, warehouseID, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	batchSum, ok := sums[productID]
	if !ok {
		batchSum = decimal.Zero
	}
	result := &ReconcileResult{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		MovementSum:    movementSum,
		ActiveBatchSum: batchSum,
		Consistent:     movementSum.Equal(batchSum),
	}
	if !result.Consistent {
		s.logger.Warn("ledger and batch store disagree",
			zap.String("product_id", productID.String()),
			zap.String("warehouse_id", warehouseID.String()),
			zap.String("movement_sum", movementSum.String()),
			zap.String("active_batch_sum", batchSum.String()),
		)
	}
	return result, nil
}

func (s *InventoryService) findProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrUnknownProduct, productID)
		}
		return nil, err
	}
	return p, nil
}

// requireWarehouses fails with ErrUnknownWarehouse for the first id that
// does not resolve, so stock is never booked against a missing warehouse
func (s *InventoryService) requireWarehouses(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		if _, err := s.warehouses.FindByID(ctx, id); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: %s", shared.ErrUnknownWarehouse, id)
			}
			return err
		}
	}
	return nil
}

func (s *InventoryService) toBase(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, uom string) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p, err := s.findProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if uom == "" {
		uom = p.BaseUOM
	}
	base, err := p.ToBase(quantity, uom)
	if err != nil {
		return decimal.Zero, err
	}
	if !inventory.IsWholeQuantity(base) {
		return decimal.Zero, inventory.ErrFractionalQuantity
	}
	return base, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func generateReference(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102150405"),
		strings.ToUpper(uuid.New().String()[:8]))
}
