package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxBatchNumberLength = 64

// GormStockLedger implements StockLedger. Each call runs in one transaction
// and decrements with a guarded UPDATE so stock never goes negative, even
// when the row lock is unavailable.
type GormStockLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB, logger *zap.Logger) *GormStockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStockLedger{db: db, logger: logger}
}

// Receive creates or tops up the receipt batch so that everything purchased
// into it adds up to entry.Quantity.
func (l *GormStockLedger) Receive(ctx context.Context, entry inventory.ReceiptEntry) (*inventory.ReceiptOutcome, error) {
	if !entry.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be positive")
	}
	if !inventory.IsWholeQuantity(entry.Quantity) {
		return nil, inventory.ErrFractionalQuantity
	}

	var outcome *inventory.ReceiptOutcome
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.InventoryBatchModel
		err := lockRows(tx).
			Where("product_id = ? AND batch_number = ?", entry.ProductID, entry.BatchNumber).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			batch, err := inventory.NewInventoryBatch(entry.ProductID, entry.WarehouseID, entry.BatchNumber,
				entry.Quantity, entry.UnitCost, entry.ReceivedDate, entry.ExpiryDate)
			if err != nil {
				return err
			}
			batch.SourceID = entry.ReferenceID
			if err := tx.Create(models.InventoryBatchModelFromDomain(batch)).Error; err != nil {
				return err
			}
			movement, err := appendMovement(tx, batch, inventory.MovementTypePurchase, entry.Quantity,
				entry.ReferenceID, "", entry.CreatedBy)
			if err != nil {
				return err
			}
			outcome = &inventory.ReceiptOutcome{Batch: batch, Applied: entry.Quantity, Created: true, Movement: movement}
			return nil
		case err != nil:
			return err
		}

		batch := existing.ToDomain()
		if batch.WarehouseID != entry.WarehouseID {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Batch %s belongs to another warehouse", batch.BatchNumber))
		}
		received, err := sumBatchMovements(tx, batch.ID, inventory.MovementTypePurchase)
		if err != nil {
			return err
		}
		missing := entry.Quantity.Sub(received)
		if !missing.IsPositive() {
			outcome = &inventory.ReceiptOutcome{Batch: batch, Applied: decimal.Zero, Skipped: true}
			return nil
		}
		if err := batch.Increase(missing); err != nil {
			return err
		}
		if err := tx.Model(&models.InventoryBatchModel{}).
			Where("id = ? AND status = ?", batch.ID, inventory.BatchStatusActive).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", missing),
				"updated_at": batch.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		movement, err := appendMovement(tx, batch, inventory.MovementTypePurchase, missing,
			entry.ReferenceID, "", entry.CreatedBy)
		if err != nil {
			return err
		}
		outcome = &inventory.ReceiptOutcome{Batch: batch, Applied: missing, Movement: movement}
		return nil
	})
	if err != nil {
		return nil, ledgerError("receive", err)
	}
	return outcome, nil
}

// Decrement consumes stock FIFO. A shortfall rolls the whole call back.
func (l *GormStockLedger) Decrement(ctx context.Context, req inventory.DecrementRequest) (*inventory.DecrementOutcome, error) {
	if err := validateOutflow(req.Quantity); err != nil {
		return nil, err
	}
	switch req.Type {
	case inventory.MovementTypeSale, inventory.MovementTypeAdjustment, inventory.MovementTypeTransfer:
	default:
		return nil, inventory.ErrInvalidMovement
	}

	var outcome *inventory.DecrementOutcome
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, _, movements, err := consume(tx, req)
		if err != nil {
			return err
		}
		outcome = &inventory.DecrementOutcome{Plan: plan, Movements: movements}
		return nil
	})
	if err != nil {
		return nil, ledgerError("decrement", err)
	}
	return outcome, nil
}

// Increase creates a new batch and its positive movement
func (l *GormStockLedger) Increase(ctx context.Context, req inventory.IncreaseRequest) (*inventory.ReceiptOutcome, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Increase quantity must be positive")
	}
	batch, err := inventory.NewInventoryBatch(req.ProductID, req.WarehouseID, req.BatchNumber,
		req.Quantity, req.UnitCost, time.Now().UTC(), req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	batch.SourceID = req.ReferenceID

	var movement *inventory.StockMovement
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.InventoryBatchModelFromDomain(batch)).Error; err != nil {
			return err
		}
		movement, err = appendMovement(tx, batch, req.Type, req.Quantity, req.ReferenceID, req.Reason, req.CreatedBy)
		return err
	})
	if err != nil {
		return nil, ledgerError("increase", err)
	}
	return &inventory.ReceiptOutcome{Batch: batch, Applied: req.Quantity, Created: true, Movement: movement}, nil
}

// Transfer consumes FIFO in the source warehouse and recreates each drawn
// portion as a batch in the destination with the same cost and expiry.
func (l *GormStockLedger) Transfer(ctx context.Context, req inventory.TransferRequest) (*inventory.TransferOutcome, error) {
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Source and destination warehouse must differ")
	}
	if err := validateOutflow(req.Quantity); err != nil {
		return nil, err
	}

	var outcome *inventory.TransferOutcome
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, sources, movements, err := consume(tx, inventory.DecrementRequest{
			ProductID:   req.ProductID,
			WarehouseID: req.FromWarehouseID,
			Quantity:    req.Quantity,
			Type:        inventory.MovementTypeTransfer,
			ReferenceID: req.ReferenceID,
			CreatedBy:   req.CreatedBy,
		})
		if err != nil {
			return err
		}

		created := make([]inventory.InventoryBatch, 0, len(plan.Lines))
		for _, line := range plan.Lines {
			source := sources[line.BatchID]
			batch, err := inventory.NewInventoryBatch(req.ProductID, req.ToWarehouseID,
				transferBatchNumber(line.BatchNumber, req.ReferenceID),
				line.QuantityTaken, line.UnitCost, source.ReceivedDate, line.ExpiryDate)
			if err != nil {
				return err
			}
			batch.SourceID = req.ReferenceID
			if err := tx.Create(models.InventoryBatchModelFromDomain(batch)).Error; err != nil {
				return err
			}
			movement, err := appendMovement(tx, batch, inventory.MovementTypeTransfer, line.QuantityTaken,
				req.ReferenceID, "", req.CreatedBy)
			if err != nil {
				return err
			}
			created = append(created, *batch)
			movements = append(movements, *movement)
		}
		outcome = &inventory.TransferOutcome{Plan: plan, Created: created, Movements: movements}
		return nil
	})
	if err != nil {
		return nil, ledgerError("transfer", err)
	}
	return outcome, nil
}

// WriteOff retires an active batch. Its quantity stays on the row as a
// historical record and the movement removes it from the ledger.
func (l *GormStockLedger) WriteOff(ctx context.Context, req inventory.WriteOffRequest) (*inventory.WriteOffOutcome, error) {
	if req.Type != inventory.MovementTypeExpired && req.Type != inventory.MovementTypeDamaged {
		return nil, inventory.ErrInvalidMovement
	}

	var outcome *inventory.WriteOffOutcome
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.InventoryBatchModel
		if err := lockRows(tx).First(&model, "id = ?", req.BatchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", shared.ErrUnknownBatch, req.BatchID)
			}
			return err
		}
		batch := model.ToDomain()
		remaining := batch.Quantity

		var retire func() error = batch.MarkExpired
		if req.Type == inventory.MovementTypeDamaged {
			retire = batch.MarkDamaged
		}
		if err := retire(); err != nil {
			return err
		}
		res := tx.Model(&models.InventoryBatchModel{}).
			Where("id = ? AND status = ?", batch.ID, inventory.BatchStatusActive).
			Updates(map[string]interface{}{"status": batch.Status, "updated_at": batch.UpdatedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		outcome = &inventory.WriteOffOutcome{Batch: batch}
		if remaining.IsPositive() {
			movement, err := appendMovement(tx, batch, req.Type, remaining.Neg(), batch.ID.String(), req.Reason, req.CreatedBy)
			if err != nil {
				return err
			}
			outcome.Movement = movement
		}
		return nil
	})
	if err != nil {
		return nil, ledgerError("write off", err)
	}
	return outcome, nil
}

// consume plans FIFO over the locked active batches and applies each draw
// with a guarded decrement. It returns the drawn batches keyed by id.
func consume(tx *gorm.DB, req inventory.DecrementRequest) (*inventory.AllocationPlan, map[uuid.UUID]inventory.InventoryBatch, []inventory.StockMovement, error) {
	var rows []models.InventoryBatchModel
	if err := activeBatches(lockRows(tx), req.ProductID, req.WarehouseID).Find(&rows).Error; err != nil {
		return nil, nil, nil, err
	}
	batches := batchesToDomain(rows)
	plan, err := inventory.PlanAllocation(req.ProductID, req.WarehouseID, req.Quantity, batches)
	if err != nil {
		return nil, nil, nil, err
	}

	byID := make(map[uuid.UUID]inventory.InventoryBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	now := time.Now().UTC()
	movements := make([]inventory.StockMovement, 0, len(plan.Lines))
	for _, line := range plan.Lines {
		res := tx.Model(&models.InventoryBatchModel{}).
			Where("id = ? AND status = ? AND quantity >= ?", line.BatchID, inventory.BatchStatusActive, line.QuantityTaken).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity - ?", line.QuantityTaken),
				"updated_at": now,
			})
		if res.Error != nil {
			return nil, nil, nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil, nil, shared.ErrConcurrencyConflict
		}
		batch := byID[line.BatchID]
		movement, err := appendMovement(tx, &batch, req.Type, line.QuantityTaken.Neg(), req.ReferenceID, req.Reason, req.CreatedBy)
		if err != nil {
			return nil, nil, nil, err
		}
		movements = append(movements, *movement)
	}
	return plan, byID, movements, nil
}

func appendMovement(tx *gorm.DB, batch *inventory.InventoryBatch, movementType inventory.MovementType, quantity decimal.Decimal, referenceID, reason, createdBy string) (*inventory.StockMovement, error) {
	movement, err := inventory.NewStockMovement(batch.ProductID, batch.WarehouseID, movementType, quantity, referenceID, reason)
	if err != nil {
		return nil, err
	}
	movement.WithBatch(batch.ID).WithUnitCost(batch.UnitCost).WithCreatedBy(createdBy)
	if err := tx.Create(models.StockMovementModelFromDomain(movement)).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func sumBatchMovements(tx *gorm.DB, batchID uuid.UUID, movementType inventory.MovementType) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&models.StockMovementModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("batch_id = ? AND movement_type = ?", batchID, movementType).
		Row().Scan(&total)
	return total, err
}

// lockRows adds FOR UPDATE where the dialect supports it
func lockRows(tx *gorm.DB) *gorm.DB {
	if supportsRowLocks(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func validateOutflow(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !inventory.IsWholeQuantity(quantity) {
		return inventory.ErrFractionalQuantity
	}
	return nil
}

// transferBatchNumber derives the destination batch number <orig>-T-<ref tail>,
// trimming the head of orig when the result would exceed the column width.
func transferBatchNumber(orig, referenceID string) string {
	tail := strings.ToUpper(strings.ReplaceAll(referenceID, "-", ""))
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	suffix := "-T-" + tail
	if over := len(orig) + len(suffix) - maxBatchNumberLength; over > 0 {
		orig = orig[over:]
	}
	return orig + suffix
}

// ledgerError keeps domain errors as they are and wraps infrastructure ones
func ledgerError(op string, err error) error {
	var domainErr *shared.DomainError
	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) || errors.As(err, &domainErr) {
		return err
	}
	return translateError(op, err)
}
