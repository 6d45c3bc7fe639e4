package trade

import (
	"context"
	"fmt"
	"time"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Workflow step names reported in StepFailure.Step
const (
	StepValidateProduct = "validate_product"
	StepApplyLine       = "apply_line"
	StepCreatePayable   = "create_payable"
	StepDecrementStock  = "decrement_stock"
)

// ReceivingConfig holds the tunables of the receiving workflow
type ReceivingConfig struct {
	LockTTL                time.Duration
	DefaultPaymentTermDays int
}

// DefaultReceivingConfig returns the defaults used when no config is supplied
func DefaultReceivingConfig() ReceivingConfig {
	return ReceivingConfig{
		LockTTL:                30 * time.Second,
		DefaultPaymentTermDays: 30,
	}
}

// ReceivingWorkflow turns a purchase voucher into stock and a payable
type ReceivingWorkflow struct {
	voucherRepo    trade.PurchaseVoucherRepository
	productRepo    catalog.ProductRepository
	supplierRepo   partner.SupplierRepository
	payableRepo    finance.AccountPayableRepository
	ledger         inventory.StockLedger
	locker         shared.Locker
	recorder       *inventoryapp.MovementRecorder
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	config         ReceivingConfig
	logger         *zap.Logger
}

// NewReceivingWorkflow creates a new ReceivingWorkflow
func NewReceivingWorkflow(
	voucherRepo trade.PurchaseVoucherRepository,
	productRepo catalog.ProductRepository,
	supplierRepo partner.SupplierRepository,
	payableRepo finance.AccountPayableRepository,
	ledger inventory.StockLedger,
	locker shared.Locker,
	config ReceivingConfig,
	logger *zap.Logger,
) *ReceivingWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultReceivingConfig().LockTTL
	}
	return &ReceivingWorkflow{
		voucherRepo:  voucherRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		payableRepo:  payableRepo,
		ledger:       ledger,
		locker:       locker,
		config:       config,
		logger:       logger,
	}
}

// SetRecorder sets the recorder that announces ledger movements
func (w *ReceivingWorkflow) SetRecorder(recorder *inventoryapp.MovementRecorder) {
	w.recorder = recorder
}

// SetEventPublisher sets the event publisher for voucher and payable events
func (w *ReceivingWorkflow) SetEventPublisher(publisher shared.EventPublisher) {
	w.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics sink
func (w *ReceivingWorkflow) SetMetrics(metrics *telemetry.LedgerMetrics) {
	w.metrics = metrics
}

// Receive applies every line of a voucher to stock, raises the payable and
// marks the voucher received. A failed line does not stop the others and is
// never rolled back; it is listed in ReceiveResult.Warning and a later
// Receive call applies whatever is still missing.
func (w *ReceivingWorkflow) Receive(ctx context.Context, voucherID uuid.UUID, createdBy string) (*ReceiveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "receive",
		telemetry.WithAttribute(telemetry.SpanAttrVoucherID, voucherID.String()))
	defer span.End()

	lock, err := w.locker.Obtain(ctx, "stockledger:receive:"+voucherID.String(), w.config.LockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			w.logger.Warn("failed to release receive lock",
				zap.String("voucher_id", voucherID.String()),
				zap.Error(err),
			)
		}
	}()

	v, err := w.voucherRepo.FindByID(ctx, voucherID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !v.CanReceive() {
		err := shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot receive voucher in %s status", v.Status))
		telemetry.RecordError(span, err)
		return nil, err
	}

	products, err := loadProducts(ctx, w.productRepo, v.ProductIDs())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	receivedAt := time.Now().UTC()
	if v.ReceivedDate != nil {
		receivedAt = *v.ReceivedDate
	}

	w.logger.Info("receiving purchase voucher",
		zap.String("voucher_id", v.ID.String()),
		zap.String("voucher_number", v.VoucherNumber),
		zap.String("status", string(v.Status)),
		zap.Int("lines", len(v.Lines)),
	)

	result := &ReceiveResult{Lines: make([]ReceiveLineResult, 0, len(v.Lines))}
	failures := make([]shared.StepFailure, 0)
	succeeded, applied, skipped := 0, 0, 0

	for i := range v.Lines {
		line := v.Lines[i]
		lr := ReceiveLineResult{
			LineID:      line.ID,
			ProductID:   line.ProductID,
			BatchNumber: inventory.DeterministicBatchNumber(v.ID, line.ID),
			Applied:     decimal.Zero,
		}

		if _, ok := products[line.ProductID]; !ok {
			lineErr := unknownProduct(line.ProductID)
			w.logger.Error("failed to receive line: unknown product",
				zap.String("voucher_id", v.ID.String()),
				zap.String("line_id", line.ID.String()),
				zap.String("product_id", line.ProductID.String()),
			)
			lr.Err, lr.Error = lineErr, lineErr.Error()
			result.Lines = append(result.Lines, lr)
			failures = append(failures, shared.StepFailure{
				Step: StepValidateProduct, Target: line.ID.String(), Reason: lineErr.Error(), Err: lineErr,
			})
			continue
		}

		outcome, err := w.ledger.Receive(ctx, inventory.ReceiptEntry{
			ProductID:    line.ProductID,
			WarehouseID:  v.WarehouseID,
			BatchNumber:  lr.BatchNumber,
			Quantity:     line.BaseQuantity,
			UnitCost:     line.BaseUnitCost(),
			ReceivedDate: receivedAt,
			ExpiryDate:   line.ExpiryDate,
			ReferenceID:  v.ID.String(),
			CreatedBy:    createdBy,
		})
		if err != nil {
			w.logger.Error("failed to receive line",
				zap.String("voucher_id", v.ID.String()),
				zap.String("line_id", line.ID.String()),
				zap.String("product_id", line.ProductID.String()),
				zap.String("base_quantity", line.BaseQuantity.String()),
				zap.Error(err),
			)
			lr.Err, lr.Error = err, err.Error()
			result.Lines = append(result.Lines, lr)
			failures = append(failures, shared.StepFailure{
				Step: StepApplyLine, Target: line.ID.String(), Reason: err.Error(), Err: err,
			})
			continue
		}

		succeeded++
		if outcome.Batch != nil {
			id := outcome.Batch.ID
			lr.BatchID = &id
		}
		lr.Applied = outcome.Applied
		lr.Skipped = outcome.Skipped
		if outcome.Skipped {
			skipped++
		} else {
			applied++
		}
		if outcome.Movement != nil && w.recorder != nil {
			w.recorder.Observe(ctx, *outcome.Movement)
		}
		if missing := line.BaseQuantity.Sub(line.ReceivedQuantity); missing.IsPositive() {
			if err := v.RecordLineReceipt(line.ID, missing); err != nil {
				w.logger.Warn("failed to record line receipt on voucher",
					zap.String("voucher_id", v.ID.String()),
					zap.String("line_id", line.ID.String()),
					zap.String("quantity", missing.String()),
					zap.Error(err),
				)
			}
		}
		result.Lines = append(result.Lines, lr)

		w.logger.Debug("voucher line received",
			zap.String("line_id", line.ID.String()),
			zap.String("batch_number", lr.BatchNumber),
			zap.String("applied", lr.Applied.String()),
			zap.Bool("skipped", lr.Skipped),
		)
	}

	payable, err := w.ensurePayable(ctx, v, receivedAt)
	if err != nil {
		w.logger.Error("failed to create payable",
			zap.String("voucher_id", v.ID.String()),
			zap.Error(err),
		)
		failures = append(failures, shared.StepFailure{
			Step: StepCreatePayable, Target: v.ID.String(), Reason: err.Error(), Err: err,
		})
	} else {
		succeeded++
		result.Payable = payable
	}

	if err := v.MarkReceived(receivedAt); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := w.voucherRepo.Save(ctx, v); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save received voucher: %w", err)
	}
	w.publish(ctx, v.GetDomainEvents()...)
	v.ClearDomainEvents()

	result.Voucher = ToVoucherResponse(v)
	result.Warning = shared.NewPartialWorkflowFailure("receive", succeeded, failures)
	w.metrics.RecordReceipt(ctx, applied, skipped, len(failures))

	w.logger.Info("purchase voucher receiving completed",
		zap.String("voucher_id", v.ID.String()),
		zap.Int("total_lines", len(v.Lines)),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("failed", len(failures)),
	)
	if result.Warning != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrFailed, len(failures))
	} else {
		telemetry.SetOK(span)
	}
	return result, nil
}

// ensurePayable returns the voucher's payable, creating it on first receipt
func (w *ReceivingWorkflow) ensurePayable(ctx context.Context, v *trade.PurchaseVoucher, receivedAt time.Time) (*PayableSummary, error) {
	existing, err := w.payableRepo.FindBySource(ctx, v.ID)
	if err == nil {
		return &PayableSummary{
			ID:      existing.ID,
			Amount:  existing.Amount,
			DueDate: existing.DueDate,
			Status:  string(existing.Status),
		}, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	terms := w.config.DefaultPaymentTermDays
	supplier, err := w.supplierRepo.FindByID(ctx, v.SupplierID)
	switch {
	case err == nil:
		terms = supplier.PaymentTermDays
	case isNotFound(err):
		w.logger.Warn("supplier not found, using default payment terms",
			zap.String("supplier_id", v.SupplierID.String()),
			zap.Int("payment_term_days", terms),
		)
	default:
		return nil, err
	}

	ap, err := finance.NewAccountPayable(v.SupplierID, v.ID, v.VoucherNumber, v.TotalAmount, receivedAt.AddDate(0, 0, terms))
	if err != nil {
		return nil, err
	}
	if err := w.payableRepo.Save(ctx, ap); err != nil {
		return nil, err
	}
	w.publish(ctx, ap.GetDomainEvents()...)
	ap.ClearDomainEvents()

	return &PayableSummary{
		ID:      ap.ID,
		Amount:  ap.Amount,
		DueDate: ap.DueDate,
		Status:  string(ap.Status),
		Created: true,
	}, nil
}

func (w *ReceivingWorkflow) publish(ctx context.Context, events ...shared.DomainEvent) {
	if w.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := w.eventPublisher.Publish(ctx, events...); err != nil {
		w.logger.Warn("failed to publish receiving events", zap.Error(err))
	}
}
