package trade

import (
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoucherService manages purchase vouchers up to the point of receiving
type VoucherService struct {
	voucherRepo    trade.PurchaseVoucherRepository
	productRepo    catalog.ProductRepository
	supplierRepo   partner.SupplierRepository
	warehouseRepo  partner.WarehouseRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	voucherRepo trade.PurchaseVoucherRepository,
	productRepo catalog.ProductRepository,
	supplierRepo partner.SupplierRepository,
	warehouseRepo partner.WarehouseRepository,
	logger *zap.Logger,
) *VoucherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoucherService{
		voucherRepo:   voucherRepo,
		productRepo:   productRepo,
		supplierRepo:  supplierRepo,
		warehouseRepo: warehouseRepo,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for voucher events
func (s *VoucherService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create drafts a voucher with its initial lines
func (s *VoucherService) Create(ctx context.Context, req CreateVoucherRequest) (*VoucherResponse, error) {
	if _, err := s.supplierRepo.FindByID(ctx, req.SupplierID); err != nil {
		return nil, fmt.Errorf("supplier %s: %w", req.SupplierID, err)
	}
	if _, err := s.warehouseRepo.FindByID(ctx, req.WarehouseID); err != nil {
		return nil, fmt.Errorf("warehouse %s: %w", req.WarehouseID, err)
	}

	number := req.VoucherNumber
	if number == "" {
		number = generateNumber("PV")
	}
	v, err := trade.NewPurchaseVoucher(number, req.SupplierID, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	v.Remark = req.Remark

	if err := s.applyLines(ctx, v, req.Lines); err != nil {
		return nil, err
	}
	if err := s.voucherRepo.Save(ctx, v); err != nil {
		return nil, err
	}
	s.publish(ctx, v)

	s.logger.Info("purchase voucher created",
		zap.String("voucher_id", v.ID.String()),
		zap.String("voucher_number", v.VoucherNumber),
		zap.Int("lines", len(v.Lines)),
	)
	resp := ToVoucherResponse(v)
	return &resp, nil
}

// Get returns a voucher with its lines
func (s *VoucherService) Get(ctx context.Context, id uuid.UUID) (*VoucherResponse, error) {
	v, err := s.voucherRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(v)
	return &resp, nil
}

// List returns vouchers matching the filter
func (s *VoucherService) List(ctx context.Context, filter VoucherListFilter) ([]VoucherResponse, int64, error) {
	f := trade.VoucherFilter{Filter: shared.DefaultFilter(), SupplierID: filter.SupplierID}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status := trade.VoucherStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Unknown voucher status: "+filter.Status)
		}
		f.Status = &status
	}
	vouchers, total, err := s.voucherRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]VoucherResponse, len(vouchers))
	for i := range vouchers {
		responses[i] = ToVoucherResponse(&vouchers[i])
	}
	return responses, total, nil
}

// ReplaceLines swaps every line of a draft or pending voucher
func (s *VoucherService) ReplaceLines(ctx context.Context, id uuid.UUID, req ReplaceLinesRequest) (*VoucherResponse, error) {
	v, err := s.voucherRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := v.ClearLines(); err != nil {
		return nil, err
	}
	if err := s.applyLines(ctx, v, req.Lines); err != nil {
		return nil, err
	}
	if err := s.voucherRepo.Save(ctx, v); err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(v)
	return &resp, nil
}

// Submit moves a draft voucher to pending
func (s *VoucherService) Submit(ctx context.Context, id uuid.UUID) (*VoucherResponse, error) {
	return s.transition(ctx, id, func(v *trade.PurchaseVoucher) error { return v.Submit() })
}

// MarkOrdered records that the voucher was sent to the supplier
func (s *VoucherService) MarkOrdered(ctx context.Context, id uuid.UUID) (*VoucherResponse, error) {
	return s.transition(ctx, id, func(v *trade.PurchaseVoucher) error { return v.MarkOrdered() })
}

// Cancel cancels a pending or ordered voucher
func (s *VoucherService) Cancel(ctx context.Context, id uuid.UUID, req CancelVoucherRequest) (*VoucherResponse, error) {
	return s.transition(ctx, id, func(v *trade.PurchaseVoucher) error { return v.Cancel(req.Reason) })
}

func (s *VoucherService) transition(ctx context.Context, id uuid.UUID, apply func(*trade.PurchaseVoucher) error) (*VoucherResponse, error) {
	v, err := s.voucherRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(v); err != nil {
		return nil, err
	}
	if err := s.voucherRepo.Save(ctx, v); err != nil {
		return nil, err
	}
	s.publish(ctx, v)
	resp := ToVoucherResponse(v)
	return &resp, nil
}

func (s *VoucherService) applyLines(ctx context.Context, v *trade.PurchaseVoucher, lines []VoucherLineInput) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := loadProducts(ctx, s.productRepo, ids)
	if err != nil {
		return err
	}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return unknownProduct(l.ProductID)
		}
		if _, err := v.AddLine(p, l.Quantity, l.UOM, l.UnitCost, l.ExpiryDate); err != nil {
			return err
		}
	}
	return nil
}

func (s *VoucherService) publish(ctx context.Context, v *trade.PurchaseVoucher) {
	events := v.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	v.ClearDomainEvents()
}
