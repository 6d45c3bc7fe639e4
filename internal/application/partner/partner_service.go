package partner

import (
	"context"

	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Code            string `json:"code" binding:"required,min=1,max=50"`
	Name            string `json:"name" binding:"required,min=1,max=200"`
	PaymentTermDays int    `json:"payment_term_days" binding:"min=0,max=365"`
}

// CreateWarehouseRequest represents a request to create a warehouse
type CreateWarehouseRequest struct {
	Code      string `json:"code" binding:"required,min=1,max=50"`
	Name      string `json:"name" binding:"required,min=1,max=200"`
	IsDefault bool   `json:"is_default"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	PaymentTermDays int       `json:"payment_term_days"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	IsDefault bool      `json:"is_default"`
}

// PartnerService manages the suppliers and warehouses vouchers refer to
type PartnerService struct {
	supplierRepo  partner.SupplierRepository
	warehouseRepo partner.WarehouseRepository
	logger        *zap.Logger
}

// NewPartnerService creates a new PartnerService
func NewPartnerService(supplierRepo partner.SupplierRepository, warehouseRepo partner.WarehouseRepository, logger *zap.Logger) *PartnerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerService{supplierRepo: supplierRepo, warehouseRepo: warehouseRepo, logger: logger}
}

// CreateSupplier registers a supplier
func (s *PartnerService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := partner.NewSupplier(req.Code, req.Name, req.PaymentTermDays)
	if err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	s.logger.Info("supplier created", zap.String("supplier_id", supplier.ID.String()), zap.String("code", supplier.Code))
	resp := toSupplierResponse(supplier)
	return &resp, nil
}

// GetSupplier returns a supplier by ID
func (s *PartnerService) GetSupplier(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toSupplierResponse(supplier)
	return &resp, nil
}

// ListSuppliers returns suppliers page by page
func (s *PartnerService) ListSuppliers(ctx context.Context, filter shared.Filter) ([]SupplierResponse, int64, error) {
	suppliers, total, err := s.supplierRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		out[i] = toSupplierResponse(&suppliers[i])
	}
	return out, total, nil
}

// CreateWarehouse registers a warehouse
func (s *PartnerService) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	warehouse, err := partner.NewWarehouse(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.IsDefault {
		warehouse.SetDefault(true)
	}
	if err := s.warehouseRepo.Save(ctx, warehouse); err != nil {
		return nil, err
	}
	s.logger.Info("warehouse created", zap.String("warehouse_id", warehouse.ID.String()), zap.String("code", warehouse.Code))
	resp := toWarehouseResponse(warehouse)
	return &resp, nil
}

// GetWarehouse returns a warehouse by ID
func (s *PartnerService) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseResponse, error) {
	warehouse, err := s.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toWarehouseResponse(warehouse)
	return &resp, nil
}

// ListWarehouses returns warehouses page by page
func (s *PartnerService) ListWarehouses(ctx context.Context, filter shared.Filter) ([]WarehouseResponse, int64, error) {
	warehouses, total, err := s.warehouseRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		out[i] = toWarehouseResponse(&warehouses[i])
	}
	return out, total, nil
}

func toSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:              s.ID,
		Code:            s.Code,
		Name:            s.Name,
		Status:          string(s.Status),
		PaymentTermDays: s.PaymentTermDays,
	}
}

func toWarehouseResponse(w *partner.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Status:    string(w.Status),
		IsDefault: w.IsDefault,
	}
}
