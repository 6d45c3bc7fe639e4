package catalog

import (
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles products and their unit-of-measure lists
type ProductService struct {
	productRepo    catalog.ProductRepository
	usageChecker   catalog.UOMUsageChecker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	usageChecker catalog.UOMUsageChecker,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		usageChecker: usageChecker,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for product events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new product with its unit list
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this code already exists")
	}

	baseOnly := catalog.UOMList{catalog.NewBaseUOM(req.BaseUOM)}
	uoms := baseOnly
	for _, u := range req.UOMs {
		// the base unit may be echoed in the list with rate 1
		if baseOnly.Has(u.Name) {
			if !u.ConversionToBase.Equal(decimal.NewFromInt(1)) {
				return nil, catalog.ErrBaseUOMImmutable
			}
			continue
		}
		uoms, err = uoms.Add(catalog.NewUOM(u.Name, u.ConversionToBase))
		if err != nil {
			return nil, err
		}
	}

	product, err := catalog.NewProduct(req.Code, req.Name, req.BaseUOM, uoms)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
		zap.Strings("uoms", product.UOMs.Names()),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

// Get returns a product by ID
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns products page by page
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	products, total, err := s.productRepo.FindAll(ctx, f.Where("status", filter.Status))
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses, total, nil
}

// AddUOM declares a new unit for a product
func (s *ProductService) AddUOM(ctx context.Context, id uuid.UUID, req UOMInput) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.AddUOM(catalog.NewUOM(req.Name, req.ConversionToBase))
	})
}

// UpdateUOM changes the conversion rate of a non-base unit. Existing order
// lines keep the factor they were recorded with.
func (s *ProductService) UpdateUOM(ctx context.Context, id uuid.UUID, name string, req UpdateUOMRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.UpdateUOMRate(name, req.ConversionToBase)
	})
}

// RemoveUOM drops a unit. When voucher or sales lines were recorded in that
// unit the removal still happens and a compatibility warning is returned.
func (s *ProductService) RemoveUOM(ctx context.Context, id uuid.UUID, name string) (*RemoveUOMResult, error) {
	resp, err := s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.RemoveUOM(name)
	})
	if err != nil {
		return nil, err
	}

	result := &RemoveUOMResult{Product: *resp}
	if s.usageChecker == nil {
		return result, nil
	}
	count, err := s.usageChecker.CountLinesUsingUOM(ctx, id, name)
	if err != nil {
		s.logger.Warn("failed to check historical unit usage",
			zap.String("product_id", id.String()),
			zap.String("uom", name),
			zap.Error(err),
		)
		result.Warning = &UOMCompatibilityWarning{
			UOM:        name,
			Unverified: true,
			Message:    fmt.Sprintf("could not verify whether recorded order lines use %q", name),
		}
		return result, nil
	}
	if count > 0 {
		result.Warning = &UOMCompatibilityWarning{
			UOM:       name,
			LineCount: count,
			Message:   fmt.Sprintf("%d order line(s) were recorded in %q and keep their original conversion factor", count, name),
		}
	}
	return result, nil
}

// Convert expresses a quantity of a product in another of its units
func (s *ProductService) Convert(ctx context.Context, id uuid.UUID, req ConvertRequest) (*ConvertResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	base, err := product.UOMs.ToBase(req.Quantity, req.From)
	if err != nil {
		return nil, err
	}
	converted, err := product.UOMs.Between(req.Quantity, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return &ConvertResponse{
		Quantity:     req.Quantity,
		From:         req.From,
		To:           req.To,
		Result:       converted,
		BaseQuantity: base,
	}, nil
}

func (s *ProductService) mutate(ctx context.Context, id uuid.UUID, apply func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) publish(ctx context.Context, p *catalog.Product) {
	events := p.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	p.ClearDomainEvents()
}
