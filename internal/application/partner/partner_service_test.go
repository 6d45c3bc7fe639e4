package partner

import (
	"context"
	"testing"

	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByCode(ctx context.Context, code string) (*partner.Supplier, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Supplier), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return m.Called(ctx, supplier).Error(0)
}

type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindByCode(ctx context.Context, code string) (*partner.Warehouse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Warehouse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Warehouse), args.Get(1).(int64), args.Error(2)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, warehouse *partner.Warehouse) error {
	return m.Called(ctx, warehouse).Error(0)
}

func TestPartnerService_CreateSupplier(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		suppliers := new(MockSupplierRepository)
		svc := NewPartnerService(suppliers, new(MockWarehouseRepository), nil)
		suppliers.On("Save", ctx, mock.AnythingOfType("*partner.Supplier")).Return(nil)

		resp, err := svc.CreateSupplier(ctx, CreateSupplierRequest{Code: "SUP-01", Name: "Acme Beverages", PaymentTermDays: 30})
		require.NoError(t, err)
		assert.Equal(t, 30, resp.PaymentTermDays)
		assert.Equal(t, "active", resp.Status)
		suppliers.AssertExpectations(t)
	})

	t.Run("payment term out of range", func(t *testing.T) {
		suppliers := new(MockSupplierRepository)
		svc := NewPartnerService(suppliers, new(MockWarehouseRepository), nil)

		_, err := svc.CreateSupplier(ctx, CreateSupplierRequest{Code: "SUP-01", Name: "Acme", PaymentTermDays: 400})
		require.Error(t, err)
		suppliers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate code surfaces repository error", func(t *testing.T) {
		suppliers := new(MockSupplierRepository)
		svc := NewPartnerService(suppliers, new(MockWarehouseRepository), nil)
		suppliers.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists)

		_, err := svc.CreateSupplier(ctx, CreateSupplierRequest{Code: "SUP-01", Name: "Acme"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestPartnerService_Warehouses(t *testing.T) {
	ctx := context.Background()

	t.Run("create default warehouse", func(t *testing.T) {
		warehouses := new(MockWarehouseRepository)
		svc := NewPartnerService(new(MockSupplierRepository), warehouses, nil)
		warehouses.On("Save", ctx, mock.MatchedBy(func(w *partner.Warehouse) bool {
			return w.IsDefault
		})).Return(nil)

		resp, err := svc.CreateWarehouse(ctx, CreateWarehouseRequest{Code: "WH-MAIN", Name: "Main store", IsDefault: true})
		require.NoError(t, err)
		assert.True(t, resp.IsDefault)
		warehouses.AssertExpectations(t)
	})

	t.Run("get missing warehouse", func(t *testing.T) {
		warehouses := new(MockWarehouseRepository)
		svc := NewPartnerService(new(MockSupplierRepository), warehouses, nil)
		id := uuid.New()
		warehouses.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := svc.GetWarehouse(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		warehouses := new(MockWarehouseRepository)
		svc := NewPartnerService(new(MockSupplierRepository), warehouses, nil)
		a, err := partner.NewWarehouse("WH-A", "A")
		require.NoError(t, err)
		b, err := partner.NewWarehouse("WH-B", "B")
		require.NoError(t, err)
		filter := shared.DefaultFilter()
		warehouses.On("FindAll", ctx, filter).Return([]partner.Warehouse{*a, *b}, int64(2), nil)

		items, total, err := svc.ListWarehouses(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, "WH-A", items[0].Code)
	})
}
