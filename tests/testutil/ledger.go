package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is a fully wired store over a private in-memory sqlite database
type Ledger struct {
	DB         *gorm.DB
	Products   *persistence.GormProductRepository
	Usage      *persistence.GormUOMUsageChecker
	Suppliers  *persistence.GormSupplierRepository
	Warehouses *persistence.GormWarehouseRepository
	Batches    *persistence.GormBatchRepository
	Movements  *persistence.GormMovementRepository
	Vouchers   *persistence.GormPurchaseVoucherRepository
	Orders     *persistence.GormSalesOrderRepository
	Payables   *persistence.GormAccountPayableRepository
	Stock      *persistence.GormStockLedger
}

// NewSQLiteDB opens a private in-memory sqlite database with every table migrated
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := persistence.NewSQLiteDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.DB.AutoMigrate(models.AllModels()...), "Failed to migrate schema")
	return db.DB
}

// NewLedger wires every repository and the stock ledger over db. A nil db
// opens a fresh sqlite database.
func NewLedger(t *testing.T, db *gorm.DB) *Ledger {
	t.Helper()
	if db == nil {
		db = NewSQLiteDB(t)
	}
	return &Ledger{
		DB:         db,
		Products:   persistence.NewGormProductRepository(db),
		Usage:      persistence.NewGormUOMUsageChecker(db),
		Suppliers:  persistence.NewGormSupplierRepository(db),
		Warehouses: persistence.NewGormWarehouseRepository(db),
		Batches:    persistence.NewGormBatchRepository(db),
		Movements:  persistence.NewGormMovementRepository(db),
		Vouchers:   persistence.NewGormPurchaseVoucherRepository(db),
		Orders:     persistence.NewGormSalesOrderRepository(db),
		Payables:   persistence.NewGormAccountPayableRepository(db),
		Stock:      persistence.NewGormStockLedger(db, zap.NewNop()),
	}
}

// Product saves a product with a base unit and extra units given as name/rate
// pairs, e.g. Product(t, "COLA", "can", "case", 24).
func (l *Ledger) Product(t *testing.T, code, baseUOM string, units ...interface{}) *catalog.Product {
	t.Helper()
	require.Zero(t, len(units)%2, "units must be name/rate pairs")

	uoms := catalog.UOMList{catalog.NewBaseUOM(baseUOM)}
	for i := 0; i < len(units); i += 2 {
		name := units[i].(string)
		rate := toDecimal(t, units[i+1])
		var err error
		uoms, err = uoms.Add(catalog.NewUOM(name, rate))
		require.NoError(t, err)
	}
	p, err := catalog.NewProduct(code, code+" product", baseUOM, uoms)
	require.NoError(t, err)
	require.NoError(t, l.Products.Save(context.Background(), p))
	p.ClearDomainEvents()
	return p
}

// Warehouse saves an active warehouse
func (l *Ledger) Warehouse(t *testing.T, code string) *partner.Warehouse {
	t.Helper()
	w, err := partner.NewWarehouse(code, code+" warehouse")
	require.NoError(t, err)
	require.NoError(t, l.Warehouses.Save(context.Background(), w))
	return w
}

// Supplier saves an active supplier with the given payment term
func (l *Ledger) Supplier(t *testing.T, code string, paymentTermDays int) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier(code, code+" supplier", paymentTermDays)
	require.NoError(t, err)
	require.NoError(t, l.Suppliers.Save(context.Background(), s))
	return s
}

// AddStock adds qty base units of product to warehouse as a new batch through
// the ledger, so the matching movement is written too.
func (l *Ledger) AddStock(t *testing.T, productID, warehouseID uuid.UUID, qty interface{}, expiry *time.Time) *inventory.InventoryBatch {
	t.Helper()
	outcome, err := l.Stock.Increase(context.Background(), inventory.IncreaseRequest{
		ProductID:   productID,
		WarehouseID: warehouseID,
		BatchNumber: "B-" + uuid.NewString()[:8],
		Quantity:    toDecimal(t, qty),
		UnitCost:    decimal.NewFromInt(1),
		ExpiryDate:  expiry,
		Type:        inventory.MovementTypeAdjustment,
		ReferenceID: "fixture",
		Reason:      "fixture stock",
	})
	require.NoError(t, err)
	return outcome.Batch
}

// RequireBalanced asserts the movement sum equals the active batch sum for
// product in warehouse, and returns it.
func (l *Ledger) RequireBalanced(t *testing.T, productID, warehouseID uuid.UUID) decimal.Decimal {
	t.Helper()
	ctx := context.Background()

	fromMovements, err := l.Movements.SumQuantity(ctx, productID, warehouseID)
	require.NoError(t, err)
	onHand, err := l.Batches.SumActive(ctx, warehouseID, []uuid.UUID{productID})
	require.NoError(t, err)

	require.True(t, fromMovements.Equal(onHand[productID]),
		"movement sum %s != batch sum %s", fromMovements, onHand[productID])
	return fromMovements
}

func toDecimal(t *testing.T, v interface{}) decimal.Decimal {
	t.Helper()
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case string:
		return decimal.RequireFromString(x)
	case decimal.Decimal:
		return x
	default:
		t.Fatalf("unsupported quantity type %T", v)
		return decimal.Zero
	}
}
