package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCola(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("cola", "Cola 330ml", "can", catalog.UOMList{
		catalog.NewBaseUOM("can"),
		catalog.NewUOM("case", decimal.NewFromInt(24)),
	})
	require.NoError(t, err)
	return p
}

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormProductRepository(db)

	cola := newCola(t)
	require.NoError(t, repo.Save(ctx, cola))

	t.Run("round trips unit list", func(t *testing.T) {
		found, err := repo.FindByID(ctx, cola.ID)
		require.NoError(t, err)
		assert.Equal(t, "COLA", found.Code)
		require.Len(t, found.UOMs, 2)

		base, err := found.ToBase(decimal.NewFromInt(2), "CASE")
		require.NoError(t, err)
		assert.True(t, base.Equal(qty(48)))
	})

	t.Run("find by ids skips missing", func(t *testing.T) {
		found, err := repo.FindByIDs(ctx, []uuid.UUID{cola.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, cola.ID, found[0].ID)

		empty, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("exists by code", func(t *testing.T) {
		ok, err := repo.ExistsByCode(ctx, "cola")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByCode(ctx, "water")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("updated units persist", func(t *testing.T) {
		require.NoError(t, cola.AddUOM(catalog.NewUOM("six-pack", decimal.NewFromInt(6))))
		require.NoError(t, repo.Save(ctx, cola))

		found, err := repo.FindByCode(ctx, "COLA")
		require.NoError(t, err)
		assert.True(t, found.UOMs.Has("six-pack"))
	})

	t.Run("lists with total", func(t *testing.T) {
		list, total, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, list, 1)
	})
}

func saveVoucher(t *testing.T, db *gorm.DB, product *catalog.Product, lines ...int64) *trade.PurchaseVoucher {
	t.Helper()
	v, err := trade.NewPurchaseVoucher("PV-"+uuid.NewString()[:8], uuid.New(), uuid.New())
	require.NoError(t, err)
	for _, n := range lines {
		_, err := v.AddLine(product, qty(n), "case", decimal.NewFromFloat(12.5), daysFromNow(90))
		require.NoError(t, err)
	}
	require.NoError(t, NewGormPurchaseVoucherRepository(db).Save(context.Background(), v))
	return v
}

func TestGormPurchaseVoucherRepository_Save(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormPurchaseVoucherRepository(db)
	cola := newCola(t)

	v := saveVoucher(t, db, cola, 1, 2, 3)

	loaded, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 3)
	for i, n := range []int64{1, 2, 3} {
		assert.True(t, loaded.Lines[i].Quantity.Equal(qty(n)), "line %d keeps its position", i)
		assert.True(t, loaded.Lines[i].BaseQuantity.Equal(qty(n*24)))
	}

	require.NoError(t, loaded.RemoveLine(loaded.Lines[1].ID))
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.FindByNumber(ctx, v.VoucherNumber)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 2)
	assert.True(t, reloaded.Lines[0].Quantity.Equal(qty(1)))
	assert.True(t, reloaded.Lines[1].Quantity.Equal(qty(3)))

	var stored int64
	require.NoError(t, db.Table("purchase_voucher_lines").Where("voucher_id = ?", v.ID).Count(&stored).Error)
	assert.Equal(t, int64(2), stored)
}

func TestGormPurchaseVoucherRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormPurchaseVoucherRepository(db)
	cola := newCola(t)

	first := saveVoucher(t, db, cola, 1)
	saveVoucher(t, db, cola, 1)

	pending := trade.VoucherStatusPending
	require.NoError(t, first.Submit())
	require.NoError(t, repo.Save(ctx, first))

	list, total, err := repo.FindAll(ctx, trade.VoucherFilter{
		Filter: shared.Filter{Page: 1, PageSize: 10},
		Status: &pending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestGormUOMUsageChecker(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cola := newCola(t)
	saveVoucher(t, db, cola, 1, 4)

	checker := NewGormUOMUsageChecker(db)

	n, err := checker.CountLinesUsingUOM(ctx, cola.ID, "CASE")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = checker.CountLinesUsingUOM(ctx, cola.ID, "can")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGormAccountPayableRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAccountPayableRepository(newTestDB(t))
	now := time.Now().UTC()
	supplierID := uuid.New()

	overdue, err := finance.NewAccountPayable(supplierID, uuid.New(), "PV-1", decimal.NewFromInt(100), now.AddDate(0, 0, -3))
	require.NoError(t, err)
	older, err := finance.NewAccountPayable(supplierID, uuid.New(), "PV-2", decimal.NewFromInt(50), now.AddDate(0, 0, -10))
	require.NoError(t, err)
	future, err := finance.NewAccountPayable(supplierID, uuid.New(), "PV-3", decimal.NewFromInt(75), now.AddDate(0, 0, 30))
	require.NoError(t, err)
	for _, ap := range []*finance.AccountPayable{overdue, older, future} {
		require.NoError(t, repo.Save(ctx, ap))
	}

	t.Run("one payable per source", func(t *testing.T) {
		dup, err := finance.NewAccountPayable(supplierID, overdue.SourceID, "PV-1", decimal.NewFromInt(100), now)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("find by source", func(t *testing.T) {
		found, err := repo.FindBySource(ctx, future.SourceID)
		require.NoError(t, err)
		assert.Equal(t, future.ID, found.ID)
		assert.True(t, found.Amount.Equal(decimal.NewFromInt(75)))
	})

	t.Run("overdue candidates oldest first", func(t *testing.T) {
		candidates, err := repo.FindOverdueCandidates(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, older.ID, candidates[0].ID)
		assert.Equal(t, overdue.ID, candidates[1].ID)

		limited, err := repo.FindOverdueCandidates(ctx, now, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("paid payables drop out", func(t *testing.T) {
		require.NoError(t, older.MarkPaid(now))
		require.NoError(t, repo.Save(ctx, older))

		candidates, err := repo.FindOverdueCandidates(ctx, now, 0)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, overdue.ID, candidates[0].ID)

		status := finance.PayableStatusPaid
		paid, total, err := repo.FindAll(ctx, finance.PayableFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10},
			Status: &status,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, older.ID, paid[0].ID)
	})
}
