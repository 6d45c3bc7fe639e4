package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type failingPayableRepo struct {
	finance.AccountPayableRepository
}

func (failingPayableRepo) Save(context.Context, *finance.AccountPayable) error {
	return errors.New("connection reset")
}

// flakyReceiptLedger fails Receive for the listed products
type flakyReceiptLedger struct {
	inventory.StockLedger
	failFor map[uuid.UUID]bool
}

func (f *flakyReceiptLedger) Receive(ctx context.Context, entry inventory.ReceiptEntry) (*inventory.ReceiptOutcome, error) {
	if f.failFor[entry.ProductID] {
		return nil, errors.New("could not create batch")
	}
	return f.StockLedger.Receive(ctx, entry)
}

type receivingFixture struct {
	l        *testutil.Ledger
	locker   *cache.LocalLocker
	workflow *ReceivingWorkflow
	supplier *partner.Supplier
	wh       *partner.Warehouse
}

func newReceivingFixture(t *testing.T) *receivingFixture {
	t.Helper()
	l := testutil.NewLedger(t, nil)
	locker := cache.NewLocalLocker()
	f := &receivingFixture{
		l:        l,
		locker:   locker,
		supplier: l.Supplier(t, "ACME", 45),
		wh:       l.Warehouse(t, "WH-1"),
	}
	f.workflow = NewReceivingWorkflow(l.Vouchers, l.Products, l.Suppliers, l.Payables, l.Stock, locker,
		DefaultReceivingConfig(), nil)
	return f
}

// pendingVoucher saves a submitted voucher with one line per product
func (f *receivingFixture) pendingVoucher(t *testing.T, lines ...voucherLine) *trade.PurchaseVoucher {
	t.Helper()
	v, err := trade.NewPurchaseVoucher("PV-"+time.Now().Format("150405.000000"), f.supplier.ID, f.wh.ID)
	require.NoError(t, err)
	for _, ln := range lines {
		_, err := v.AddLine(ln.product, d(ln.qty), ln.uom, d(ln.cost), nil)
		require.NoError(t, err)
	}
	require.NoError(t, v.Submit())
	require.NoError(t, f.l.Vouchers.Save(context.Background(), v))
	v.ClearDomainEvents()
	return v
}

type voucherLine struct {
	product *catalog.Product
	qty     string
	uom     string
	cost    string
}

func TestReceivingWorkflow_Receive(t *testing.T) {
	ctx := context.Background()
	f := newReceivingFixture(t)
	cola := f.l.Product(t, "COLA", "can", "case", 24)
	chips := f.l.Product(t, "CHIPS", "bag")
	v := f.pendingVoucher(t,
		voucherLine{product: cola, qty: "2", uom: "case", cost: "12"},
		voucherLine{product: chips, qty: "10", uom: "bag", cost: "1.5"},
	)

	result, err := f.workflow.Receive(ctx, v.ID, "clerk")
	require.NoError(t, err)
	assert.Nil(t, result.Warning)
	assert.Equal(t, string(trade.VoucherStatusReceived), result.Voucher.Status)
	require.Len(t, result.Lines, 2)
	assert.True(t, result.Lines[0].Applied.Equal(d("48")))
	assert.True(t, result.Lines[1].Applied.Equal(d("10")))

	require.NotNil(t, result.Payable)
	assert.True(t, result.Payable.Created)
	assert.True(t, result.Payable.Amount.Equal(d("39")))
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 45), result.Payable.DueDate, time.Minute)

	assert.True(t, f.l.RequireBalanced(t, cola.ID, f.wh.ID).Equal(d("48")))
	assert.True(t, f.l.RequireBalanced(t, chips.ID, f.wh.ID).Equal(d("10")))

	batches, err := f.l.Batches.ListActive(ctx, cola.ID, f.wh.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, inventory.DeterministicBatchNumber(v.ID, v.Lines[0].ID), batches[0].BatchNumber)
	assert.True(t, batches[0].UnitCost.Equal(d("0.5")))

	t.Run("receiving again changes nothing", func(t *testing.T) {
		again, err := f.workflow.Receive(ctx, v.ID, "clerk")
		require.NoError(t, err)
		assert.Nil(t, again.Warning)
		for _, lr := range again.Lines {
			assert.True(t, lr.Skipped)
		}
		assert.False(t, again.Payable.Created)
		assert.Equal(t, result.Payable.ID, again.Payable.ID)
		assert.True(t, f.l.RequireBalanced(t, cola.ID, f.wh.ID).Equal(d("48")))
	})
}

func TestReceivingWorkflow_RetryAfterUnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newReceivingFixture(t)
	cola := f.l.Product(t, "COLA", "can", "case", 24)

	// not saved yet
	late, err := catalog.NewProduct("WATER", "Water", "bottle", catalog.UOMList{catalog.NewBaseUOM("bottle")})
	require.NoError(t, err)

	v := f.pendingVoucher(t,
		voucherLine{product: cola, qty: "1", uom: "case", cost: "12"},
		voucherLine{product: late, qty: "6", uom: "bottle", cost: "1"},
	)

	first, err := f.workflow.Receive(ctx, v.ID, "clerk")
	require.NoError(t, err)
	require.NotNil(t, first.Warning)
	require.Len(t, first.Warning.Failures, 1)
	assert.Equal(t, StepValidateProduct, first.Warning.Failures[0].Step)
	assert.ErrorIs(t, first.Lines[1].Err, shared.ErrUnknownProduct)
	assert.ErrorIs(t, first.Warning, shared.ErrPartialFailure)
	assert.Equal(t, string(trade.VoucherStatusReceived), first.Voucher.Status)
	require.NotNil(t, first.Payable)

	require.NoError(t, f.l.Products.Save(ctx, late))

	second, err := f.workflow.Receive(ctx, v.ID, "clerk")
	require.NoError(t, err)
	assert.Nil(t, second.Warning)
	assert.True(t, second.Lines[0].Skipped)
	assert.False(t, second.Lines[1].Skipped)
	assert.True(t, second.Lines[1].Applied.Equal(d("6")))
	assert.False(t, second.Payable.Created)
	assert.Equal(t, first.Payable.ID, second.Payable.ID)

	assert.True(t, f.l.RequireBalanced(t, cola.ID, f.wh.ID).Equal(d("24")))
	assert.True(t, f.l.RequireBalanced(t, late.ID, f.wh.ID).Equal(d("6")))

	payables, total, err := f.l.Payables.FindAll(ctx, finance.PayableFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, payables, 1)
}

func TestReceivingWorkflow_RetryAfterBatchFailure(t *testing.T) {
	ctx := context.Background()
	f := newReceivingFixture(t)
	a := f.l.Product(t, "A", "pcs")
	b := f.l.Product(t, "B", "pcs")
	c := f.l.Product(t, "C", "pcs")

	ledger := &flakyReceiptLedger{StockLedger: f.l.Stock, failFor: map[uuid.UUID]bool{b.ID: true}}
	workflow := NewReceivingWorkflow(f.l.Vouchers, f.l.Products, f.l.Suppliers, f.l.Payables, ledger, f.locker,
		DefaultReceivingConfig(), nil)

	v := f.pendingVoucher(t,
		voucherLine{product: a, qty: "3", uom: "pcs", cost: "1"},
		voucherLine{product: b, qty: "4", uom: "pcs", cost: "1"},
		voucherLine{product: c, qty: "5", uom: "pcs", cost: "1"},
	)

	first, err := workflow.Receive(ctx, v.ID, "clerk")
	require.NoError(t, err)
	require.NotNil(t, first.Warning)
	require.Len(t, first.Warning.Failures, 1)
	assert.Equal(t, StepApplyLine, first.Warning.Failures[0].Step)
	assert.Equal(t, v.Lines[1].ID.String(), first.Warning.Failures[0].Target)
	assert.True(t, f.l.RequireBalanced(t, a.ID, f.wh.ID).Equal(d("3")))
	assert.True(t, f.l.RequireBalanced(t, b.ID, f.wh.ID).IsZero())
	assert.True(t, f.l.RequireBalanced(t, c.ID, f.wh.ID).Equal(d("5")))

	ledger.failFor = nil
	second, err := workflow.Receive(ctx, v.ID, "clerk")
	require.NoError(t, err)
	assert.Nil(t, second.Warning)
	require.Len(t, second.Lines, 3)
	assert.True(t, second.Lines[0].Skipped)
	assert.True(t, second.Lines[1].Applied.Equal(d("4")))
	assert.True(t, second.Lines[2].Skipped)

	batches, err := f.l.Batches.ListActive(ctx, a.ID, f.wh.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.True(t, batches[0].Quantity.Equal(d("3")))
	assert.True(t, f.l.RequireBalanced(t, b.ID, f.wh.ID).Equal(d("4")))
	assert.True(t, f.l.RequireBalanced(t, c.ID, f.wh.ID).Equal(d("5")))
}

func TestReceivingWorkflow_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newReceivingFixture(t)
	cola := f.l.Product(t, "COLA", "can", "case", 24)

	t.Run("voucher already being received", func(t *testing.T) {
		v := f.pendingVoucher(t, voucherLine{product: cola, qty: "1", uom: "case", cost: "12"})
		held, err := f.locker.Obtain(ctx, "stockledger:receive:"+v.ID.String(), time.Minute)
		require.NoError(t, err)
		defer func() { _ = held.Release(ctx) }()

		_, err = f.workflow.Receive(ctx, v.ID, "clerk")
		assert.ErrorIs(t, err, shared.ErrLockNotObtained)
		assert.True(t, f.l.RequireBalanced(t, cola.ID, f.wh.ID).IsZero())
	})

	t.Run("draft voucher", func(t *testing.T) {
		v, err := trade.NewPurchaseVoucher("PV-DRAFT", f.supplier.ID, f.wh.ID)
		require.NoError(t, err)
		_, err = v.AddLine(cola, d("1"), "case", d("12"), nil)
		require.NoError(t, err)
		require.NoError(t, f.l.Vouchers.Save(ctx, v))

		_, err = f.workflow.Receive(ctx, v.ID, "clerk")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown voucher", func(t *testing.T) {
		_, err := f.workflow.Receive(ctx, cola.ID, "clerk")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestReceivingWorkflow_PayableFailureIsAWarning(t *testing.T) {
	ctx := context.Background()
	f := newReceivingFixture(t)
	cola := f.l.Product(t, "COLA", "can", "case", 24)
	v := f.pendingVoucher(t, voucherLine{product: cola, qty: "1", uom: "case", cost: "12"})

	workflow := NewReceivingWorkflow(f.l.Vouchers, f.l.Products, f.l.Suppliers,
		failingPayableRepo{AccountPayableRepository: f.l.Payables}, f.l.Stock, f.locker, DefaultReceivingConfig(), nil)

	result, err := workflow.Receive(ctx, v.ID, "clerk")
	require.NoError(t, err)
	require.NotNil(t, result.Warning)
	require.Len(t, result.Warning.Failures, 1)
	assert.Equal(t, StepCreatePayable, result.Warning.Failures[0].Step)
	assert.Equal(t, v.ID.String(), result.Warning.Failures[0].Target)
	assert.Nil(t, result.Payable)
	assert.Equal(t, string(trade.VoucherStatusReceived), result.Voucher.Status)
	assert.True(t, f.l.RequireBalanced(t, cola.ID, f.wh.ID).Equal(d("24")))

	// the lock is released even though a step failed
	lock, err := f.locker.Obtain(ctx, "stockledger:receive:"+v.ID.String(), time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}
