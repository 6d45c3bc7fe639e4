package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseVoucherRepository implements PurchaseVoucherRepository using GORM
type GormPurchaseVoucherRepository struct {
	db *gorm.DB
}

// NewGormPurchaseVoucherRepository creates a new GormPurchaseVoucherRepository
func NewGormPurchaseVoucherRepository(db *gorm.DB) *GormPurchaseVoucherRepository {
	return &GormPurchaseVoucherRepository{db: db}
}

// FindByID loads a voucher with its lines
func (r *GormPurchaseVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseVoucher, error) {
	var model models.PurchaseVoucherModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("find voucher", err)
	}
	return model.ToDomain(), nil
}

// FindByNumber loads a voucher with its lines by voucher number
func (r *GormPurchaseVoucherRepository) FindByNumber(ctx context.Context, number string) (*trade.PurchaseVoucher, error) {
	var model models.PurchaseVoucherModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Where("voucher_number = ?", strings.TrimSpace(number)).
		First(&model).Error; err != nil {
		return nil, translateError("find voucher by number", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists vouchers without their lines
func (r *GormPurchaseVoucherRepository) FindAll(ctx context.Context, filter trade.VoucherFilter) ([]trade.PurchaseVoucher, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseVoucherModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count vouchers", err)
	}
	var rows []models.PurchaseVoucherModel
	if err := paginate(query, filter.Filter, PurchaseVoucherSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list vouchers", err)
	}
	vouchers := make([]trade.PurchaseVoucher, len(rows))
	for i := range rows {
		vouchers[i] = *rows[i].ToDomain()
	}
	return vouchers, total, nil
}

// Save creates or updates a voucher. Lines missing from the aggregate are
// deleted and the remaining ones are upserted.
func (r *GormPurchaseVoucherRepository) Save(ctx context.Context, voucher *trade.PurchaseVoucher) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseVoucherModelFromDomain(voucher)
		if err := tx.Omit("Lines").Save(model).Error; err != nil {
			return err
		}

		lineIDs := make([]uuid.UUID, len(model.Lines))
		for i := range model.Lines {
			lineIDs[i] = model.Lines[i].ID
		}
		remove := tx.Where("voucher_id = ?", voucher.ID)
		if len(lineIDs) > 0 {
			remove = remove.Where("id NOT IN ?", lineIDs)
		}
		if err := remove.Delete(&models.VoucherLineModel{}).Error; err != nil {
			return err
		}

		for i := range model.Lines {
			model.Lines[i].VoucherID = voucher.ID
			if err := tx.Save(&model.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateError("save voucher", err)
}

// orderLines keeps line order stable across loads
func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}

var _ trade.PurchaseVoucherRepository = (*GormPurchaseVoucherRepository)(nil)
