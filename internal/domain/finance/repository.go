package finance

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// PayableFilter narrows payable listings
type PayableFilter struct {
	shared.Filter
	Status     *PayableStatus
	SupplierID *uuid.UUID
}

// AccountPayableRepository defines persistence for payables
type AccountPayableRepository interface {
	// FindByID finds a payable by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*AccountPayable, error)

	// FindBySource finds the payable created for a voucher
	FindBySource(ctx context.Context, sourceID uuid.UUID) (*AccountPayable, error)

	// FindAll lists payables matching the filter
	FindAll(ctx context.Context, filter PayableFilter) ([]AccountPayable, int64, error)

	// FindOverdueCandidates returns outstanding payables due before asOf
	FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]AccountPayable, error)

	// Save creates or updates a payable. Creating a second payable for the same
	// source fails with shared.ErrAlreadyExists.
	Save(ctx context.Context, payable *AccountPayable) error
}
