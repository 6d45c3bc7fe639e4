package finance

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultOverdueBatchSize bounds how many payables one overdue sweep touches
const DefaultOverdueBatchSize = 500

// PayableResponse represents an account payable in API responses
type PayableResponse struct {
	ID           uuid.UUID       `json:"id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SourceID     uuid.UUID       `json:"source_id"`
	SourceNumber string          `json:"source_number"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
	Status       string          `json:"status"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PayableListFilter represents filter options for payable listings
type PayableListFilter struct {
	Status     string
	SupplierID *uuid.UUID
	Page       int
	PageSize   int
}

// OverdueStats contains statistics about one overdue sweep
type OverdueStats struct {
	Total       int       `json:"total"`
	Marked      int       `json:"marked"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ToPayableResponse converts a domain payable to its response DTO
func ToPayableResponse(ap *finance.AccountPayable) PayableResponse {
	return PayableResponse{
		ID:           ap.ID,
		SupplierID:   ap.SupplierID,
		SourceID:     ap.SourceID,
		SourceNumber: ap.SourceNumber,
		Amount:       ap.Amount,
		DueDate:      ap.DueDate,
		Status:       string(ap.Status),
		PaidAt:       ap.PaidAt,
		CreatedAt:    ap.CreatedAt,
	}
}

// PayableService reads and settles supplier payables
type PayableService struct {
	payableRepo    finance.AccountPayableRepository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
}

// NewPayableService creates a new PayableService
func NewPayableService(payableRepo finance.AccountPayableRepository, logger *zap.Logger) *PayableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayableService{payableRepo: payableRepo, logger: logger}
}

// SetEventPublisher sets the event publisher for payable events
func (s *PayableService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics used by the overdue sweep
func (s *PayableService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// Get returns a payable by ID
func (s *PayableService) Get(ctx context.Context, id uuid.UUID) (*PayableResponse, error) {
	ap, err := s.payableRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPayableResponse(ap)
	return &resp, nil
}

// List returns payables, optionally narrowed by status
func (s *PayableService) List(ctx context.Context, filter PayableListFilter) ([]PayableResponse, int64, error) {
	f := finance.PayableFilter{Filter: shared.DefaultFilter(), SupplierID: filter.SupplierID}
	f.OrderBy = "due_date"
	f.OrderDir = "asc"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status := finance.PayableStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Unknown payable status: "+filter.Status)
		}
		f.Status = &status
	}
	payables, total, err := s.payableRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]PayableResponse, len(payables))
	for i := range payables {
		responses[i] = ToPayableResponse(&payables[i])
	}
	return responses, total, nil
}

// MarkPaid settles an outstanding or overdue payable
func (s *PayableService) MarkPaid(ctx context.Context, id uuid.UUID) (*PayableResponse, error) {
	ap, err := s.payableRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ap.MarkPaid(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.payableRepo.Save(ctx, ap); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, ap.GetDomainEvents()...)
	}
	ap.ClearDomainEvents()

	s.logger.Info("payable marked paid",
		zap.String("payable_id", ap.ID.String()),
		zap.String("source_number", ap.SourceNumber),
		zap.String("amount", ap.Amount.String()),
	)
	resp := ToPayableResponse(ap)
	return &resp, nil
}

// MarkOverdue moves outstanding payables past their due date to overdue
func (s *PayableService) MarkOverdue(ctx context.Context, now time.Time) (*OverdueStats, error) {
	stats := &OverdueStats{ProcessedAt: now}

	candidates, err := s.payableRepo.FindOverdueCandidates(ctx, now, DefaultOverdueBatchSize)
	if err != nil {
		s.logger.Error("failed to find overdue payables", zap.Error(err))
		return nil, err
	}
	stats.Total = len(candidates)
	if stats.Total == 0 {
		s.logger.Debug("no overdue payables found")
		return stats, nil
	}

	for i := range candidates {
		ap := &candidates[i]
		changed, err := ap.MarkOverdue(now)
		if err == nil && changed {
			err = s.payableRepo.Save(ctx, ap)
		}
		if err != nil {
			s.logger.Error("failed to mark payable overdue",
				zap.String("payable_id", ap.ID.String()),
				zap.String("source_number", ap.SourceNumber),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		if changed {
			stats.Marked++
		}
	}

	s.metrics.RecordSweep(ctx, telemetry.OperationOverdueSweep, stats.Marked, stats.Failed)
	s.logger.Info("completed overdue sweep",
		zap.Int("total", stats.Total),
		zap.Int("marked", stats.Marked),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}
