package partner

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
)

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
)

// Supplier is a vendor that goods are received from
type Supplier struct {
	shared.BaseAggregateRoot
	Code            string
	Name            string
	Status          SupplierStatus
	PaymentTermDays int // days until payment is due; 0 means due on receipt
}

// NewSupplier creates a new supplier with required fields
func NewSupplier(code, name string, paymentTermDays int) (*Supplier, error) {
	if err := validateCode("Supplier", code); err != nil {
		return nil, err
	}
	if err := validateName("Supplier", name); err != nil {
		return nil, err
	}
	if err := validatePaymentTerm(paymentTermDays); err != nil {
		return nil, err
	}

	return &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            SupplierStatusActive,
		PaymentTermDays:   paymentTermDays,
	}, nil
}

// SetPaymentTerm changes the number of days until payment is due
func (s *Supplier) SetPaymentTerm(days int) error {
	if err := validatePaymentTerm(days); err != nil {
		return err
	}
	s.PaymentTermDays = days
	s.Touch()
	s.IncrementVersion()
	return nil
}

// DueDate returns the payment due date for goods received at receivedAt
func (s *Supplier) DueDate(receivedAt time.Time) time.Time {
	return receivedAt.AddDate(0, 0, s.PaymentTermDays)
}

// Deactivate deactivates the supplier
func (s *Supplier) Deactivate() error {
	if s.Status == SupplierStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Supplier is already inactive")
	}
	s.Status = SupplierStatusInactive
	s.Touch()
	s.IncrementVersion()
	return nil
}

// IsActive returns true if the supplier is active
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

func validatePaymentTerm(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_PAYMENT_TERM", "Payment term days cannot be negative")
	}
	if days > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_TERM", "Payment term days cannot exceed 365")
	}
	return nil
}

func validateCode(kind, code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", kind+" code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", kind+" code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", kind+" code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(kind, name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", kind+" name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", kind+" name cannot exceed 200 characters")
	}
	return nil
}
