package shared

import (
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so wrapped copies with a
// more specific message still satisfy errors.Is against the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrUnknownUOM          = NewDomainError("UNKNOWN_UOM", "Unit of measure is not declared for the product")
	ErrInvalidRate         = NewDomainError("INVALID_CONVERSION_RATE", "Conversion rate must be strictly positive")
	ErrUnknownProduct      = NewDomainError("UNKNOWN_PRODUCT", "Product does not exist")
	ErrUnknownBatch        = NewDomainError("UNKNOWN_BATCH", "Inventory batch does not exist")
	ErrUnknownWarehouse    = NewDomainError("UNKNOWN_WAREHOUSE", "Warehouse does not exist")
	ErrPartialFailure      = NewDomainError("PARTIAL_WORKFLOW_FAILURE", "Some workflow steps failed")
	ErrLockNotObtained     = NewDomainError("LOCK_NOT_OBTAINED", "Resource is being processed by another request")
)

// StepFailure describes one failed side effect of a multi-step workflow.
type StepFailure struct {
	Step   string `json:"step"`
	Target string `json:"target"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// PartialWorkflowFailureError is returned next to a successful primary result
// when some side effects did not apply. The primary record is already committed.
type PartialWorkflowFailureError struct {
	Workflow  string
	Succeeded int
	Failures  []StepFailure
}

// NewPartialWorkflowFailure returns nil when failures is empty.
func NewPartialWorkflowFailure(workflow string, succeeded int, failures []StepFailure) *PartialWorkflowFailureError {
	if len(failures) == 0 {
		return nil
	}
	return &PartialWorkflowFailureError{
		Workflow:  workflow,
		Succeeded: succeeded,
		Failures:  failures,
	}
}

func (e *PartialWorkflowFailureError) Error() string {
	targets := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		targets = append(targets, f.Target)
	}
	return fmt.Sprintf("%s: %d step(s) failed, %d succeeded (failed: %s)",
		e.Workflow, len(e.Failures), e.Succeeded, strings.Join(targets, ", "))
}

func (e *PartialWorkflowFailureError) Unwrap() error {
	return ErrPartialFailure
}
