package dto

import "net/http"

// Error codes carried in the envelope. Domain codes are passed through from
// shared.DomainError unchanged; the transport adds its own.

// Transport error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeTimeout    = "REQUEST_TIMEOUT"
	ErrCodeTooLarge   = "REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeLockNotObtained     = "LOCK_NOT_OBTAINED"
)

// Ledger error codes
const (
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeUnknownUOM        = "UNKNOWN_UOM"
	ErrCodeInvalidRate       = "INVALID_CONVERSION_RATE"
	ErrCodeUnknownProduct    = "UNKNOWN_PRODUCT"
	ErrCodeUnknownBatch      = "UNKNOWN_BATCH"
	ErrCodeUnknownWarehouse  = "UNKNOWN_WAREHOUSE"
	ErrCodePartialFailure    = "PARTIAL_WORKFLOW_FAILURE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeTimeout:    http.StatusGatewayTimeout,
	ErrCodeTooLarge:   http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusConflict,
	ErrCodeLockNotObtained:     http.StatusConflict,

	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeUnknownUOM:        http.StatusUnprocessableEntity,
	ErrCodeInvalidRate:       http.StatusUnprocessableEntity,
	ErrCodeUnknownProduct:    http.StatusUnprocessableEntity,
	ErrCodeUnknownBatch:      http.StatusUnprocessableEntity,
	ErrCodeUnknownWarehouse:  http.StatusUnprocessableEntity,
	ErrCodePartialFailure:    http.StatusOK,
}

// GetHTTPStatus returns the HTTP status code for an error code, or 500 when
// the code is not known
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainHTTPStatus is GetHTTPStatus for codes raised by domain rules. An
// unlisted domain code is a rejected business rule and maps to 422.
func DomainHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
