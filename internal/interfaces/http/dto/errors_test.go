package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusConflict},
		{ErrCodeLockNotObtained, http.StatusConflict},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodeUnknownUOM, http.StatusUnprocessableEntity},
		{ErrCodeInvalidRate, http.StatusUnprocessableEntity},
		{ErrCodeUnknownProduct, http.StatusUnprocessableEntity},
		{ErrCodeUnknownBatch, http.StatusUnprocessableEntity},
		{ErrCodeUnknownWarehouse, http.StatusUnprocessableEntity},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestDomainHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, DomainHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, DomainHTTPStatus("REASON_REQUIRED"))
}

func TestDomainCodesMatchSentinels(t *testing.T) {
	sentinels := map[string]*shared.DomainError{
		ErrCodeNotFound:            shared.ErrNotFound,
		ErrCodeAlreadyExists:       shared.ErrAlreadyExists,
		ErrCodeInvalidInput:        shared.ErrInvalidInput,
		ErrCodeConcurrencyConflict: shared.ErrConcurrencyConflict,
		ErrCodeInvalidState:        shared.ErrInvalidState,
		ErrCodeInsufficientStock:   shared.ErrInsufficientStock,
		ErrCodeUnknownUOM:          shared.ErrUnknownUOM,
		ErrCodeInvalidRate:         shared.ErrInvalidRate,
		ErrCodeUnknownProduct:      shared.ErrUnknownProduct,
		ErrCodeUnknownBatch:        shared.ErrUnknownBatch,
		ErrCodeUnknownWarehouse:    shared.ErrUnknownWarehouse,
		ErrCodePartialFailure:      shared.ErrPartialFailure,
		ErrCodeLockNotObtained:     shared.ErrLockNotObtained,
	}
	for code, sentinel := range sentinels {
		assert.Equal(t, code, sentinel.Code)
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewSuccessResponseWithWarning(t *testing.T) {
	t.Run("nil warning adds nothing", func(t *testing.T) {
		resp := NewSuccessResponseWithWarning("ok", nil)
		assert.Empty(t, resp.Warnings)
	})

	t.Run("failures are listed", func(t *testing.T) {
		warning := shared.NewPartialWorkflowFailure("sale", 1, []shared.StepFailure{
			{Step: "decrement_stock", Target: "B", Reason: "timeout", Err: errors.New("timeout")},
		})

		resp := NewSuccessResponseWithWarning("ok", warning)

		require.Len(t, resp.Warnings, 1)
		assert.Equal(t, ErrCodePartialFailure, resp.Warnings[0].Code)

		body, err := json.Marshal(resp)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &decoded))
		warnings := decoded["warnings"].([]interface{})
		failures := warnings[0].(map[string]interface{})["failures"].([]interface{})
		failure := failures[0].(map[string]interface{})
		assert.Equal(t, "decrement_stock", failure["step"])
		assert.Equal(t, "B", failure["target"])
		assert.NotContains(t, failure, "Err")
	})
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("invalid request", "req-1", []ValidationDetail{
		{Field: "quantity", Message: "quantity is required"},
	})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}

func TestListRequest_Filter(t *testing.T) {
	f := ListRequest{Page: 3}.Filter()
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
}
