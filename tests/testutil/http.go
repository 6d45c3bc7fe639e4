package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response shape. Data stays raw so each test
// decodes it into the response type it expects.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"request_id"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
	Warnings []struct {
		Code     string `json:"code"`
		Failures []struct {
			Step   string `json:"step"`
			Target string `json:"target"`
		} `json:"failures"`
	} `json:"warnings"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

// DoJSON sends body as JSON to h and decodes the envelope. headers are
// name/value pairs.
func DoJSON(t *testing.T, h http.Handler, method, path string, body any, headers ...string) (int, Envelope) {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w.Code, env
}

// DecodeData unmarshals the envelope data into T
func DecodeData[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "data: %s", string(env.Data))
	return out
}

// RequireErrorCode asserts a failed envelope carrying code
func RequireErrorCode(t *testing.T, env Envelope, code string) {
	t.Helper()
	require.False(t, env.Success)
	require.NotNil(t, env.Error, "expected an error envelope")
	require.Equal(t, code, env.Error.Code, "message: %s", env.Error.Message)
}
