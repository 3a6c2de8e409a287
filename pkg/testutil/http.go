// Package testutil carries the HTTP helpers the router-level tests share:
// request builders, a recorder runner, and assertions over the service's
// JSON error envelope.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errorEnvelope mirrors the envelope shared.WriteError emits.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewJSONRequest builds a request whose body is the JSON encoding of payload.
// A nil payload sends no body; the content type is set either way, matching
// what the parse and admin routes expect.
func NewJSONRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err, "encode request payload")
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequest builds a bodyless request for GET-style routes.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest runs req through the handler and returns the recorder. The
// recorder's body is a buffer: helpers that decode it consume it, so decode
// a response at most once.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(target), "decode response body")
}

// UnmarshalResponse decodes the response body into T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	decodeBody(t, rr, &result)
	return &result
}

// AssertStatus asserts the recorded status code.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertStatusOK asserts a 200 response.
func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertErrorCode decodes the error envelope and asserts its code. Error
// responses always carry a message alongside the code, so an empty one is a
// regression too.
func AssertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()
	var envelope errorEnvelope
	decodeBody(t, rr, &envelope)
	assert.Equal(t, expectedCode, envelope.Error, "unexpected error code")
	assert.NotEmpty(t, envelope.Message, "error envelope without a message")
}

// AssertStatusAndError asserts the status code and the envelope's error code
// in one call.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	AssertErrorCode(t, rr, expectedCode)
}

// AssertJSONHasKey asserts the response object carries the given top-level key.
func AssertJSONHasKey(t *testing.T, rr *httptest.ResponseRecorder, key string) {
	t.Helper()
	var result map[string]json.RawMessage
	decodeBody(t, rr, &result)
	assert.Contains(t, result, key)
}
