package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/sharehub/internal/model"
)

func TestWriteErrorResponse_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadGateway, model.NewUpstreamFailedError("connection refused"))

	if w.Result().StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Result().StatusCode)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if raw["success"] != false {
		t.Errorf("success = %v, want false", raw["success"])
	}
	if raw["code"] != float64(http.StatusBadGateway) {
		t.Errorf("code = %v, want 502", raw["code"])
	}
	if raw["errorCode"] != model.ErrCodeUpstreamFailed {
		t.Errorf("errorCode = %v", raw["errorCode"])
	}
	if msg, _ := raw["message"].(string); msg == "" {
		t.Error("message should not be empty")
	}
}

func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if w.Result().StatusCode != http.StatusInternalServerError || body.ErrorCode != "INTERNAL_ERROR" {
		t.Errorf("status = %d, body = %+v", w.Result().StatusCode, body)
	}
}
