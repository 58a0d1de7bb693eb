package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/shopguard/internal/middleware"
	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/security"
)

func newTestResponder(verbose bool) *Responder {
	return NewResponder(security.NewOutputSanitizer(), verbose)
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	return body
}

func TestWriteJSON_SanitizesStringLeaves(t *testing.T) {
	rp := newTestResponder(false)
	rec := httptest.NewRecorder()

	rp.WriteJSON(rec, http.StatusOK, map[string]any{
		"description": "<b>bold</b>",
		"nested":      map[string]any{"note": "<script>alert(1)</script>safe"},
		"price":       1800,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["description"] != "bold" {
		t.Errorf("description = %q, want %q", body["description"], "bold")
	}
	nested := body["nested"].(map[string]any)
	if nested["note"] != "safe" {
		t.Errorf("note = %q, want %q", nested["note"], "safe")
	}
	if body["price"] != float64(1800) {
		t.Errorf("price = %v, want 1800", body["price"])
	}
}

func TestWriteJSON_DoesNotMutateCallerValue(t *testing.T) {
	rp := newTestResponder(false)
	rec := httptest.NewRecorder()

	original := map[string]any{"description": "<b>bold</b>"}
	rp.WriteJSON(rec, http.StatusOK, original)

	if original["description"] != "<b>bold</b>" {
		t.Error("caller value was mutated by output sanitization")
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	rp := newTestResponder(false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: model.NewValidationError(nil), wantStatus: 400, wantCode: "VALIDATION_ERROR"},
		{name: "injection", err: model.NewInjectionRejectedError(), wantStatus: 400, wantCode: "UNSAFE_REQUEST"},
		{name: "unauthenticated", err: model.NewUnauthenticatedError(), wantStatus: 401, wantCode: "UNAUTHENTICATED"},
		{name: "invalid token", err: model.NewInvalidTokenError(), wantStatus: 401, wantCode: "INVALID_TOKEN"},
		{name: "forbidden", err: model.NewForbiddenError(), wantStatus: 403, wantCode: "FORBIDDEN"},
		{name: "origin", err: model.NewOriginRejectedError(), wantStatus: 403, wantCode: "ORIGIN_REJECTED"},
		{name: "csrf missing", err: model.NewCsrfMissingError(), wantStatus: 403, wantCode: "CSRF_TOKEN_MISSING"},
		{name: "csrf mismatch", err: model.NewCsrfMismatchError(), wantStatus: 403, wantCode: "CSRF_TOKEN_MISMATCH"},
		{name: "not found", err: model.NewProductNotFoundError("p1"), wantStatus: 404, wantCode: "NOT_FOUND"},
		{name: "email taken", err: model.NewEmailTakenError(), wantStatus: 409, wantCode: "EMAIL_TAKEN"},
		{name: "rate limited", err: model.NewRateLimitedError(), wantStatus: 429, wantCode: "RATE_LIMITED"},
		{name: "plain error", err: errors.New("pq: connection refused"), wantStatus: 500, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rp.WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := decodeErrorBody(t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}
