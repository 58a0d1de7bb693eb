package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/shopguard/internal/model"
)

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	apiErr := model.NewValidationError([]model.FieldDetail{
		{Field: "email", Message: "メールアドレスの形式が正しくありません。"},
	})
	WriteErrorResponse(rec, http.StatusBadRequest, apiErr)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	body := decodeErrorBody(t, rec)
	if body.Success {
		t.Error("success should be false")
	}
	if body.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", body.Code)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "email" {
		t.Errorf("errors = %+v, want the email field detail", body.Errors)
	}
}

func TestWriteInternalServerError_HidesDetailInProduction(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteInternalServerError(rec, errors.New("pq: connection refused"), false)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
	if strings.Contains(body.Message, "connection refused") {
		t.Error("production response must not leak error details")
	}
}

func TestWriteInternalServerError_VerboseIncludesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteInternalServerError(rec, errors.New("pq: connection refused"), true)

	body := decodeErrorBody(t, rec)
	if !strings.Contains(body.Message, "connection refused") {
		t.Errorf("verbose response should include error detail, got %q", body.Message)
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	mw := NewRecoveryMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
	if strings.Contains(body.Message, "boom") {
		t.Error("panic value must not leak into the response")
	}
}
