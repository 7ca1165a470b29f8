package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteSetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/selections", nil)

	Write(rec, req, http.StatusNotFound, TypeNotFound, "Not Found", errors.New("no such row"), "production")

	if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Fatalf("content type = %q", got)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}

	var p Details
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Type != TypeNotFound || p.Status != http.StatusNotFound {
		t.Fatalf("unexpected problem: %+v", p)
	}
	if p.Instance != "/api/v1/selections" {
		t.Fatalf("instance = %q", p.Instance)
	}
}

func TestWriteHidesErrorDetailInProduction(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Write(rec, req, http.StatusInternalServerError, TypeInternal, "Internal Server Error", errors.New("pool exhausted"), "production")

	var p Details
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Detail != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("detail leaked: %q", p.Detail)
	}
}

func TestWriteShowsErrorDetailInDevelopment(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Write(rec, req, http.StatusBadRequest, TypeValidation, "Validation Error", errors.New("step must be between 1 and 4"), "development")

	var p Details
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Detail != "step must be between 1 and 4" {
		t.Fatalf("detail = %q", p.Detail)
	}
}

func TestWriteWithErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	Write(rec, req, http.StatusBadRequest, TypeValidation, "Validation Error", nil, "test",
		WithErrors(map[string]any{"email": "required"}))

	var p Details
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Errors["email"] != "required" {
		t.Fatalf("errors = %+v", p.Errors)
	}
}
