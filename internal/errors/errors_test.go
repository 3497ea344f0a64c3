package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestScoutError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ScoutError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestScoutError_WithContext(t *testing.T) {
	err := NotFound("job", "JOB-ACME-A1B2C3").
		WithContext("stage", "applied")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["id"] != "JOB-ACME-A1B2C3" {
		t.Errorf("Context[id] = %v, want JOB-ACME-A1B2C3", err.Context["id"])
	}

	if err.Context["stage"] != "applied" {
		t.Errorf("Context[stage] = %v, want applied", err.Context["stage"])
	}
}

func TestScoutError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := StorageError("save", cause)

	if !stdErrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}

func TestIsCategory(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		want     bool
	}{
		{"direct match", ValidationError("blank company"), CategoryValidation, true},
		{"mismatch", Conflict("outcome already set"), CategoryValidation, false},
		{"wrapped in fmt.Errorf", fmt.Errorf("outer: %w", NotFound("job", "x")), CategoryNotFound, true},
		{"standard error", fmt.Errorf("plain"), CategoryInternal, false},
		{"nil", nil, CategoryInternal, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCategory(test.err, test.category); got != test.want {
				t.Errorf("IsCategory() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestGetCategory(t *testing.T) {
	if got := GetCategory(fmt.Errorf("plain")); got != CategoryInternal {
		t.Errorf("GetCategory(plain) = %v, want %v", got, CategoryInternal)
	}
	if got := GetCategory(AuthError("missing key")); got != CategoryAuth {
		t.Errorf("GetCategory(auth) = %v, want %v", got, CategoryAuth)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(ValidationError("nope")) {
		t.Error("validation errors should not be retryable")
	}
	if !IsRetryable(NetworkError("http://example.com", fmt.Errorf("timeout"))) {
		t.Error("network errors should be retryable")
	}
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", ValidationError("bad stage"), 2},
		{"not found", NotFound("job", "x"), 3},
		{"conflict", Conflict("already closed"), 4},
		{"auth", AuthError("bad key"), 5},
		{"config", ConfigRequired("llm.model"), 7},
		{"network", NetworkError("u", fmt.Errorf("boom")), 8},
		{"generation", GenerationFailed("resume", fmt.Errorf("boom")), 9},
		{"storage", StorageError("save", fmt.Errorf("boom")), 10},
		{"plain", fmt.Errorf("plain"), 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.want {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ValidationError("bad outcome"), http.StatusUnprocessableEntity},
		{"not found", NotFound("job", "x"), http.StatusNotFound},
		{"conflict", Conflict("outcome set"), http.StatusConflict},
		{"auth", AuthError("missing key"), http.StatusUnauthorized},
		{"generation", GenerationFailed("analyze", fmt.Errorf("boom")), http.StatusBadGateway},
		{"storage", StorageError("load", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(test.err); got != test.want {
				t.Errorf("StatusCodeFor() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil)

	adapter.WriteErrorResponse(rec, req, NotFound("job", "missing"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	body := rec.Body.String()
	for _, fragment := range []string{`"error":"job not found"`, `"category":"not_found"`, `"id":"missing"`} {
		if !strings.Contains(body, fragment) {
			t.Errorf("body %q missing %q", body, fragment)
		}
	}
}
