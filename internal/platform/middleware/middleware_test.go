package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/internal/platform/auth"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newTestContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func TestRequestID_GeneratesNew(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")

	mw := RequestID()
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id in response header")
	}
	if rid, _ := c.Get("request_id").(string); rid == "" {
		t.Error("expected request_id set on context")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := RequestID()
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/appointments")
	logger := zerolog.Nop()

	mw := Logger(logger)
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestLogger_EmitsClinicAndUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/queues", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	clinicID := uuid.New()
	ctx := context.WithValue(req.Context(), auth.ClinicIDKey, clinicID)
	ctx = context.WithValue(ctx, auth.UserIDKey, "user-42")
	c.SetRequest(req.WithContext(ctx))

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	mw := Logger(logger)
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := buf.String()
	if !strings.Contains(line, clinicID.String()) {
		t.Errorf("expected clinic id in request log, got %s", line)
	}
	if !strings.Contains(line, "user-42") {
		t.Errorf("expected user id in request log, got %s", line)
	}
}

func TestRecovery_ConvertsPanicToError(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	logger := zerolog.Nop()

	mw := Recovery(logger)
	err := mw(func(echo.Context) error {
		panic("boom")
	})(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})

	for i := 0; i < 3; i++ {
		c, _ := newTestContext(http.MethodGet, "/")
		if err := mw(okHandler)(c); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	c, _ := newTestContext(http.MethodGet, "/")
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/")
	err := mw(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimit_KeyedByClinic(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	drain := func(clinicID string) error {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Clinic-ID", clinicID)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		return mw(okHandler)(c)
	}

	if err := drain("clinic-a"); err != nil {
		t.Fatalf("clinic-a first request: %v", err)
	}
	if err := drain("clinic-a"); err == nil {
		t.Fatal("expected clinic-a second request to be limited")
	}
	// A different clinic has its own bucket.
	if err := drain("clinic-b"); err != nil {
		t.Fatalf("clinic-b first request: %v", err)
	}
}
