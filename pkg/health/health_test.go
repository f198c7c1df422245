package health

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthCheckerAllHealthy(t *testing.T) {
	hc := NewHealthChecker(5 * time.Second)
	hc.AddChecker(NewPingChecker("ollama", true, "start ollama", func(ctx context.Context) error {
		return nil
	}))
	hc.AddChecker(NewPingChecker("vector_store", true, "", func(ctx context.Context) error {
		return nil
	}))

	report := hc.Check(context.Background(), "restaurantlens", "1.0.0")
	if report.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(report.Checks))
	}
}

func TestHealthCheckerCriticalFailure(t *testing.T) {
	hc := NewHealthChecker(5 * time.Second)
	hc.AddChecker(NewPingChecker("ollama", true, "start ollama", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	report := hc.Check(context.Background(), "restaurantlens", "1.0.0")
	if report.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", report.Status)
	}
	if !report.Critical {
		t.Error("critical flag should be set")
	}
	check := report.Checks["ollama"]
	if check.Message != "start ollama" {
		t.Errorf("hint lost: %+v", check)
	}
}

func TestHealthCheckerNonCriticalDegrades(t *testing.T) {
	hc := NewHealthChecker(5 * time.Second)
	hc.AddChecker(NewPingChecker("db", false, "", func(ctx context.Context) error {
		return errors.New("down")
	}))
	hc.AddChecker(NewPingChecker("ollama", true, "", func(ctx context.Context) error {
		return nil
	}))

	report := hc.Check(context.Background(), "restaurantlens", "1.0.0")
	if report.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", report.Status)
	}
}

func TestHealthCheckerRecoversFromPanic(t *testing.T) {
	hc := NewHealthChecker(5 * time.Second)
	hc.AddChecker(NewChecker("flaky", false, func(ctx context.Context) CheckResult {
		panic("boom")
	}))

	report := hc.Check(context.Background(), "restaurantlens", "1.0.0")
	if result, ok := report.Checks["flaky"]; !ok || result.Status != StatusUnknown {
		t.Errorf("panicking check should report unknown: %+v", report.Checks)
	}
}

func TestHealthHandlerStatusCodes(t *testing.T) {
	hc := NewHealthChecker(5 * time.Second)
	hc.AddChecker(NewPingChecker("ollama", true, "", func(ctx context.Context) error {
		return errors.New("down")
	}))
	handler := NewHandler(hc, "restaurantlens", "1.0.0")

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthCheckHandler()(rec, req)

	if rec.Code != 503 {
		t.Errorf("unhealthy service should return 503, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/ready", nil)
	rec = httptest.NewRecorder()
	handler.ReadinessHandler()(rec, req)
	if rec.Code != 503 {
		t.Errorf("not-ready service should return 503, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/live", nil)
	rec = httptest.NewRecorder()
	handler.LivenessHandler()(rec, req)
	if rec.Code != 200 {
		t.Errorf("liveness should return 200, got %d", rec.Code)
	}
}
