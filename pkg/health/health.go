// Package health runs named component checks (Ollama, vector store,
// database) and exposes them over HTTP.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Critical  bool              `json:"critical"`
}

// Checker represents a health check
type Checker interface {
	Check(ctx context.Context) CheckResult
	Name() string
	IsCritical() bool
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc struct {
	name     string
	critical bool
	checkFn  func(ctx context.Context) CheckResult
}

// NewChecker creates a new health checker
func NewChecker(name string, critical bool, checkFn func(ctx context.Context) CheckResult) *CheckerFunc {
	return &CheckerFunc{
		name:     name,
		critical: critical,
		checkFn:  checkFn,
	}
}

// NewPingChecker wraps a simple error-returning probe. A nil error means
// healthy; the hint is included when the probe fails.
func NewPingChecker(name string, critical bool, hint string, probe func(ctx context.Context) error) *CheckerFunc {
	return NewChecker(name, critical, func(ctx context.Context) CheckResult {
		if err := probe(ctx); err != nil {
			return CheckResult{
				Name:    name,
				Status:  StatusUnhealthy,
				Error:   err.Error(),
				Message: hint,
			}
		}
		return CheckResult{Name: name, Status: StatusHealthy}
	})
}

// Check executes the health check
func (c *CheckerFunc) Check(ctx context.Context) CheckResult {
	return c.checkFn(ctx)
}

// Name returns the checker name
func (c *CheckerFunc) Name() string {
	return c.name
}

// IsCritical returns whether this check is critical
func (c *CheckerFunc) IsCritical() bool {
	return c.critical
}

// HealthChecker manages multiple health checks
type HealthChecker struct {
	checkers map[string]Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewHealthChecker creates a new health checker manager
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HealthChecker{
		checkers: make(map[string]Checker),
		timeout:  timeout,
	}
}

// AddChecker adds a health checker
func (hc *HealthChecker) AddChecker(checker Checker) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checkers[checker.Name()] = checker
}

// RemoveChecker removes a health checker
func (hc *HealthChecker) RemoveChecker(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checkers, name)
}

// HealthReport represents the overall health status
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Version   string                 `json:"version"`
	Service   string                 `json:"service"`
	Checks    map[string]CheckResult `json:"checks"`
	Summary   map[string]int         `json:"summary"`
	Critical  bool                   `json:"critical"`
}

// Check performs all health checks in parallel and returns a report
func (hc *HealthChecker) Check(ctx context.Context, service, version string) HealthReport {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	hc.mu.RLock()
	checkers := make([]Checker, 0, len(hc.checkers))
	for _, checker := range hc.checkers {
		checkers = append(checkers, checker)
	}
	hc.mu.RUnlock()

	results := make(map[string]CheckResult)
	summary := map[string]int{
		string(StatusHealthy):   0,
		string(StatusUnhealthy): 0,
		string(StatusDegraded):  0,
		string(StatusUnknown):   0,
	}

	var wg sync.WaitGroup
	resultsChan := make(chan CheckResult, len(checkers))

	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			resultsChan <- hc.runSingleCheck(checkCtx, c)
		}(checker)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	criticalFailed := false
	for result := range resultsChan {
		results[result.Name] = result
		summary[string(result.Status)]++

		if result.Critical && result.Status != StatusHealthy {
			criticalFailed = true
		}
	}

	return HealthReport{
		Status:    determineOverallStatus(summary, criticalFailed),
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Version:   version,
		Service:   service,
		Checks:    results,
		Summary:   summary,
		Critical:  criticalFailed,
	}
}

func (hc *HealthChecker) runSingleCheck(ctx context.Context, checker Checker) (result CheckResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = CheckResult{
				Name:   checker.Name(),
				Status: StatusUnknown,
				Error:  fmt.Sprintf("health check panicked: %v", r),
			}
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()
			result.Critical = checker.IsCritical()
		}
	}()

	result = checker.Check(ctx)
	result.Duration = time.Since(start)
	result.Timestamp = time.Now()
	result.Critical = checker.IsCritical()
	if result.Name == "" {
		result.Name = checker.Name()
	}
	if result.Status == "" {
		result.Status = StatusUnknown
	}

	return result
}

func determineOverallStatus(summary map[string]int, criticalFailed bool) Status {
	if criticalFailed {
		return StatusUnhealthy
	}
	if summary[string(StatusUnhealthy)] > 0 || summary[string(StatusDegraded)] > 0 {
		return StatusDegraded
	}
	if summary[string(StatusHealthy)] == 0 {
		return StatusUnknown
	}
	return StatusHealthy
}
