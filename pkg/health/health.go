// Package health provides liveness and readiness probes for the
// assistant's HTTP server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

// Check is a single probe that either succeeds or fails.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to the Check interface.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (c *CheckFunc) Name() string                    { return c.name }
func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckResult is the outcome of one probe execution.
type CheckResult struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency_ns"`
}

// Status aggregates the probe outcomes.
type Status struct {
	Healthy bool          `json:"healthy"`
	Checks  []CheckResult `json:"checks"`
}

// Checker runs liveness and readiness probes. A probe only reports
// unhealthy after failing failureThreshold times in a row, so a single
// transient failure does not flap the pod.
type Checker struct {
	mu               sync.Mutex
	liveness         []Check
	readiness        []Check
	failures         map[string]int
	timeout          time.Duration
	failureThreshold int
	log              logger.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds each individual probe. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// WithFailureThreshold sets how many consecutive failures flip a probe
// to unhealthy. Default 3.
func WithFailureThreshold(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.failureThreshold = n
		}
	}
}

// WithLogger sets the logger for probe outcomes.
func WithLogger(l logger.Logger) Option {
	return func(c *Checker) { c.log = l }
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		failures:         make(map[string]int),
		timeout:          5 * time.Second,
		failureThreshold: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddLivenessCheck registers a probe deciding whether the process
// should be restarted.
func (c *Checker) AddLivenessCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness = append(c.liveness, check)
}

// AddReadinessCheck registers a probe deciding whether the service can
// take traffic.
func (c *Checker) AddReadinessCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readiness = append(c.readiness, check)
}

// LivenessHandler serves the liveness probe endpoint.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.serve(w, r, c.snapshot(&c.liveness))
	}
}

// ReadinessHandler serves the readiness probe endpoint.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.serve(w, r, c.snapshot(&c.readiness))
	}
}

func (c *Checker) snapshot(checks *[]Check) []Check {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Check(nil), (*checks)...)
}

func (c *Checker) serve(w http.ResponseWriter, r *http.Request, checks []Check) {
	status := c.run(r.Context(), checks)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (c *Checker) run(ctx context.Context, checks []Check) Status {
	status := Status{Healthy: true, Checks: make([]CheckResult, len(checks))}

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(idx int, chk Check) {
			defer wg.Done()
			status.Checks[idx] = c.runOne(ctx, chk)
		}(i, check)
	}
	wg.Wait()

	for _, result := range status.Checks {
		if !result.Healthy {
			status.Healthy = false
		}
	}
	return status
}

func (c *Checker) runOne(parent context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	latency := time.Since(start)

	result := CheckResult{Name: check.Name(), Latency: latency, Healthy: true}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.failures[check.Name()] = 0
		return result
	}

	c.failures[check.Name()]++
	if c.failures[check.Name()] < c.failureThreshold {
		if c.log != nil {
			c.log.Debug("Probe failed below threshold",
				logger.StringField("check", check.Name()),
				logger.IntField("failures", c.failures[check.Name()]),
				logger.ErrorField(err))
		}
		return result
	}

	result.Healthy = false
	result.Error = err.Error()
	if c.log != nil {
		c.log.Warn("Probe unhealthy",
			logger.StringField("check", check.Name()),
			logger.IntField("failures", c.failures[check.Name()]),
			logger.DurationField("latency", latency),
			logger.ErrorField(err))
	}
	return result
}

// NewURLCheck probes a URL with GET and fails on transport errors or
// 5xx responses.
func NewURLCheck(name, url string, client *http.Client) *CheckFunc {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return NewCheckFunc(name, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	})
}
