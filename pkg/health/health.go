// Package health exposes agent health on the diagnostics listener,
// next to the Prometheus metrics endpoint. Checks cover the local
// resources a scan depends on: key material, the artifact database and
// free disk space.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Status is the outcome of a check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult holds the result of one health check. Duration is in
// milliseconds, stamped by the handler.
type CheckResult struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration int64  `json:"duration_ms"`
}

// Checker is one health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Response is the aggregated health response.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    time.Duration          `json:"uptime_seconds"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Handler runs registered checks and serves them over HTTP.
type Handler struct {
	mu        sync.RWMutex
	checks    map[string]Checker
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewHandler creates a health handler.
func NewHandler(version string) *Handler {
	return &Handler{
		checks:    make(map[string]Checker),
		version:   version,
		startTime: time.Now(),
		timeout:   5 * time.Second,
	}
}

// Register adds a health check under its own name.
func (h *Handler) Register(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[c.Name()] = c
}

// Check runs all registered checks concurrently.
func (h *Handler) Check(ctx context.Context) Response {
	h.mu.RLock()
	checks := make(map[string]Checker, len(h.checks))
	for name, c := range h.checks {
		checks[name] = c
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, c := range checks {
		wg.Add(1)
		go func(name string, c Checker) {
			defer wg.Done()
			start := time.Now()
			res := c.Check(ctx)
			res.Duration = time.Since(start).Milliseconds()
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}(name, c)
	}
	wg.Wait()

	overall := StatusHealthy
	for _, res := range results {
		if res.Status == StatusUnhealthy {
			overall = StatusUnhealthy
			break
		}
	}

	return Response{
		Status:    overall,
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime),
		Version:   h.version,
		Checks:    results,
	}
}

// HTTPHandler serves the aggregated health response. Unhealthy maps to
// 503 so probes can act on the status code alone.
func (h *Handler) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// KeyCheck verifies the signing key directory is usable: the private
// key, when present, must keep owner-only permissions. An absent key is
// healthy; the agent generates one on the next signed scan.
type KeyCheck struct {
	Dir         string
	PrivateFile string
}

func (c *KeyCheck) Name() string { return "keys" }

func (c *KeyCheck) Check(ctx context.Context) CheckResult {
	path := filepath.Join(c.Dir, c.PrivateFile)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return CheckResult{Status: StatusHealthy, Message: "no key yet, will generate on first signed scan"}
	}
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  fmt.Sprintf("private key mode is %o, want 600", perm),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "private key present"}
}

// StoreCheck pings the artifact database.
type StoreCheck struct {
	Ping func(ctx context.Context) error
}

func (c *StoreCheck) Name() string { return "store" }

func (c *StoreCheck) Check(ctx context.Context) CheckResult {
	if c.Ping == nil {
		return CheckResult{Status: StatusHealthy, Message: "artifact history disabled"}
	}
	if err := c.Ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "database reachable"}
}

// DiskCheck verifies the filesystem holding agent state has free space.
type DiskCheck struct {
	Path           string
	MinFreePercent float64
}

func (c *DiskCheck) Name() string { return "disk" }

func (c *DiskCheck) Check(ctx context.Context) CheckResult {
	path := c.Path
	if path == "" {
		path = "/"
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	if total == 0 {
		return CheckResult{Status: StatusUnhealthy, Error: "filesystem reports zero size"}
	}
	freePercent := float64(free) / float64(total) * 100

	if c.MinFreePercent > 0 && freePercent < c.MinFreePercent {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  fmt.Sprintf("%.1f%% free on %s, want at least %.1f%%", freePercent, path, c.MinFreePercent),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%.1f%% free on %s", freePercent, path)}
}

var (
	_ Checker = (*KeyCheck)(nil)
	_ Checker = (*StoreCheck)(nil)
	_ Checker = (*DiskCheck)(nil)
)
