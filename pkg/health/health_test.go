package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type staticCheck struct {
	name   string
	result CheckResult
}

func (c *staticCheck) Name() string                          { return c.name }
func (c *staticCheck) Check(ctx context.Context) CheckResult { return c.result }

func TestCheckAggregatesStatus(t *testing.T) {
	h := NewHandler("test")
	h.Register(&staticCheck{name: "a", result: CheckResult{Status: StatusHealthy}})
	h.Register(&staticCheck{name: "b", result: CheckResult{Status: StatusHealthy}})

	resp := h.Check(context.Background())
	if resp.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", resp.Status)
	}
	if len(resp.Checks) != 2 {
		t.Errorf("len(checks) = %d, want 2", len(resp.Checks))
	}

	h.Register(&staticCheck{name: "c", result: CheckResult{Status: StatusUnhealthy, Error: "boom"}})
	if resp := h.Check(context.Background()); resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy when any check fails", resp.Status)
	}
}

type slowCheck struct {
	delay time.Duration
}

func (c *slowCheck) Name() string { return "slow" }
func (c *slowCheck) Check(ctx context.Context) CheckResult {
	time.Sleep(c.delay)
	return CheckResult{Status: StatusHealthy}
}

func TestCheckDurationInMilliseconds(t *testing.T) {
	h := NewHandler("test")
	h.Register(&slowCheck{delay: 50 * time.Millisecond})

	resp := h.Check(context.Background())
	got := resp.Checks["slow"].Duration
	// A nanosecond encoding of a 50ms check would be in the tens of
	// millions.
	if got < 50 || got > 5000 {
		t.Errorf("duration = %d, want a millisecond value in [50, 5000]", got)
	}
}

func TestHTTPHandlerStatusCodes(t *testing.T) {
	h := NewHandler("test")
	h.Register(&staticCheck{name: "ok", result: CheckResult{Status: StatusHealthy}})

	rec := httptest.NewRecorder()
	h.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Errorf("healthy handler returned %d, want 200", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("body status = %s, want healthy", resp.Status)
	}

	h.Register(&staticCheck{name: "bad", result: CheckResult{Status: StatusUnhealthy}})
	rec = httptest.NewRecorder()
	h.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 503 {
		t.Errorf("unhealthy handler returned %d, want 503", rec.Code)
	}
}

func TestKeyCheck(t *testing.T) {
	dir := t.TempDir()
	c := &KeyCheck{Dir: dir, PrivateFile: "posture_ed25519"}

	if res := c.Check(context.Background()); res.Status != StatusHealthy {
		t.Errorf("absent key should be healthy, got %+v", res)
	}

	path := filepath.Join(dir, "posture_ed25519")
	if err := os.WriteFile(path, []byte("key"), 0o600); err != nil {
		t.Fatal(err)
	}
	if res := c.Check(context.Background()); res.Status != StatusHealthy {
		t.Errorf("0600 key should be healthy, got %+v", res)
	}

	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}
	if res := c.Check(context.Background()); res.Status != StatusUnhealthy {
		t.Errorf("world-readable key should be unhealthy, got %+v", res)
	}
}

func TestStoreCheck(t *testing.T) {
	c := &StoreCheck{}
	if res := c.Check(context.Background()); res.Status != StatusHealthy {
		t.Errorf("nil ping should be healthy, got %+v", res)
	}

	c.Ping = func(ctx context.Context) error { return nil }
	if res := c.Check(context.Background()); res.Status != StatusHealthy {
		t.Errorf("succeeding ping should be healthy, got %+v", res)
	}

	c.Ping = func(ctx context.Context) error { return errors.New("locked") }
	if res := c.Check(context.Background()); res.Status != StatusUnhealthy {
		t.Errorf("failing ping should be unhealthy, got %+v", res)
	}
}

func TestDiskCheck(t *testing.T) {
	c := &DiskCheck{Path: t.TempDir()}
	if res := c.Check(context.Background()); res.Status != StatusHealthy {
		t.Errorf("no-threshold check should be healthy, got %+v", res)
	}

	c.MinFreePercent = 100.1
	if res := c.Check(context.Background()); res.Status != StatusUnhealthy {
		t.Errorf("impossible threshold should be unhealthy, got %+v", res)
	}
}
