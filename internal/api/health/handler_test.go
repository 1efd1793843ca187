package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }
func (p *fakePinger) Backend() string                { return "memory" }

func TestHandler_Live(t *testing.T) {
	h := NewHandler()
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest("GET", "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		depth      int
		wantStatus int
		wantState  string
	}{
		{"healthy", nil, 3, http.StatusOK, "ready"},
		{"store down", errors.New("connection refused"), 0, http.StatusServiceUnavailable, "not_ready"},
		{"backlog", nil, 11, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			h.RegisterChecker(NewStorageChecker(&fakePinger{err: tt.pingErr}))
			depth := tt.depth
			h.RegisterChecker(NewWriteQueueChecker(func() int { return depth }, 10))

			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest("GET", "/health/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantState)
			}
			if _, ok := resp.Checks["storage:memory"]; !ok {
				t.Errorf("Checks = %v, want storage:memory entry", resp.Checks)
			}
		})
	}
}

func TestStorageChecker_Nil(t *testing.T) {
	c := NewStorageChecker(nil)
	if c.Name() != "storage" {
		t.Errorf("Name = %q, want storage", c.Name())
	}
	if err := c.Check(context.Background()); err == nil {
		t.Error("expected error for nil pinger")
	}
}

func TestHandler_HealthReportsVersion(t *testing.T) {
	h := NewHandler()
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/health", nil))

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version == "" {
		t.Errorf("response = %+v, want ok with a version", resp)
	}
}

// slowChecker blocks until the probe deadline.
type slowChecker struct{}

func (slowChecker) Name() string { return "slow" }
func (slowChecker) Check(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestHandler_ReadyHonorsRequestContext(t *testing.T) {
	h := NewHandler()
	h.RegisterChecker(slowChecker{})
	h.RegisterChecker(NewStorageChecker(&fakePinger{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest("GET", "/health/ready", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Checks["storage:memory"] != "ok" || resp.Checks["slow"] == "ok" {
		t.Errorf("Checks = %v", resp.Checks)
	}
}
