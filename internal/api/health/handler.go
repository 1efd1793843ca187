// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/rostergrid/pkg/config"
)

// checkTimeout bounds one readiness probe across all checkers.
const checkTimeout = 5 * time.Second

// Checker is one readiness dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Handler serves /health, /health/live and /health/ready.
type Handler struct {
	mu       sync.RWMutex
	checkers []Checker
}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterChecker adds a readiness dependency.
func (h *Handler) RegisterChecker(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, c)
}

// HealthResponse is the probe body. Checks maps checker name to "ok" or
// the failure.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func writeProbe(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Health reports that the process is up, with its version.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, http.StatusOK, HealthResponse{Status: "ok", Version: config.Version})
}

// Live is the liveness probe. It never consults dependencies.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, http.StatusOK, HealthResponse{Status: "live"})
}

// Ready runs every checker in parallel and answers 503 if any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checkers := append([]Checker(nil), h.checkers...)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	errs := make([]error, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			errs[i] = c.Check(ctx)
			return nil
		})
	}
	g.Wait()

	resp := HealthResponse{Status: "ready", Checks: make(map[string]string, len(checkers))}
	status := http.StatusOK
	for i, c := range checkers {
		if err := errs[i]; err != nil {
			resp.Checks[c.Name()] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			log.Warn().Err(err).Str("check", c.Name()).Msg("readiness check failed")
			continue
		}
		resp.Checks[c.Name()] = "ok"
	}
	writeProbe(w, status, resp)
}
