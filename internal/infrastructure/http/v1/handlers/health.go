package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the sequence store is reachable.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// StoreCheck is the readiness result of the sequence store.
type StoreCheck struct {
	Driver    string `json:"driver"`
	Healthy   bool   `json:"healthy"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler serves the probe endpoints.
type HealthHandler struct {
	store       Pinger
	version     string
	pingTimeout time.Duration
}

func NewHealthHandler(store Pinger, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version, pingTimeout: 2 * time.Second}
}

// Live reports that the process is serving requests. It never touches the store.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings the store; allocations fail while it is unreachable.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	check := StoreCheck{
		Driver:    h.store.Name(),
		Healthy:   err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	status, code := "ok", http.StatusOK
	if err != nil {
		check.Error = err.Error()
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "store": check})
}

// Info returns the build version and store driver.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "sequencer",
		"version": h.version,
		"store":   h.store.Name(),
	})
}
