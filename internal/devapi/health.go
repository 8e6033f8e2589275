package devapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// pinger is implemented by replay stores with an external backend.
type pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	replay ReplayStore
}

// liveness handles GET /health. Returns 200 immediately; confirms the
// process is alive.
func (h *healthHandler) liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// readiness handles GET /health/ready. The only external dependency is the
// replay store; an in-memory store is always ready.
func (h *healthHandler) readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	if p, ok := h.replay.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			deps["replay"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["replay"] = dependencyStatus{Status: "ok"}
		}
	} else {
		deps["replay"] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	return c.JSON(httpStatus, map[string]any{
		"status":       status,
		"dependencies": deps,
	})
}
