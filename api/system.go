package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tadeyemo32/prospect-backend/services"
)

// expectedRoutes must be registered for a deployment to count as in sync.
var expectedRoutes = []string{
	"GET /",
	"POST /api/search",
	"GET /api/search",
	"GET /api/search/:request_id",
	"DELETE /api/search/:request_id",
	"GET /api/demo/search-example",
	"GET /api/demo/search-stream",
	"GET /api/demo/categories",
	"POST /api/hubspot/oauth/token",
	"GET /api/hubspot/oauth/health",
	"GET /api/hubspot/oauth/debug",
	"GET /api/hubspot/oauth/test",
}

func (h *Handler) routeTable() (registered []string, missing []string) {
	have := map[string]bool{}
	for _, r := range h.routes() {
		key := r.Method + " " + r.Path
		have[key] = true
		registered = append(registered, key)
	}
	sort.Strings(registered)
	for _, want := range expectedRoutes {
		if !have[want] {
			missing = append(missing, want)
		}
	}
	return registered, missing
}

func (h *Handler) diagnostics(c *gin.Context) {
	registered, missing := h.routeTable()
	status := "ok"
	if len(missing) > 0 {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":             status,
		"routes":             registered,
		"routes_registered":  len(registered),
		"missing_routes":     missing,
		"hubspot_configured": h.HubSpot.Configured(),
		"timestamp":          services.Now(),
	})
}

func (h *Handler) syncCheck(c *gin.Context) {
	registered, missing := h.routeTable()
	c.JSON(http.StatusOK, gin.H{
		"version":        h.Config.Version,
		"environment":    h.Config.Env,
		"route_count":    len(registered),
		"expected_count": len(expectedRoutes),
		"missing_routes": missing,
		"in_sync":        len(missing) == 0,
		"timestamp":      services.Now(),
	})
}

func (h *Handler) comprehensiveHealth(c *gin.Context) {
	ctx := c.Request.Context()
	healthy := true
	checks := gin.H{}

	if err := h.DB.Ping(ctx); err != nil {
		healthy = false
		checks["database"] = gin.H{"ok": false, "error": err.Error()}
	} else {
		checks["database"] = gin.H{"ok": true}
	}

	checks["integrations"] = h.Config.Integrations()

	if status, err := h.selfCall(ctx, "/api/hubspot/oauth/health"); err != nil {
		healthy = false
		checks["hubspot_endpoint"] = gin.H{"ok": false, "error": err.Error()}
	} else {
		checks["hubspot_endpoint"] = gin.H{"ok": status == http.StatusOK, "status": status}
		healthy = healthy && status == http.StatusOK
	}

	overall := "healthy"
	if !healthy {
		overall = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    overall,
		"version":   h.Config.Version,
		"checks":    checks,
		"timestamp": services.Now(),
	})
}

// selfCall requests one of our own endpoints through API_BASE_URL, as an
// external client would.
func (h *Handler) selfCall(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Config.APIBaseURL+path, nil)
	if err != nil {
		return 0, err
	}
	if h.Config.BackendKey != "" {
		req.Header.Set(BackendKeyHeader, h.Config.BackendKey)
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (h *Handler) webhookTest(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		detail(c, http.StatusBadRequest, "Could not read body")
		return
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		detail(c, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	h.log.Info("Webhook test received", "bytes", len(body))
	c.JSON(http.StatusOK, gin.H{
		"status":    "received",
		"received":  payload,
		"timestamp": services.Now(),
	})
}
