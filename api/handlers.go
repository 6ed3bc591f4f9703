package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tadeyemo32/prospect-backend/config"
	"github.com/tadeyemo32/prospect-backend/db"
	"github.com/tadeyemo32/prospect-backend/logger"
	"github.com/tadeyemo32/prospect-backend/models"
	"github.com/tadeyemo32/prospect-backend/services"
)

// ModelSwitcher reads and changes the active LLM model at runtime.
type ModelSwitcher interface {
	Model() string
	SetModel(model string)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the HTTP surface. Model may be nil when no LLM
// is configured.
type Deps struct {
	Config  *config.Config
	Search  *services.SearchService
	DB      Pinger
	Demo    *services.DemoGenerator
	HubSpot *services.HubSpotOAuth
	Model   ModelSwitcher
	Log     *logger.Logger
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	Deps
	log            *logger.Logger
	http           *http.Client
	streamInterval time.Duration
	routes         func() gin.RoutesInfo
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		Deps:           deps,
		log:            deps.Log.With("component", "api"),
		http:           &http.Client{Timeout: 5 * time.Second},
		streamInterval: 300 * time.Millisecond,
		routes:         func() gin.RoutesInfo { return nil },
	}
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": services.Now(),
		"version":   h.Config.Version,
	})
}

// ─── Searches ────────────────────────────────────────────────────────────────

func (h *Handler) createSearch(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Search.Submit(c.Request.Context(), req)
	var rej *services.Rejection
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.As(err, &rej):
		detail(c, http.StatusBadRequest, rej.Reason)
	case errors.Is(err, services.ErrInvalidRequest):
		detail(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrInvalidRequest.Error()+": "))
	default:
		h.log.Error("Could not create search", "error", err)
		detail(c, http.StatusInternalServerError, "Failed to create search")
	}
}

func (h *Handler) getSearch(c *gin.Context) {
	id := c.Param("request_id")
	if _, err := uuid.Parse(id); err != nil {
		detail(c, http.StatusNotFound, "Search not found")
		return
	}
	p, err := h.Search.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		detail(c, http.StatusNotFound, "Search not found")
	case err != nil:
		h.log.Error("Could not load search", "request_id", id, "error", err)
		detail(c, http.StatusInternalServerError, "Failed to load search")
	default:
		c.JSON(http.StatusOK, p)
	}
}

func (h *Handler) listSearches(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.Search.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Could not list searches", "error", err)
		detail(c, http.StatusInternalServerError, "Failed to list searches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"searches": list, "count": len(list)})
}

func (h *Handler) deleteSearch(c *gin.Context) {
	id := c.Param("request_id")
	if _, err := uuid.Parse(id); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request_id format")
		return
	}
	err := h.Search.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		detail(c, http.StatusNotFound, "Search not found")
	case err != nil:
		h.log.Error("Could not delete search", "request_id", id, "error", err)
		detail(c, http.StatusInternalServerError, "Failed to delete search")
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Search deleted", "request_id": id})
	}
}

// ─── Model ───────────────────────────────────────────────────────────────────

func (h *Handler) getModelHandler(c *gin.Context) {
	if h.Model == nil {
		c.JSON(http.StatusOK, gin.H{"provider": "openai", "model": "", "configured": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": "openai", "model": h.Model.Model(), "configured": true})
}

func (h *Handler) setModelHandler(c *gin.Context) {
	var body struct {
		Model string `json:"model"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Model) == "" {
		detail(c, http.StatusBadRequest, "model is required")
		return
	}
	if h.Model == nil {
		detail(c, http.StatusServiceUnavailable, "OpenAI is not configured")
		return
	}
	h.Model.SetModel(strings.TrimSpace(body.Model))
	h.log.Info("Active model changed", "model", h.Model.Model())
	c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": "openai", "model": h.Model.Model()})
}
