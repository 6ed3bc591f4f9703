package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tadeyemo32/prospect-backend/models"
	"github.com/tadeyemo32/prospect-backend/services"
)

func (h *Handler) hubSpotToken(c *gin.Context) {
	var req models.HubSpotTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	tokens, err := h.HubSpot.Exchange(c.Request.Context(), req.Code, req.RedirectURI)
	if err != nil {
		var hsErr *services.HubSpotError
		if errors.As(err, &hsErr) {
			detail(c, hsErr.Status, hsErr.Detail)
			return
		}
		detail(c, http.StatusInternalServerError, "Token exchange failed")
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *Handler) hubSpotHealth(c *gin.Context) {
	status := "healthy"
	if !h.HubSpot.Configured() {
		status = "not_configured"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"configured": h.HubSpot.Configured(),
		"timestamp":  services.Now(),
	})
}

func (h *Handler) hubSpotDebug(c *gin.Context) {
	c.JSON(http.StatusOK, h.HubSpot.Debug())
}

func (h *Handler) hubSpotTest(c *gin.Context) {
	reachable, msg := h.HubSpot.Probe(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"configured": h.HubSpot.Configured(),
		"reachable":  reachable,
		"detail":     msg,
		"token_url":  h.HubSpot.TokenURL(),
	})
}
