package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/services"
)

type SubscriptionHandler struct {
	subs services.SubscriptionService
}

func NewSubscriptionHandler(subs services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// Get always answers; an unreachable billing backend degrades to free tier.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.subs.Get(c.Request.Context(), userID))
}

type upgradeRequest struct {
	Tier models.SubscriptionTier `json:"tier" binding:"required"`
}

func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier is required"})
		return
	}

	data, err := h.subs.Upgrade(c.Request.Context(), userID, req.Tier)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
