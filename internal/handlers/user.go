package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/services"
)

type UserHandler struct {
	ledger *services.LedgerService
	logger *logrus.Logger
}

func NewUserHandler(ledger *services.LedgerService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{ledger: ledger, logger: logger}
}

// Sync answers {} for an unknown user.
func (h *UserHandler) Sync(c *gin.Context) {
	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	user, err := h.ledger.Sync(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) PlaceBet(c *gin.Context) {
	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ticket, err := h.ledger.PlaceBet(c.Request.Context(), req.Username, req.Stake, req.Ticket)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ticket":  ticket,
	})
}
