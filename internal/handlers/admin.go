package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/services"
)

type AdminHandler struct {
	ledger *services.LedgerService
	logger *logrus.Logger
}

func NewAdminHandler(ledger *services.LedgerService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{ledger: ledger, logger: logger}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.ledger.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	var req models.BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	user, err := h.ledger.AdjustBalance(c.Request.Context(), req.Username, req.Amount, req.Type)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": user.Balance,
	})
}

func (h *AdminHandler) Settle(c *gin.Context) {
	var req models.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	outcome, err := h.ledger.Settle(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"ticketId":      outcome.TicketID,
		"status":        outcome.Status,
		"credited":      outcome.Credited,
		"creditSkipped": outcome.CreditSkipped,
		"balance":       outcome.Balance,
	})
}
