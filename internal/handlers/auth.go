package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/services"
)

type AuthHandler struct {
	ledger     *services.LedgerService
	jwtService *services.JWTService
	logger     *logrus.Logger
}

func NewAuthHandler(ledger *services.LedgerService, jwtService *services.JWTService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		ledger:     ledger,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if err := h.ledger.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	user, err := h.ledger.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req models.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	token, err := h.jwtService.AdminLogin(req.Username, req.Password)
	if err != nil {
		h.logger.WithField("username", req.Username).Warn("admin login refused")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}
