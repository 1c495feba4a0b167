package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/services"
)

var badRequestErrors = []error{
	services.ErrInvalidCredentials,
	services.ErrAlreadyExists,
	services.ErrInsufficientBalance,
	services.ErrNotFound,
	services.ErrInvalidStake,
	services.ErrInvalidAmount,
	services.ErrInvalidResult,
}

func statusFor(err error) int {
	if errors.Is(err, services.ErrConflict) {
		return http.StatusConflict
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": msg}. Internal errors are logged and hidden
// from the client.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}
