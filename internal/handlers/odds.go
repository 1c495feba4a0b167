package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sportsbook-backend/internal/services"
)

type OddsHandler struct {
	odds *services.OddsService
}

func NewOddsHandler(odds *services.OddsService) *OddsHandler {
	return &OddsHandler{odds: odds}
}

// GetOdds always answers 200; upstream trouble shows up as a shorter or
// empty board.
func (h *OddsHandler) GetOdds(c *gin.Context) {
	c.JSON(http.StatusOK, h.odds.Matches(c.Request.Context()))
}
