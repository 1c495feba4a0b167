package services

import "sportsbook-backend/internal/models"

// Broadcaster receives balance changes after they are committed.
type Broadcaster interface {
	BroadcastBalance(update models.BalanceUpdate)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastBalance(models.BalanceUpdate) {}
