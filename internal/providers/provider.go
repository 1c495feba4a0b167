// Package providers defines the contract between the odds pipeline and the
// upstream odds APIs. Each upstream lives in its own subpackage.
package providers

import (
	"context"
	"time"

	"sportsbook-backend/internal/models"
)

// Feed is one upstream call. Live marks every record it returns as in-play,
// whatever the record itself says.
type Feed struct {
	Name  string
	Live  bool
	Fetch func(ctx context.Context) ([]models.RawMatch, error)
}

type Provider interface {
	Name() string
	// Feeds lists the calls needed for one refresh. now fixes the calendar
	// for day-partitioned feeds.
	Feeds(now time.Time) []Feed
}
