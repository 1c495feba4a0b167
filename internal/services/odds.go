package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/providers"
)

// OddsService builds the odds board: fetch every feed of the provider in
// parallel, merge, drop denylisted leagues, normalize and sort by kickoff.
type OddsService struct {
	provider providers.Provider
	cache    *OddsCache
	denylist []string
	logger   *logrus.Logger
	now      func() time.Time
	group    singleflight.Group
}

func NewOddsService(provider providers.Provider, cache *OddsCache, denylist []string, logger *logrus.Logger) *OddsService {
	lowered := make([]string, 0, len(denylist))
	for _, term := range denylist {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			lowered = append(lowered, term)
		}
	}

	return &OddsService{
		provider: provider,
		cache:    cache,
		denylist: lowered,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source handed to provider feeds.
func (s *OddsService) SetClock(now func() time.Time) {
	s.now = now
}

// Matches never fails. Any upstream problem degrades to fewer matches or an
// empty board.
func (s *OddsService) Matches(ctx context.Context) []models.Match {
	if matches, ok := s.cache.Get(); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		s.logger.WithField("matches", len(matches)).Debug("serving odds from cache")
		return matches
	}
	cacheLookups.WithLabelValues("miss").Inc()

	// Concurrent misses share one refresh. The refresh must outlive the
	// request that happened to start it.
	refreshCtx := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do("board", func() (interface{}, error) {
		return s.refresh(refreshCtx), nil
	})

	return v.([]models.Match)
}

func (s *OddsService) refresh(ctx context.Context) (matches []models.Match) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("odds refresh panicked, serving empty board")
			matches = []models.Match{}
		}
	}()

	results := s.fetch(ctx)

	merged := mergeFeeds(results)
	kept := filterLeagues(merged, s.denylist)

	matches = make([]models.Match, 0, len(kept))
	for _, raw := range kept {
		matches = append(matches, normalizeMatch(raw))
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Time.Before(matches[j].Time)
	})

	s.cache.Put(matches)

	s.logger.WithFields(logrus.Fields{
		"provider": s.provider.Name(),
		"fetched":  len(merged),
		"filtered": len(merged) - len(kept),
		"matches":  len(matches),
		"duration": time.Since(start).String(),
	}).Info("odds board refreshed")

	return matches
}

// fetch runs every feed and waits for all of them. A failed feed contributes
// nothing; it never cancels its siblings.
func (s *OddsService) fetch(ctx context.Context) [][]models.RawMatch {
	feeds := s.provider.Feeds(s.now())
	results := make([][]models.RawMatch, len(feeds))

	var g errgroup.Group
	for i, feed := range feeds {
		g.Go(func() error {
			matches, err := s.fetchFeed(ctx, feed)
			if err != nil {
				upstreamRequests.WithLabelValues(s.provider.Name(), feedKind(feed.Name), "error").Inc()
				s.logger.WithError(err).WithFields(logrus.Fields{
					"provider": s.provider.Name(),
					"feed":     feed.Name,
				}).Warn("odds feed failed, substituting empty result")
				return nil
			}

			upstreamRequests.WithLabelValues(s.provider.Name(), feedKind(feed.Name), "ok").Inc()
			if feed.Live {
				for j := range matches {
					matches[j].Live = true
				}
			}
			results[i] = matches
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *OddsService) fetchFeed(ctx context.Context, feed providers.Feed) (matches []models.RawMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("feed panicked: %v", r)
		}
	}()
	return feed.Fetch(ctx)
}
