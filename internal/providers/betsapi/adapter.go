// Package betsapi reads the in-play and upcoming event feeds of a
// BetsAPI-style REST provider.
package betsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/providers"
)

const (
	inplayPath   = "/v3/events/inplay"
	upcomingPath = "/v3/events/upcoming"
	dayFormat    = "20060102"
)

type Config struct {
	BaseURL string
	Token   string
	SportID string
	// UpcomingDays > 0 fetches one upcoming page per calendar day starting
	// today; 0 issues a single undated upcoming call.
	UpcomingDays int
	Timeout      time.Duration
}

type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAdapter(cfg Config, logger *logrus.Logger) *Adapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: providers.NewHTTPClient(cfg.Timeout, logger),
		logger:     logger,
	}
}

func (a *Adapter) Name() string {
	return "betsapi"
}

func (a *Adapter) Feeds(now time.Time) []providers.Feed {
	feeds := []providers.Feed{{
		Name: "inplay",
		Live: true,
		Fetch: func(ctx context.Context) ([]models.RawMatch, error) {
			return a.fetch(ctx, inplayPath, nil)
		},
	}}

	if a.cfg.UpcomingDays == 0 {
		return append(feeds, providers.Feed{
			Name: "upcoming",
			Fetch: func(ctx context.Context) ([]models.RawMatch, error) {
				return a.fetch(ctx, upcomingPath, nil)
			},
		})
	}

	for i := 0; i < a.cfg.UpcomingDays; i++ {
		day := now.AddDate(0, 0, i).Format(dayFormat)
		feeds = append(feeds, providers.Feed{
			Name: "upcoming:" + day,
			Fetch: func(ctx context.Context) ([]models.RawMatch, error) {
				return a.fetch(ctx, upcomingPath, url.Values{"day": {day}})
			},
		})
	}

	return feeds
}

func (a *Adapter) fetch(ctx context.Context, path string, extra url.Values) ([]models.RawMatch, error) {
	params := url.Values{"sport_id": {a.cfg.SportID}}
	for k, v := range extra {
		params[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	req.Header.Set("Accept", "application/json")

	var body response
	if err := providers.GetJSON(ctx, a.httpClient, req, &body); err != nil {
		return nil, err
	}
	if body.Success == 0 {
		return nil, fmt.Errorf("upstream reported failure: %s", body.Error)
	}

	matches := make([]models.RawMatch, 0, len(body.Results))
	for i := range body.Results {
		matches = append(matches, body.Results[i].toRaw())
	}

	a.logger.WithFields(logrus.Fields{
		"path":    path,
		"params":  extra.Encode(),
		"matches": len(matches),
	}).Debug("betsapi feed fetched")

	return matches, nil
}

type response struct {
	Success int     `json:"success"`
	Error   string  `json:"error"`
	Results []event `json:"results"`
}

type named struct {
	Name string `json:"name"`
}

type timer struct {
	Minute models.FlexString `json:"tm"`
	Second models.FlexString `json:"ts"`
}

type event struct {
	ID     models.FlexString `json:"id"`
	Time   models.FlexString `json:"time"`
	League named             `json:"league"`
	Home   named             `json:"home"`
	Away   named             `json:"away"`
	Score  models.FlexString `json:"ss"`
	Timer  *timer            `json:"timer"`
	// The in-play feed nests prices under "odds"; some upcoming pages only
	// carry them under "main".
	Odds *oddsBlock `json:"odds"`
	Main *oddsBlock `json:"main"`
}

type oddsBlock struct {
	FullTime  *period `json:"full_time"`
	FirstHalf *period `json:"first_half"`
}

func (o *oddsBlock) empty() bool {
	return o == nil || (o.FullTime == nil && o.FirstHalf == nil)
}

type period struct {
	Handicap *handicap `json:"handicap"`
	Goals    *goals    `json:"goals"`
	Result   *result   `json:"result"`
}

type handicap struct {
	Line models.FlexString `json:"handicap"`
	Home models.FlexString `json:"home_od"`
	Away models.FlexString `json:"away_od"`
}

type goals struct {
	Line  models.FlexString `json:"handicap"`
	Over  models.FlexString `json:"over_od"`
	Under models.FlexString `json:"under_od"`
}

type result struct {
	Home models.FlexString `json:"home_od"`
	Draw models.FlexString `json:"draw_od"`
	Away models.FlexString `json:"away_od"`
}

func (e *event) toRaw() models.RawMatch {
	raw := models.RawMatch{
		ID:     e.ID.String(),
		League: e.League.Name,
		Home:   e.Home.Name,
		Away:   e.Away.Name,
		Score:  e.Score.String(),
		Clock:  e.Timer.clock(),
	}

	if sec, err := strconv.ParseInt(e.Time.String(), 10, 64); err == nil && sec > 0 {
		raw.Kickoff = time.Unix(sec, 0).UTC()
	}

	odds := e.Odds
	if odds.empty() {
		odds = e.Main
	}
	if !odds.empty() {
		raw.FullTime = odds.FullTime.toRaw()
		raw.FirstHalf = odds.FirstHalf.toRaw()
	}

	return raw
}

func (t *timer) clock() string {
	if t == nil {
		return ""
	}
	minute := t.Minute.String()
	if minute == "" {
		minute = "0"
	}
	sec, err := strconv.Atoi(t.Second.String())
	if err != nil {
		return minute
	}
	return fmt.Sprintf("%s:%02d", minute, sec)
}

func (p *period) toRaw() *models.RawPeriod {
	if p == nil {
		return nil
	}

	out := &models.RawPeriod{}
	if p.Handicap != nil {
		out.Handicap = &models.RawHandicap{
			Label: p.Handicap.Line.String(),
			Home:  p.Handicap.Home.String(),
			Away:  p.Handicap.Away.String(),
		}
	}
	if p.Goals != nil {
		out.Totals = &models.RawTotals{
			Label: p.Goals.Line.String(),
			Over:  p.Goals.Over.String(),
			Under: p.Goals.Under.String(),
		}
	}
	if p.Result != nil {
		out.HeadToHead = &models.RawHeadToHead{
			Home: p.Result.Home.String(),
			Away: p.Result.Away.String(),
			Draw: p.Result.Draw.String(),
		}
	}
	return out
}
