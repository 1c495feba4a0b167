// Package apifootball reads pre-match odds per league from API-Football.
package apifootball

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
	betHandicap      = "Asian Handicap"
	betTotals        = "Goals Over/Under"
	betMatchWinner   = "Match Winner"
	firstHalfSuffix  = " First Half"
	defaultBookmaker = 1
)

// liveStatuses are the fixture.status.short codes of a match in progress.
var liveStatuses = map[string]bool{
	"1H": true, "HT": true, "2H": true, "ET": true,
	"BT": true, "P": true, "INT": true, "LIVE": true,
}

type Config struct {
	BaseURL   string
	Token     string
	Leagues   []int
	Bookmaker int
	// Season 0 means the calendar year of the refresh.
	Season  int
	Timeout time.Duration
}

type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAdapter(cfg Config, logger *logrus.Logger) *Adapter {
	if cfg.Bookmaker == 0 {
		cfg.Bookmaker = defaultBookmaker
	}
	return &Adapter{
		cfg:        cfg,
		httpClient: providers.NewHTTPClient(cfg.Timeout, logger),
		logger:     logger,
	}
}

func (a *Adapter) Name() string {
	return "apifootball"
}

func (a *Adapter) Feeds(now time.Time) []providers.Feed {
	season := a.cfg.Season
	if season == 0 {
		season = now.Year()
	}

	feeds := make([]providers.Feed, 0, len(a.cfg.Leagues))
	for _, league := range a.cfg.Leagues {
		feeds = append(feeds, providers.Feed{
			Name: "league:" + strconv.Itoa(league),
			Fetch: func(ctx context.Context) ([]models.RawMatch, error) {
				return a.fetch(ctx, league, season)
			},
		})
	}
	return feeds
}

func (a *Adapter) fetch(ctx context.Context, league, season int) ([]models.RawMatch, error) {
	params := url.Values{
		"league":    {strconv.Itoa(league)},
		"season":    {strconv.Itoa(season)},
		"bookmaker": {strconv.Itoa(a.cfg.Bookmaker)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/odds?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-apisports-key", a.cfg.Token)

	var body response
	if err := providers.GetJSON(ctx, a.httpClient, req, &body); err != nil {
		return nil, err
	}

	matches := make([]models.RawMatch, 0, len(body.Response))
	for i := range body.Response {
		matches = append(matches, body.Response[i].toRaw())
	}

	a.logger.WithFields(logrus.Fields{
		"league":  league,
		"season":  season,
		"matches": len(matches),
	}).Debug("api-football league fetched")

	return matches, nil
}

type response struct {
	Response []fixtureOdds `json:"response"`
}

type named struct {
	Name string `json:"name"`
}

type fixtureOdds struct {
	League  named `json:"league"`
	Fixture struct {
		ID     models.FlexString `json:"id"`
		Date   models.FlexString `json:"date"`
		Status struct {
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	Teams struct {
		Home named `json:"home"`
		Away named `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
	Bookmakers []struct {
		Bets []bet `json:"bets"`
	} `json:"bookmakers"`
}

type bet struct {
	Name   string `json:"name"`
	Values []struct {
		Value models.FlexString `json:"value"`
		Odd   models.FlexString `json:"odd"`
	} `json:"values"`
}

func (f *fixtureOdds) toRaw() models.RawMatch {
	raw := models.RawMatch{
		ID:     f.Fixture.ID.String(),
		League: f.League.Name,
		Home:   f.Teams.Home.Name,
		Away:   f.Teams.Away.Name,
		Live:   liveStatuses[f.Fixture.Status.Short],
	}

	if kickoff, err := time.Parse(time.RFC3339, f.Fixture.Date.String()); err == nil {
		raw.Kickoff = kickoff.UTC()
	}
	if raw.Live && f.Fixture.Status.Elapsed != nil {
		raw.Clock = strconv.Itoa(*f.Fixture.Status.Elapsed)
	}
	if f.Goals.Home != nil && f.Goals.Away != nil {
		raw.Score = fmt.Sprintf("%d-%d", *f.Goals.Home, *f.Goals.Away)
	}

	if len(f.Bookmakers) == 0 {
		return raw
	}
	bets := make(map[string]*bet, len(f.Bookmakers[0].Bets))
	for i := range f.Bookmakers[0].Bets {
		b := &f.Bookmakers[0].Bets[i]
		bets[b.Name] = b
	}

	raw.FullTime = buildPeriod(bets, "")
	raw.FirstHalf = buildPeriod(bets, firstHalfSuffix)
	return raw
}

func buildPeriod(bets map[string]*bet, suffix string) *models.RawPeriod {
	p := &models.RawPeriod{}

	if b := bets[betHandicap+suffix]; b != nil && len(b.Values) >= 2 {
		p.Handicap = &models.RawHandicap{
			Label: b.Values[0].Value.String(),
			Home:  b.Values[0].Odd.String(),
			Away:  b.Values[1].Odd.String(),
		}
	}
	if b := bets[betTotals+suffix]; b != nil && len(b.Values) >= 2 {
		p.Totals = &models.RawTotals{
			Label: b.Values[0].Value.String(),
			Over:  b.Values[0].Odd.String(),
			Under: b.Values[1].Odd.String(),
		}
	}
	if b := bets[betMatchWinner+suffix]; b != nil && len(b.Values) >= 3 {
		p.HeadToHead = &models.RawHeadToHead{
			Home: b.Values[0].Odd.String(),
			Draw: b.Values[1].Odd.String(),
			Away: b.Values[2].Odd.String(),
		}
	}

	if p.Handicap == nil && p.Totals == nil && p.HeadToHead == nil {
		return nil
	}
	return p
}
