package apifootball_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/providers/apifootball"
)

const leagueBody = `{
  "response": [{
    "league": {"id": 39, "name": "Premier League"},
    "fixture": {"id": 868001, "date": "2026-10-18T14:00:00+00:00", "status": {"short": "NS", "elapsed": null}},
    "teams": {"home": {"name": "Liverpool"}, "away": {"name": "Everton"}},
    "goals": {"home": null, "away": null},
    "bookmakers": [{
      "id": 1,
      "bets": [
        {"name": "Match Winner", "values": [{"value": "Home", "odd": "1.50"}, {"value": "Draw", "odd": "4.20"}, {"value": "Away", "odd": "6.50"}]},
        {"name": "Asian Handicap", "values": [{"value": "Home -1", "odd": "1.95"}, {"value": "Away -1", "odd": "1.85"}]},
        {"name": "Goals Over/Under First Half", "values": [{"value": "Over 0.5", "odd": "1.40"}, {"value": "Under 0.5", "odd": "2.80"}]},
        {"name": "Goals Over/Under", "values": [{"value": "Over 2.5"}]}
      ]
    }]
  }, {
    "league": {"id": 39, "name": "Premier League"},
    "fixture": {"id": 868002, "date": "2026-10-14T19:00:00+00:00", "status": {"short": "2H", "elapsed": 67}},
    "teams": {"home": {"name": "Leeds"}, "away": {"name": "Fulham"}},
    "goals": {"home": 2, "away": 1},
    "bookmakers": []
  }]
}`

func TestFetchLeague(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/odds" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("x-apisports-key"); got != "key" {
			t.Errorf("Expected api key header, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("league") != "39" || q.Get("season") != "2026" || q.Get("bookmaker") != "1" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		io.WriteString(w, leagueBody)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	adapter := apifootball.NewAdapter(apifootball.Config{
		BaseURL: server.URL,
		Token:   "key",
		Leagues: []int{39},
		Timeout: time.Second,
	}, logger)

	feeds := adapter.Feeds(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	if len(feeds) != 1 || feeds[0].Name != "league:39" {
		t.Fatalf("Expected one league feed, got %d", len(feeds))
	}

	matches, err := feeds[0].Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}

	pre := matches[0]
	if pre.ID != "868001" || pre.Live || pre.Clock != "" || pre.Score != "" {
		t.Errorf("Unexpected pre-match fields %+v", pre)
	}
	if pre.Kickoff.Format(time.RFC3339) != "2026-10-18T14:00:00Z" {
		t.Errorf("Unexpected kickoff %s", pre.Kickoff)
	}
	ft := pre.FullTime
	if ft == nil || ft.HeadToHead.Home != "1.50" || ft.HeadToHead.Draw != "4.20" || ft.HeadToHead.Away != "6.50" {
		t.Fatalf("Match winner not mapped: %+v", ft)
	}
	if ft.Handicap.Label != "Home -1" || ft.Handicap.Away != "1.85" {
		t.Errorf("Handicap not mapped: %+v", ft.Handicap)
	}
	if ft.Totals != nil {
		t.Errorf("Totals with a single value should be skipped, got %+v", ft.Totals)
	}
	if pre.FirstHalf == nil || pre.FirstHalf.Totals.Under != "2.80" || pre.FirstHalf.HeadToHead != nil {
		t.Errorf("First half not mapped: %+v", pre.FirstHalf)
	}

	live := matches[1]
	if !live.Live || live.Clock != "67" || live.Score != "2-1" {
		t.Errorf("Unexpected live fields %+v", live)
	}
	if live.FullTime != nil || live.FirstHalf != nil {
		t.Error("Match without bookmakers should have no odds")
	}
}

func TestFeedsUseConfiguredSeason(t *testing.T) {
	adapter := apifootball.NewAdapter(apifootball.Config{Leagues: []int{39, 140, 2}, Season: 2025}, logrus.New())

	feeds := adapter.Feeds(time.Now())
	if len(feeds) != 3 || feeds[2].Name != "league:2" {
		t.Fatalf("Unexpected feeds %d", len(feeds))
	}
	for _, f := range feeds {
		if f.Live {
			t.Errorf("League feed %s should not be tagged live", f.Name)
		}
	}
}
