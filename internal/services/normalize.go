package services

import (
	"strings"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/oddsmath"
)

const defaultScore = "0-0"

// mergeFeeds concatenates feed results in order. A record repeated across
// feeds keeps its first position; liveness from any copy wins.
func mergeFeeds(results [][]models.RawMatch) []models.RawMatch {
	var merged []models.RawMatch
	seen := make(map[string]int)

	for _, feed := range results {
		for _, m := range feed {
			if m.ID != "" {
				if i, dup := seen[m.ID]; dup {
					if m.Live {
						merged[i].Live = true
					}
					if merged[i].Clock == "" {
						merged[i].Clock = m.Clock
					}
					continue
				}
				seen[m.ID] = len(merged)
			}
			merged = append(merged, m)
		}
	}

	return merged
}

// filterLeagues drops records with no league or a league containing any
// denylisted term. denylist must already be lower case.
func filterLeagues(matches []models.RawMatch, denylist []string) []models.RawMatch {
	kept := make([]models.RawMatch, 0, len(matches))
	for _, m := range matches {
		league := strings.ToLower(strings.TrimSpace(m.League))
		if league == "" || containsAny(league, denylist) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func normalizeMatch(raw models.RawMatch) models.Match {
	score := strings.TrimSpace(raw.Score)
	if score == "" {
		score = defaultScore
	}

	return models.Match{
		ID:        raw.ID,
		League:    strings.TrimSpace(raw.League),
		Home:      raw.Home,
		Away:      raw.Away,
		Time:      raw.Kickoff,
		IsLive:    raw.Live || raw.Clock != "",
		Score:     score,
		Timer:     raw.Clock,
		FullTime:  normalizePeriod(raw.FullTime),
		FirstHalf: normalizePeriod(raw.FirstHalf),
	}
}

// normalizePeriod always returns a fully populated line; absent markets and
// prices become placeholders.
func normalizePeriod(p *models.RawPeriod) models.OddsLine {
	line := models.OddsLine{
		Handicap:   models.HandicapLine{Label: oddsmath.Placeholder, Home: oddsmath.Placeholder, Away: oddsmath.Placeholder},
		Totals:     models.TotalsLine{Label: oddsmath.Placeholder, Over: oddsmath.Placeholder, Under: oddsmath.Placeholder},
		HeadToHead: models.HeadToHeadLine{Home: oddsmath.Placeholder, Away: oddsmath.Placeholder, Draw: oddsmath.Placeholder},
	}
	if p == nil {
		return line
	}

	if h := p.Handicap; h != nil {
		line.Handicap = models.HandicapLine{
			Label: labelOrPlaceholder(h.Label),
			Home:  oddsmath.DecimalToMalay(h.Home),
			Away:  oddsmath.DecimalToMalay(h.Away),
		}
	}
	if t := p.Totals; t != nil {
		line.Totals = models.TotalsLine{
			Label: labelOrPlaceholder(t.Label),
			Over:  oddsmath.DecimalToMalay(t.Over),
			Under: oddsmath.DecimalToMalay(t.Under),
		}
	}
	if x := p.HeadToHead; x != nil {
		line.HeadToHead = models.HeadToHeadLine{
			Home: oddsmath.DecimalToMalay(x.Home),
			Away: oddsmath.DecimalToMalay(x.Away),
			Draw: oddsmath.DecimalToMalay(x.Draw),
		}
	}

	return line
}

func labelOrPlaceholder(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return oddsmath.Placeholder
	}
	return label
}
