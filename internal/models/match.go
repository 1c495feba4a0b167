package models

import "time"

// Match is one fixture as served on the odds board. Every nested line is a
// value type so the JSON shape never loses a key.
type Match struct {
	ID        string    `json:"id"`
	League    string    `json:"league"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	Time      time.Time `json:"time"`
	IsLive    bool      `json:"isLive"`
	Score     string    `json:"score"`
	Timer     string    `json:"timer"`
	FullTime  OddsLine  `json:"fullTime"`
	FirstHalf OddsLine  `json:"firstHalf"`
}

type OddsLine struct {
	Handicap   HandicapLine   `json:"hdp"`
	Totals     TotalsLine     `json:"ou"`
	HeadToHead HeadToHeadLine `json:"xx"`
}

type HandicapLine struct {
	Label string `json:"label"`
	Home  string `json:"h"`
	Away  string `json:"a"`
}

type TotalsLine struct {
	Label string `json:"label"`
	Over  string `json:"o"`
	Under string `json:"u"`
}

type HeadToHeadLine struct {
	Home string `json:"h"`
	Away string `json:"a"`
	Draw string `json:"d"`
}

// RawMatch is what a provider adapter hands to the pipeline. Prices are
// decimal odds as the upstream sent them; an empty string means absent.
type RawMatch struct {
	ID        string
	League    string
	Home      string
	Away      string
	Kickoff   time.Time
	Live      bool
	Score     string
	Clock     string
	FullTime  *RawPeriod
	FirstHalf *RawPeriod
}

type RawPeriod struct {
	Handicap   *RawHandicap
	Totals     *RawTotals
	HeadToHead *RawHeadToHead
}

type RawHandicap struct {
	Label string
	Home  string
	Away  string
}

type RawTotals struct {
	Label string
	Over  string
	Under string
}

type RawHeadToHead struct {
	Home string
	Away string
	Draw string
}
