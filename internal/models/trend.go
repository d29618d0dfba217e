package models

import "time"

// HistoryPoint is one day of mention volume for a keyword, as stored in the
// snapshot store. Date is a UTC calendar day formatted as "2006-01-02".
type HistoryPoint struct {
	Date     string   `json:"date"`
	Mentions int      `json:"mentions"`
	Sources  []string `json:"sources"`
}

// TrendingResult is the derived momentum view for one keyword. It is computed
// per run and never persisted as-is.
type TrendingResult struct {
	Keyword        string  `json:"keyword"`
	CurrentVolume  int     `json:"current_volume"`
	PreviousVolume int     `json:"previous_volume"`
	Velocity       float64 `json:"velocity"`
	PercentGrowth  float64 `json:"percent_growth"`
	IsNew          bool    `json:"is_new"`
	IsSpike        bool    `json:"is_spike"`
	ZScore         float64 `json:"z_score"`
}

// HotTopic is a ranked keyword from the latest pipeline run, persisted so the
// API can serve results across restarts.
type HotTopic struct {
	Rank           int             `json:"rank"`
	Keyword        string          `json:"keyword"`
	Score          float64         `json:"score"`
	Mentions       int             `json:"mentions"`
	Sources        []string        `json:"sources"`
	SampleArticles []SampleArticle `json:"sample_articles"`
	FetchedAt      time.Time       `json:"fetched_at"`
}

// TrendingTopic is a ranked TrendingResult snapshot from the latest run.
type TrendingTopic struct {
	Rank int `json:"rank"`
	TrendingResult
	FetchedAt time.Time `json:"fetched_at"`
}
