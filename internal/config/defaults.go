package config

// DefaultSourceWeights favor sources whose engagement signals are strong.
// Unlisted sources weigh 1.0.
var DefaultSourceWeights = map[string]float64{
	"hackernews": 1.5,
	"reddit":     1.0,
	"newsapi":    1.0,
	"rss":        0.9,
	"substack":   1.2,
	"medium":     0.8,
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/pulsefeed.db"
	}
	if cfg.Storage.RetentionDays == 0 {
		cfg.Storage.RetentionDays = 90
	}
	if cfg.Scheduler.IntervalMinutes == 0 {
		cfg.Scheduler.IntervalMinutes = 60
	}

	if cfg.Sources.HackerNews.Limit == 0 {
		cfg.Sources.HackerNews.Limit = 30
	}
	if cfg.Sources.HackerNews.MinScore == 0 {
		cfg.Sources.HackerNews.MinScore = 10
	}
	if cfg.Sources.Reddit.Subreddits == nil {
		cfg.Sources.Reddit.Subreddits = []string{"technology", "programming", "science"}
	}
	if cfg.Sources.Reddit.Limit == 0 {
		cfg.Sources.Reddit.Limit = 25
	}
	if cfg.Sources.Reddit.UserAgent == "" {
		cfg.Sources.Reddit.UserAgent = "pulsefeed/1.0"
	}
	if cfg.Sources.RSS.FeedsPath == "" {
		cfg.Sources.RSS.FeedsPath = "./feeds.yaml"
	}
	if cfg.Sources.RSS.LimitPerFeed == 0 {
		cfg.Sources.RSS.LimitPerFeed = 20
	}
	if cfg.Sources.NewsAPI.Country == "" {
		cfg.Sources.NewsAPI.Country = "us"
	}
	if cfg.Sources.NewsAPI.Categories == nil {
		cfg.Sources.NewsAPI.Categories = []string{"technology", "science"}
	}
	if cfg.Sources.NewsAPI.Limit == 0 {
		cfg.Sources.NewsAPI.Limit = 50
	}
	if cfg.Sources.Substack.Categories == nil {
		cfg.Sources.Substack.Categories = []string{"technology"}
	}
	if cfg.Sources.Substack.LimitPerFeed == 0 {
		cfg.Sources.Substack.LimitPerFeed = 10
	}
	if cfg.Sources.Medium.Categories == nil {
		cfg.Sources.Medium.Categories = []string{"technology"}
	}
	if cfg.Sources.Medium.LimitPerFeed == 0 {
		cfg.Sources.Medium.LimitPerFeed = 10
	}

	if cfg.Analyze.Dedup.Threshold == 0 {
		cfg.Analyze.Dedup.Threshold = 0.5
	}
	if cfg.Analyze.Dedup.NumPerm == 0 {
		cfg.Analyze.Dedup.NumPerm = 128
	}
	if cfg.Analyze.Keywords.MinLength == 0 {
		cfg.Analyze.Keywords.MinLength = 3
	}
	if cfg.Analyze.Keywords.MaxWords == 0 {
		cfg.Analyze.Keywords.MaxWords = 3
	}
	if cfg.Analyze.Keywords.MaxPerArticle == 0 {
		cfg.Analyze.Keywords.MaxPerArticle = 10
	}
	if cfg.Analyze.Keywords.TopN == 0 {
		cfg.Analyze.Keywords.TopN = 50
	}
	if cfg.Analyze.Keywords.MinFrequency == 0 {
		cfg.Analyze.Keywords.MinFrequency = 2
	}
	if cfg.Analyze.Hotness.Gravity == 0 {
		cfg.Analyze.Hotness.Gravity = 1.8
	}
	if cfg.Analyze.Hotness.TopN == 0 {
		cfg.Analyze.Hotness.TopN = 20
	}
	if cfg.Analyze.Hotness.SourceWeights == nil {
		cfg.Analyze.Hotness.SourceWeights = DefaultSourceWeights
	}
	if cfg.Analyze.Velocity.TimeframeDays == 0 {
		cfg.Analyze.Velocity.TimeframeDays = 7
	}
	if cfg.Analyze.Velocity.MinGrowthPercent == 0 {
		cfg.Analyze.Velocity.MinGrowthPercent = 50
	}
	if cfg.Analyze.Velocity.MinCurrentVolume == 0 {
		cfg.Analyze.Velocity.MinCurrentVolume = 5
	}
	if cfg.Analyze.Velocity.SpikeThreshold == 0 {
		cfg.Analyze.Velocity.SpikeThreshold = 3.0
	}
}
