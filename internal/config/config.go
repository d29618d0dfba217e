// Package config provides configuration loading and structs for the
// pulsefeed service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sources   SourcesConfig   `yaml:"sources"`
	Analyze   AnalyzeConfig   `yaml:"analyze"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the snapshot database location and retention.
type StorageConfig struct {
	DatabasePath  string `yaml:"database_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// SchedulerConfig controls the periodic pipeline trigger.
type SchedulerConfig struct {
	Enabled         *bool `yaml:"enabled"`
	IntervalMinutes int   `yaml:"interval_minutes"`
}

// EnabledOrDefault reports whether the scheduler should run; defaults to
// true when unset.
func (s *SchedulerConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// SourcesConfig holds per-source fetcher settings.
type SourcesConfig struct {
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	Reddit     RedditConfig     `yaml:"reddit"`
	RSS        RSSConfig        `yaml:"rss"`
	NewsAPI    NewsAPIConfig    `yaml:"newsapi"`
	Substack   DiscoveryConfig  `yaml:"substack"`
	Medium     DiscoveryConfig  `yaml:"medium"`
}

// HackerNewsConfig configures the Hacker News fetcher.
type HackerNewsConfig struct {
	Enabled  *bool `yaml:"enabled"`
	Limit    int   `yaml:"limit"`
	MinScore int   `yaml:"min_score"`
}

// EnabledOrDefault defaults to true when unset.
func (c *HackerNewsConfig) EnabledOrDefault() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return true
}

// RedditConfig configures the Reddit fetcher.
type RedditConfig struct {
	Enabled    *bool    `yaml:"enabled"`
	Subreddits []string `yaml:"subreddits"`
	Limit      int      `yaml:"limit"`
	MinScore   int      `yaml:"min_score"`
	UserAgent  string   `yaml:"user_agent"`
}

// EnabledOrDefault defaults to true when unset.
func (c *RedditConfig) EnabledOrDefault() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return true
}

// RSSConfig configures the generic RSS fetcher.
type RSSConfig struct {
	Enabled      *bool  `yaml:"enabled"`
	FeedsPath    string `yaml:"feeds_path"`
	LimitPerFeed int    `yaml:"limit_per_feed"`
}

// EnabledOrDefault defaults to true when unset.
func (c *RSSConfig) EnabledOrDefault() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return true
}

// NewsAPIConfig configures the NewsAPI fetcher. Disabled unless an API key
// is present.
type NewsAPIConfig struct {
	Enabled    *bool    `yaml:"enabled"`
	APIKey     string   `yaml:"api_key"`
	Country    string   `yaml:"country"`
	Categories []string `yaml:"categories"`
	Limit      int      `yaml:"limit"`
}

// EnabledOrDefault defaults to true only when an API key is configured.
func (c *NewsAPIConfig) EnabledOrDefault() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return c.APIKey != ""
}

// DiscoveryConfig configures a curated-publication discovery fetcher
// (Substack, Medium).
type DiscoveryConfig struct {
	Enabled      *bool    `yaml:"enabled"`
	Categories   []string `yaml:"categories"`
	LimitPerFeed int      `yaml:"limit_per_feed"`
}

// EnabledOrDefault defaults to true when unset.
func (c *DiscoveryConfig) EnabledOrDefault() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return true
}

// AnalyzeConfig holds tuning for the analysis stages.
type AnalyzeConfig struct {
	Dedup    DedupConfig    `yaml:"dedup"`
	Keywords KeywordsConfig `yaml:"keywords"`
	Hotness  HotnessConfig  `yaml:"hotness"`
	Velocity VelocityConfig `yaml:"velocity"`
}

// DedupConfig tunes near-duplicate detection.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold"`
	NumPerm   int     `yaml:"num_perm"`
}

// KeywordsConfig tunes keyword extraction.
type KeywordsConfig struct {
	MinLength     int `yaml:"min_length"`
	MaxWords      int `yaml:"max_words"`
	MaxPerArticle int `yaml:"max_per_article"`
	TopN          int `yaml:"top_n"`
	MinFrequency  int `yaml:"min_frequency"`
}

// HotnessConfig tunes hotness ranking.
type HotnessConfig struct {
	Gravity       float64            `yaml:"gravity"`
	MinScore      float64            `yaml:"min_score"`
	TopN          int                `yaml:"top_n"`
	SourceWeights map[string]float64 `yaml:"source_weights"`
}

// VelocityConfig tunes trend detection.
type VelocityConfig struct {
	TimeframeDays    int     `yaml:"timeframe_days"`
	MinGrowthPercent float64 `yaml:"min_growth_percent"`
	MinCurrentVolume int     `yaml:"min_current_volume"`
	SpikeThreshold   float64 `yaml:"spike_threshold"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Sources.RSS.FeedsPath = expandPath(cfg.Sources.RSS.FeedsPath, configDir)

	return &cfg, nil
}

// Default returns a config with every default applied, for running without
// a config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)
	return &cfg
}

// ApplyEnv overlays credentials from the environment. Environment values
// win over file values so secrets can stay out of config files.
func ApplyEnv(cfg *Config) {
	if key := os.Getenv("NEWSAPI_KEY"); key != "" {
		cfg.Sources.NewsAPI.APIKey = key
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are left as-is so the
// database can live next to the working directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
