// Package main is the pulsefeed CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/fetch"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/internal/pipeline"
	"github.com/pulsefeed/pulsefeed/internal/server"
	"github.com/pulsefeed/pulsefeed/internal/storage"
	"github.com/pulsefeed/pulsefeed/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/pulsefeed/config.yaml"

// loadConfig loads config from path. When path is the default, it first
// looks for config.yaml in the current directory (for development), and
// falls back to built-in defaults when no file exists anywhere.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func main() {
	// Credentials (NEWSAPI_KEY, ...) may live in a local .env.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "run":
		runOnce()
	case "hot":
		runHot()
	case "trending":
		runTrending()
	case "version", "--version", "-v":
		fmt.Printf("pulsefeed version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if components.Feeds != nil {
		if err := components.Feeds.Watch(ctx); err != nil {
			logger.Warn("feed hot-reload disabled", zap.Error(err))
		}
	}

	var scheduler *pipeline.Scheduler
	if cfg.Scheduler.EnabledOrDefault() {
		interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute
		scheduler = pipeline.NewScheduler(components.Pipeline, components.Store, interval, logger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := server.NewServer(components.Pipeline, scheduler, components.Store,
		components.Fetchers, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runOnce() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sourcesFlag := fs.String("sources", "", "comma-separated source filter (default: all)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var sources []string
	if *sourcesFlag != "" {
		sources = splitComma(*sourcesFlag)
	}

	stats, err := components.Pipeline.Run(context.Background(), sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(stats)
}

func runHot() {
	fs := flag.NewFlagSet("hot", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 10, "number of topics")
	timeframe := fs.String("timeframe", "24hr", "timeframe: 24hr, 3day or 7day")
	_ = fs.Parse(os.Args[2:])

	var payload struct {
		Topics []models.HotTopic `json:"topics"`
	}
	target := fmt.Sprintf("%s/api/v1/hot?limit=%d&timeframe=%s",
		*serverURL, *limit, url.QueryEscape(*timeframe))
	if err := getJSON(target, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "Request failed (is the server running?): %v\n", err)
		os.Exit(1)
	}
	if len(payload.Topics) == 0 {
		fmt.Println("No hot topics yet. Trigger a run with: pulsefeed run")
		return
	}
	for _, topic := range payload.Topics {
		fmt.Printf("%2d. %-40s score=%.2f mentions=%d sources=%v\n",
			topic.Rank, topic.Keyword, topic.Score, topic.Mentions, topic.Sources)
	}
}

func runTrending() {
	fs := flag.NewFlagSet("trending", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 10, "number of topics")
	timeframe := fs.String("timeframe", "7day", "timeframe: 7day, 14day or 30day")
	_ = fs.Parse(os.Args[2:])

	var payload struct {
		Topics []models.TrendingTopic `json:"topics"`
	}
	target := fmt.Sprintf("%s/api/v1/trending-up?limit=%d&timeframe=%s",
		*serverURL, *limit, url.QueryEscape(*timeframe))
	if err := getJSON(target, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "Request failed (is the server running?): %v\n", err)
		os.Exit(1)
	}
	if len(payload.Topics) == 0 {
		fmt.Println("No trending topics yet. Trigger a run with: pulsefeed run")
		return
	}
	for _, topic := range payload.Topics {
		marker := ""
		if topic.IsNew {
			marker = " (new)"
		}
		fmt.Printf("%2d. %-40s volume=%d velocity=%.1f growth=%.0f%%%s\n",
			topic.Rank, topic.Keyword, topic.CurrentVolume, topic.Velocity,
			topic.PercentGrowth, marker)
	}
}

func getJSON(target string, v any) error {
	resp, err := http.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Components holds initialized services.
type Components struct {
	Store    storage.Store
	Feeds    *fetch.FeedList
	Fetchers []fetch.Fetcher
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Feeds != nil {
		c.Feeds.Stop()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var feeds *fetch.FeedList
	if cfg.Sources.RSS.EnabledOrDefault() {
		feeds, err = fetch.NewFeedList(cfg.Sources.RSS.FeedsPath, logger)
		if err != nil {
			logger.Warn("rss source disabled, feeds file unavailable",
				zap.String("path", cfg.Sources.RSS.FeedsPath), zap.Error(err))
			feeds = nil
		}
	}

	fetchers := fetch.FromConfig(cfg, feeds, logger)
	p := pipeline.New(cfg, fetchers, store, logger)

	return &Components{
		Store:    store,
		Feeds:    feeds,
		Fetchers: fetchers,
		Pipeline: p,
	}, nil
}

func printUsage() {
	fmt.Println(`pulsefeed - Trending topic aggregation across tech news sources

Usage:
  pulsefeed server [flags]     Start the HTTP API server (with scheduler)
  pulsefeed run [flags]        Execute one fetch-and-analyze pass
  pulsefeed hot [flags]        Show current hot topics (queries the server)
  pulsefeed trending [flags]   Show trending-up topics (queries the server)
  pulsefeed version            Show version
  pulsefeed help               Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/pulsefeed/config.yaml)
  --debug            Enable debug logging

Run Flags:
  --config string    Config file path
  --sources string   Restrict to listed sources (e.g. hackernews,reddit)

Hot/Trending Flags:
  --server string      Server URL (default: http://localhost:8080)
  --limit int          Number of topics (default: 10)
  --timeframe string   hot: 24hr|3day|7day, trending: 7day|14day|30day

Examples:
  pulsefeed server
  pulsefeed run
  pulsefeed run --sources hackernews
  pulsefeed hot --limit 20
  pulsefeed trending --timeframe 14day`)
}
