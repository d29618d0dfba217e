package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const feedReloadDebounce = 400 * time.Millisecond

// FeedList holds the RSS feed URLs from a feeds.yaml file and can hot-reload
// them when the file changes, so feeds can be added without a restart.
type FeedList struct {
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	urls []string

	watcher  *fsnotify.Watcher
	reload   *time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

type feedsFile struct {
	Feeds []string `yaml:"feeds"`
}

// NewFeedList loads the feed URLs at path.
func NewFeedList(path string, logger *zap.Logger) (*FeedList, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fl := &FeedList{
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}
	if err := fl.load(); err != nil {
		return nil, err
	}
	return fl, nil
}

// URLs returns a copy of the current feed URLs.
func (fl *FeedList) URLs() []string {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return append([]string(nil), fl.urls...)
}

// Watch reloads the feed file whenever it changes, until ctx is cancelled or
// Stop is called. The parent directory is watched because editors replace
// files on save.
func (fl *FeedList) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(fl.path)); err != nil {
		_ = watcher.Close()
		return err
	}
	fl.watcher = watcher
	go fl.run(ctx)
	return nil
}

func (fl *FeedList) run(ctx context.Context) {
	target := filepath.Clean(fl.path)
	for {
		select {
		case <-ctx.Done():
			fl.Stop()
			return
		case <-fl.done:
			return
		case ev, ok := <-fl.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fl.debounceReload()
			}
		case err, ok := <-fl.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				fl.logger.Debug("feed watcher error", zap.Error(err))
			}
		}
	}
}

func (fl *FeedList) debounceReload() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.reload != nil {
		fl.reload.Stop()
	}
	fl.reload = time.AfterFunc(feedReloadDebounce, func() {
		if err := fl.load(); err != nil {
			fl.logger.Warn("feed reload failed", zap.Error(err))
			return
		}
		fl.logger.Info("feed list reloaded",
			zap.String("path", fl.path),
			zap.Int("feeds", len(fl.URLs())))
	})
}

// Stop stops watching. The current URLs stay available.
func (fl *FeedList) Stop() {
	fl.stopOnce.Do(func() {
		close(fl.done)
		if fl.watcher != nil {
			_ = fl.watcher.Close()
		}
		fl.mu.Lock()
		if fl.reload != nil {
			fl.reload.Stop()
		}
		fl.mu.Unlock()
	})
}

func (fl *FeedList) load() error {
	data, err := os.ReadFile(fl.path)
	if err != nil {
		return fmt.Errorf("failed to read feeds file: %w", err)
	}
	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse feeds file: %w", err)
	}
	fl.mu.Lock()
	fl.urls = file.Feeds
	fl.mu.Unlock()
	return nil
}
