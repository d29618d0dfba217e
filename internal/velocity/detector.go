// Package velocity detects keywords whose mention volume is accelerating.
package velocity

import (
	"sort"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/pkg/utils"
	"go.uber.org/zap"
)

// Detector defaults.
const (
	DefaultMinGrowthPercent = 50.0
	DefaultMinCurrentVolume = 5
	DefaultSpikeThreshold   = 3.0

	// newKeywordGrowth is the sentinel growth assigned to keywords with no
	// prior history.
	newKeywordGrowth = 1000.0
)

// Detector computes growth velocity of keyword mention counts against a
// historical baseline window.
type Detector struct {
	minGrowthPercent float64
	minCurrentVolume int
	spikeThreshold   float64
	now              func() time.Time
	logger           *zap.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithSpikeThreshold overrides the z-score cutoff for DetectSpike.
func WithSpikeThreshold(z float64) Option {
	return func(d *Detector) {
		if z > 0 {
			d.spikeThreshold = z
		}
	}
}

// NewDetector creates a detector. Non-positive arguments fall back to the
// defaults.
func NewDetector(minGrowthPercent float64, minCurrentVolume int, opts ...Option) *Detector {
	if minGrowthPercent <= 0 {
		minGrowthPercent = DefaultMinGrowthPercent
	}
	if minCurrentVolume <= 0 {
		minCurrentVolume = DefaultMinCurrentVolume
	}
	d := &Detector{
		minGrowthPercent: minGrowthPercent,
		minCurrentVolume: minCurrentVolume,
		spikeThreshold:   DefaultSpikeThreshold,
		now:              time.Now,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Velocity is the rate of mention change per day, weighted so that larger
// current volumes rank higher at equal growth rates. Keywords with no
// baseline get current*10 as an appearance bonus.
func (d *Detector) Velocity(current, previous, timeframeDays int) float64 {
	if timeframeDays <= 0 {
		timeframeDays = 1
	}
	if previous == 0 {
		return float64(current) * 10
	}
	perDay := float64(current-previous) / float64(timeframeDays)
	return perDay * (1 + float64(current)/100)
}

// PercentGrowth returns mention growth as a percentage of the baseline. A
// zero baseline yields the new-keyword sentinel (or 0 when current is also
// zero).
func (d *Detector) PercentGrowth(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return newKeywordGrowth
	}
	return float64(current-previous) / float64(previous) * 100
}

// FindTrendingUp compares current keyword volumes against the window one
// timeframe earlier and returns keywords whose growth clears the configured
// thresholds, ordered by velocity descending. Keywords with no history at
// all qualify as new trends only when their volume is at least double the
// minimum; keywords whose history just misses the baseline window take the
// zero-baseline sentinels but are not new.
func (d *Detector) FindTrendingUp(current map[string]int, history map[string][]models.HistoryPoint, timeframeDays int) []models.TrendingResult {
	if timeframeDays <= 0 {
		timeframeDays = 7
	}

	keywords := make([]string, 0, len(current))
	for kw := range current {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	results := make([]models.TrendingResult, 0)
	for _, kw := range keywords {
		cur := current[kw]
		if cur < d.minCurrentVolume {
			continue
		}

		points := history[kw]
		if len(points) == 0 {
			if cur >= 2*d.minCurrentVolume {
				results = append(results, models.TrendingResult{
					Keyword:       kw,
					CurrentVolume: cur,
					Velocity:      d.Velocity(cur, 0, timeframeDays),
					PercentGrowth: newKeywordGrowth,
					IsNew:         true,
				})
			}
			continue
		}

		prev := d.previousVolume(points, timeframeDays)
		growth := d.PercentGrowth(cur, prev)
		if growth >= d.minGrowthPercent {
			spike, z := d.DetectSpike(cur, mentionsOf(points))
			results = append(results, models.TrendingResult{
				Keyword:        kw,
				CurrentVolume:  cur,
				PreviousVolume: prev,
				Velocity:       d.Velocity(cur, prev, timeframeDays),
				PercentGrowth:  growth,
				IsSpike:        spike,
				ZScore:         z,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Velocity > results[j].Velocity
	})
	d.logger.Info("trend detection complete",
		zap.Int("keywords", len(current)),
		zap.Int("trending_up", len(results)))
	return results
}

// previousVolume averages daily mentions inside the baseline window
// [now-2T, now-T], floored to an int. Unparseable dates are skipped.
func (d *Detector) previousVolume(points []models.HistoryPoint, timeframeDays int) int {
	now := d.now()
	windowEnd := now.AddDate(0, 0, -timeframeDays)
	windowStart := now.AddDate(0, 0, -2*timeframeDays)

	var sum, n int
	for _, p := range points {
		day, err := parseDay(p.Date)
		if err != nil {
			d.logger.Debug("skipping history point with bad date", zap.String("date", p.Date))
			continue
		}
		if day.Before(windowStart) || day.After(windowEnd) {
			continue
		}
		sum += p.Mentions
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func mentionsOf(points []models.HistoryPoint) []int {
	mentions := make([]int, len(points))
	for i, p := range points {
		mentions[i] = p.Mentions
	}
	return mentions
}

func parseDay(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// DetectSpike reports whether current volume is a statistical outlier
// against the history of daily mentions. It needs at least three history
// points. A flat history cannot produce a z-score; current must then exceed
// double the mean.
func (d *Detector) DetectSpike(current int, history []int) (bool, float64) {
	if len(history) < 3 {
		return false, 0
	}
	values := make([]float64, len(history))
	for i, v := range history {
		values[i] = float64(v)
	}
	mean := utils.Mean(values)
	std := utils.StdDev(values)
	if std == 0 {
		return float64(current) > 2*mean, 0
	}
	z := (float64(current) - mean) / std
	return z >= d.spikeThreshold, z
}
