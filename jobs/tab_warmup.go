package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campuslink/campuslink/internal/jobs"
	"github.com/campuslink/campuslink/internal/listing"
	"github.com/campuslink/campuslink/internal/platform/cache"
	"github.com/campuslink/campuslink/internal/views"
)

// TabWarmupJob pre-populates the tab record cache so the first listing
// request after an invalidation doesn't pay the load.
type TabWarmupJob struct {
	Loader  views.Loader
	Cache   *cache.ListCache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewTabWarmupJob initialises the warmup handler.
func NewTabWarmupJob(loader views.Loader, listCache *cache.ListCache, logger *slog.Logger, metrics *jobmetrics.Metrics) *TabWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &TabWarmupJob{Loader: loader, Cache: listCache, Logger: logger, Metrics: metrics}
}

// Handle warms the selected tabs, or all of them when none are named.
func (j *TabWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Loader == nil || j.Cache == nil {
		return errors.New("tab warmup: handler not configured")
	}
	var payload TabWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTabWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	selected := payload.Tabs
	if len(selected) == 0 {
		for _, tab := range views.Tabs {
			selected = append(selected, tab.Name)
		}
	}

	for _, name := range selected {
		tab, err := views.Find(name)
		if err != nil {
			j.Logger.Warn("skip unknown tab", slog.String("tab", name))
			continue
		}
		key, err := j.Cache.Key(ctx, "tab", tab.Name)
		if err != nil {
			resultErr = err
			return resultErr
		}
		var records []listing.Record
		err = j.Cache.FetchJSON(ctx, key, &records, func(ctx context.Context) (any, error) {
			return j.Loader.Load(ctx, tab)
		})
		if err != nil {
			resultErr = err
			j.Logger.Error("warm tab", slog.String("tab", tab.Name), slog.Any("error", err))
			return resultErr
		}
		j.Logger.Info("warmed tab", slog.String("tab", tab.Name), slog.Int("records", len(records)))
	}
	return nil
}
