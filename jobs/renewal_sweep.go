package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campuslink/campuslink/internal/jobs"
)

// LapsedArchiver archives organizations whose last renewal predates the cutoff.
type LapsedArchiver interface {
	ArchiveLapsed(ctx context.Context, cutoff, archivedAt time.Time) (int64, error)
}

// CacheBumper invalidates cached list pages after the sweep mutates rows.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// RenewalSweepJob archives organizations that were not renewed in time.
type RenewalSweepJob struct {
	Archiver LapsedArchiver
	Cache    CacheBumper
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewRenewalSweepJob initialises the sweep handler.
func NewRenewalSweepJob(archiver LapsedArchiver, cache CacheBumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *RenewalSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenewalSweepJob{
		Archiver: archiver,
		Cache:    cache,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep.
func (j *RenewalSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Archiver == nil {
		return errors.New("renewal sweep: handler not configured")
	}
	var payload RenewalSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Validity <= 0 {
		payload.Validity = 365 * 24 * time.Hour
	}

	tracker := j.Metrics.Track(TaskRenewalSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.clock()
	cutoff := now.Add(-payload.Validity)
	logger := j.Logger.With(slog.Time("cutoff", cutoff))
	logger.Info("starting renewal sweep")

	archived, err := j.Archiver.ArchiveLapsed(ctx, cutoff, now)
	if err != nil {
		resultErr = err
		logger.Error("sweep failed", slog.Any("error", err))
		return resultErr
	}
	if archived > 0 && j.Cache != nil {
		if err := j.Cache.Bump(ctx); err != nil {
			logger.Warn("bump list cache", slog.Any("error", err))
		}
	}
	logger.Info("renewal sweep finished", slog.Int64("archived", archived))
	return nil
}
