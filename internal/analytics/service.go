package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Service records activities and produces the CSV export.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record appends one activity entry. Recording is best-effort; a failed
// insert is logged and never blocks the mutation that triggered it.
func (s *Service) Record(ctx context.Context, actor, entityType string, entityID int64, action string) {
	if actor == "" {
		actor = "system"
	}
	activity := Activity{
		Actor:      actor,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, activity); err != nil {
		s.logger.Warn("record activity",
			slog.String("entity_type", entityType),
			slog.Int64("entity_id", entityID),
			slog.String("action", action),
			slog.Any("error", err))
	}
}

// ExportCSV renders the filtered activity feed as a CSV document.
func (s *Service) ExportCSV(ctx context.Context, filters ExportFilters) ([]byte, error) {
	activities, err := s.repo.ListForExport(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"Timestamp", "Actor", "Entity", "Entity ID", "Action"}); err != nil {
		return nil, err
	}
	for _, activity := range activities {
		record := []string{
			activity.CreatedAt.UTC().Format(time.RFC3339),
			activity.Actor,
			activity.EntityType,
			strconv.FormatInt(activity.EntityID, 10),
			activity.Action,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
