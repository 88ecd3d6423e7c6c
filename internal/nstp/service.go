package nstp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campuslink/campuslink/internal/shared"
)

// ActivityRecorder logs entity actions into the activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, actor, entityType string, entityID int64, action string)
}

// CacheInvalidator drops cached list pages after a mutation.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service wraps NSTP file business rules.
type Service struct {
	repo       Repository
	cache      CacheInvalidator
	activities ActivityRecorder
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, cache CacheInvalidator, activities ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, activities: activities, logger: logger}
}

// List returns one page of file records matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]File, shared.Pagination, error) {
	if filters.PerPage <= 0 {
		filters.PerPage = 10
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	files, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list nstp files: %w", err)
	}
	return files, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get returns one file record.
func (s *Service) Get(ctx context.Context, id int64) (File, error) {
	return s.repo.Get(ctx, id)
}

// Unarchive restores an archived file record to active.
func (s *Service) Unarchive(ctx context.Context, actor string, id int64) error {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if file.ArchivedAt == nil {
		return ErrNotArchived
	}
	file.ArchivedAt = nil
	file.Status = "active"
	if err := s.repo.Update(ctx, file); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump nstp list cache", slog.Any("error", err))
		}
	}
	if s.activities != nil {
		s.activities.Record(ctx, actor, "nstp-file", id, "retrieve")
	}
	return nil
}

// Edit updates a file record's metadata.
func (s *Service) Edit(ctx context.Context, actor string, id int64, input EditInput) (File, error) {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		return File{}, err
	}
	file.Student = input.Student
	file.Component = input.Component
	file.SchoolYear = input.SchoolYear
	file.Semester = input.Semester
	if err := s.repo.Update(ctx, file); err != nil {
		return File{}, err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump nstp list cache", slog.Any("error", err))
		}
	}
	if s.activities != nil {
		s.activities.Record(ctx, actor, "nstp-file", id, "edit")
	}
	return file, nil
}
