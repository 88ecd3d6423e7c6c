package organizations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

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

// Service wraps organization business rules.
type Service struct {
	repo       Repository
	cache      CacheInvalidator
	activities ActivityRecorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, cache CacheInvalidator, activities ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		activities: activities,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of organizations matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Organization, shared.Pagination, error) {
	if filters.PerPage <= 0 {
		filters.PerPage = 10
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	orgs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get returns one organization.
func (s *Service) Get(ctx context.Context, id int64) (Organization, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new pending organization application.
func (s *Service) Create(ctx context.Context, actor string, input CreateInput) (Organization, error) {
	now := s.now()
	org := Organization{
		Name:      input.Name,
		Acronym:   input.Acronym,
		Category:  input.Category,
		Adviser:   input.Adviser,
		Status:    StatusPending,
		CreatedAt: now,
	}
	created, err := s.repo.Create(ctx, org)
	if err != nil {
		return Organization{}, err
	}
	s.afterMutation(ctx, actor, created.ID, "create")
	return created, nil
}

// Edit updates an organization's editable fields. Archived organizations
// must be reactivated first.
func (s *Service) Edit(ctx context.Context, actor string, id int64, input EditInput) (Organization, error) {
	org, err := s.repo.Get(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	if org.Status == StatusArchived {
		return Organization{}, fmt.Errorf("%w: archived organizations are read-only", ErrInvalidTransition)
	}
	org.Name = input.Name
	org.Acronym = input.Acronym
	org.Category = input.Category
	org.Adviser = input.Adviser
	org.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, org); err != nil {
		return Organization{}, err
	}
	s.afterMutation(ctx, actor, id, "edit")
	return org, nil
}

// Approve moves a pending application to active and starts its
// recognition clock.
func (s *Service) Approve(ctx context.Context, actor string, id int64) (Organization, error) {
	return s.transition(ctx, actor, id, "approve", StatusPending, func(org *Organization, now time.Time) {
		org.Status = StatusActive
		org.RecognizedAt = &now
		org.RenewedAt = &now
	})
}

// Renew refreshes an active organization's recognition.
func (s *Service) Renew(ctx context.Context, actor string, id int64) (Organization, error) {
	return s.transition(ctx, actor, id, "renew", StatusActive, func(org *Organization, now time.Time) {
		org.RenewedAt = &now
	})
}

// Archive retires an active organization.
func (s *Service) Archive(ctx context.Context, actor string, id int64) (Organization, error) {
	return s.transition(ctx, actor, id, "archive", StatusActive, func(org *Organization, now time.Time) {
		org.Status = StatusArchived
		org.ArchivedAt = &now
	})
}

// Reactivate restores an archived organization to active.
func (s *Service) Reactivate(ctx context.Context, actor string, id int64) (Organization, error) {
	return s.transition(ctx, actor, id, "reactivate", StatusArchived, func(org *Organization, now time.Time) {
		org.Status = StatusActive
		org.ArchivedAt = nil
		org.RenewedAt = &now
	})
}

func (s *Service) transition(ctx context.Context, actor string, id int64, action string, from Status, apply func(*Organization, time.Time)) (Organization, error) {
	org, err := s.repo.Get(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	if org.Status != from {
		return Organization{}, fmt.Errorf("%w: cannot %s a %s organization", ErrInvalidTransition, action, org.Status)
	}
	now := s.now()
	apply(&org, now)
	org.UpdatedAt = now
	if err := s.repo.Update(ctx, org); err != nil {
		return Organization{}, err
	}
	s.afterMutation(ctx, actor, id, action)
	return org, nil
}

func (s *Service) afterMutation(ctx context.Context, actor string, id int64, action string) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump organization list cache", slog.Any("error", err))
		}
	}
	if s.activities != nil {
		s.activities.Record(ctx, actor, "organization", id, action)
	}
}
