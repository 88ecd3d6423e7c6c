package archived

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink/internal/nstp"
	"github.com/campuslink/campuslink/internal/organizations"
)

// OrganizationStore adapts the organizations service to the archived
// record contract.
type OrganizationStore struct {
	service *organizations.Service
}

// NewOrganizationStore wraps an organizations service.
func NewOrganizationStore(service *organizations.Service) *OrganizationStore {
	return &OrganizationStore{service: service}
}

// GetArchived implements Store.
func (s *OrganizationStore) GetArchived(ctx context.Context, id int64) (Detail, error) {
	org, err := s.service.Get(ctx, id)
	if errors.Is(err, organizations.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if org.Status != organizations.StatusArchived {
		return nil, ErrNotFound
	}
	detail := Detail{
		"id":       org.ID,
		"name":     org.Name,
		"acronym":  org.Acronym,
		"category": org.Category,
		"adviser":  org.Adviser,
		"status":   org.Status,
	}
	if org.ArchivedAt != nil {
		detail["archived_at"] = org.ArchivedAt.Format("2006-01-02")
	}
	return detail, nil
}

// Retrieve implements Store by reactivating the organization.
func (s *OrganizationStore) Retrieve(ctx context.Context, actor string, id int64) error {
	_, err := s.service.Reactivate(ctx, actor, id)
	if errors.Is(err, organizations.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, organizations.ErrInvalidTransition) {
		return fmt.Errorf("%w: record is not archived", ErrNotFound)
	}
	return err
}

// NSTPFileStore adapts the NSTP service to the archived record contract.
type NSTPFileStore struct {
	service *nstp.Service
}

// NewNSTPFileStore wraps an NSTP service.
func NewNSTPFileStore(service *nstp.Service) *NSTPFileStore {
	return &NSTPFileStore{service: service}
}

// GetArchived implements Store.
func (s *NSTPFileStore) GetArchived(ctx context.Context, id int64) (Detail, error) {
	file, err := s.service.Get(ctx, id)
	if errors.Is(err, nstp.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if file.ArchivedAt == nil {
		return nil, ErrNotFound
	}
	return Detail{
		"id":          file.ID,
		"student":     file.Student,
		"component":   file.Component,
		"school_year": file.SchoolYear,
		"semester":    file.Semester,
		"file_name":   file.FileName,
		"archived_at": file.ArchivedAt.Format("2006-01-02"),
	}, nil
}

// Retrieve implements Store by clearing the archive marker.
func (s *NSTPFileStore) Retrieve(ctx context.Context, actor string, id int64) error {
	err := s.service.Unarchive(ctx, actor, id)
	if errors.Is(err, nstp.ErrNotFound) || errors.Is(err, nstp.ErrNotArchived) {
		return ErrNotFound
	}
	return err
}
