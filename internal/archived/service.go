// Package archived exposes read-only detail views of archived records
// across entity types, plus the retrieve action that restores them. Each
// entity module registers a store under its wire type name.
package archived

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownType indicates no store is registered for the type name.
	ErrUnknownType = errors.New("unknown archived record type")
	// ErrNotFound indicates the record does not exist or is not archived.
	ErrNotFound = errors.New("archived record not found")
)

// Detail is the field bag rendered into a read-only detail view.
type Detail map[string]any

// Store backs one entity type's archived records.
type Store interface {
	// GetArchived returns the record when it exists and is archived.
	GetArchived(ctx context.Context, id int64) (Detail, error)
	// Retrieve restores the record to its active state.
	Retrieve(ctx context.Context, actor string, id int64) error
}

// Service routes archived-record operations to the registered stores.
type Service struct {
	mu     sync.RWMutex
	stores map[string]Store
}

// NewService constructs an empty Service.
func NewService() *Service {
	return &Service{stores: make(map[string]Store)}
}

// RegisterStore binds a wire type name ("organization", "nstp-file") to
// its backing store.
func (s *Service) RegisterStore(typeName string, store Store) error {
	if typeName == "" || store == nil {
		return errors.New("archived: type name and store required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[typeName]; ok {
		return fmt.Errorf("archived: store for %s already registered", typeName)
	}
	s.stores[typeName] = store
	return nil
}

// Types lists the registered type names, sorted for stable output.
func (s *Service) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.stores))
	for name := range s.stores {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Get returns the archived record's detail fields.
func (s *Service) Get(ctx context.Context, typeName string, id int64) (Detail, error) {
	store, err := s.store(typeName)
	if err != nil {
		return nil, err
	}
	return store.GetArchived(ctx, id)
}

// Retrieve restores an archived record.
func (s *Service) Retrieve(ctx context.Context, actor, typeName string, id int64) error {
	store, err := s.store(typeName)
	if err != nil {
		return err
	}
	return store.Retrieve(ctx, actor, id)
}

func (s *Service) store(typeName string) (Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.stores[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return store, nil
}
