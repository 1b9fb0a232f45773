// Package inmemory provides an in-memory implementation of the CatalogService interface
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/service"
)

// catalogSvc implements the CatalogService interface.
//
// The catalog pointer is copy-on-write: ReplaceGroup publishes a new Catalog
// value carrying the updated group list, so a reader can marshal the tree it
// obtained without holding the lock. Published subtrees are never mutated
// afterwards.
type catalogSvc struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
}

var _ service.CatalogService = (*catalogSvc)(nil)

// New creates a catalog service starting from an empty catalog
func New(catalogName string) service.CatalogService {
	return &catalogSvc{catalog: catalog.NewCatalog(catalogName)}
}

// NewFromSnapshot creates a catalog service seeded with a previously stored
// catalog, typically restored from a snapshot at startup. The service is
// ready immediately; background loads replace the stale groups as they
// complete.
func NewFromSnapshot(snapshot *catalog.Catalog) service.CatalogService {
	return &catalogSvc{catalog: snapshot}
}

// CheckReadiness implements CatalogService.CheckReadiness
func (s *catalogSvc) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.catalog.Groups) == 0 {
		return service.ErrNotReady
	}
	return nil
}

// GetCatalog implements CatalogService.GetCatalog
func (s *catalogSvc) GetCatalog(_ context.Context) (*catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, nil
}

// ListGroups implements CatalogService.ListGroups
func (s *catalogSvc) ListGroups(_ context.Context) ([]*catalog.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*catalog.Group, len(s.catalog.Groups))
	copy(groups, s.catalog.Groups)
	return groups, nil
}

// GetGroup implements CatalogService.GetGroup
func (s *catalogSvc) GetGroup(_ context.Context, name string) (*catalog.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.catalog.Group(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrGroupNotFound, name)
	}
	return group, nil
}

// ReplaceGroup implements CatalogService.ReplaceGroup
func (s *catalogSvc) ReplaceGroup(ctx context.Context, group *catalog.Group) error {
	if group == nil {
		return fmt.Errorf("group cannot be nil")
	}

	s.mu.Lock()
	next := catalog.NewCatalog(s.catalog.Name)
	next.Groups = append([]*catalog.Group(nil), s.catalog.Groups...)
	next.LastUpdated = s.catalog.LastUpdated
	next.ReplaceGroup(group)
	s.catalog = next
	groupCount := len(next.Groups)
	s.mu.Unlock()

	logging.FromContext(ctx).V(1).Info("Published group",
		"group", group.Name,
		"itemCount", group.ItemCount(),
		"groupCount", groupCount)
	return nil
}
