// Package service provides the business logic for the catalog API
package service

import (
	"context"
	"errors"

	"github.com/meridianmaps/catalog-server/internal/catalog"
)

var (
	// ErrGroupNotFound is returned when a group is not found
	ErrGroupNotFound = errors.New("group not found")
	// ErrNotReady is returned when no catalog data has been loaded yet
	ErrNotReady = errors.New("catalog not ready")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go CatalogService

// CatalogService defines the interface for catalog operations.
//
// Read methods hand out the published tree directly; callers must treat it
// as immutable. ReplaceGroup is the only mutation and is driven by the
// refresh coordinator, never by API handlers.
type CatalogService interface {
	// CheckReadiness checks if the service is ready to serve requests.
	// The service becomes ready once the catalog holds at least one group,
	// whether from a completed load or a restored snapshot.
	CheckReadiness(ctx context.Context) error

	// GetCatalog returns the full catalog tree
	GetCatalog(ctx context.Context) (*catalog.Catalog, error)

	// ListGroups returns the top-level catalog groups
	ListGroups(ctx context.Context) ([]*catalog.Group, error)

	// GetGroup returns a top-level group by name
	GetGroup(ctx context.Context, name string) (*catalog.Group, error)

	// ReplaceGroup publishes a freshly loaded group subtree, replacing the
	// previous subtree of the same name as a whole
	ReplaceGroup(ctx context.Context, group *catalog.Group) error
}
