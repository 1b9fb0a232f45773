// Package writer contains the CatalogWriter interface and implementations
package writer

import (
	"context"

	"github.com/meridianmaps/catalog-server/internal/catalog"
)

//go:generate mockgen -destination=mocks/mock_catalog_writer.go -package=mocks -source=writer.go CatalogWriter

// CatalogWriter defines the interface needed to publish loaded group data.
type CatalogWriter interface {
	// Apply publishes a freshly loaded group to the live catalog and keeps
	// the warm-restart snapshot in step with what is being served.
	Apply(ctx context.Context, group *catalog.Group) error
}
