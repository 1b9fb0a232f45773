package writer

import (
	"context"
	"fmt"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/service"
	"github.com/meridianmaps/catalog-server/internal/sources"
)

// serviceWriter publishes groups through the catalog service and then
// persists the updated catalog as a snapshot.
type serviceWriter struct {
	catalogSvc service.CatalogService
	storage    sources.StorageManager
}

var _ CatalogWriter = (*serviceWriter)(nil)

// NewServiceWriter creates a CatalogWriter backed by the catalog service and
// snapshot storage.
func NewServiceWriter(catalogSvc service.CatalogService, storage sources.StorageManager) CatalogWriter {
	return &serviceWriter{
		catalogSvc: catalogSvc,
		storage:    storage,
	}
}

// Apply implements CatalogWriter.Apply
func (w *serviceWriter) Apply(ctx context.Context, group *catalog.Group) error {
	if err := w.catalogSvc.ReplaceGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to publish group to catalog: %w", err)
	}

	snapshot, err := w.catalogSvc.GetCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog for snapshot: %w", err)
	}

	// At this point the group is already being served; a snapshot failure
	// only leaves the warm-restart copy stale.
	if err := w.storage.Store(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist catalog snapshot: %w", err)
	}
	return nil
}
