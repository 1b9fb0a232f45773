package app

import (
	"github.com/meridianmaps/catalog-server/internal/service"
	"github.com/meridianmaps/catalog-server/internal/sync/coordinator"
)

// AppComponents holds the long-lived pieces the lifecycle methods drive.
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator schedules and runs background group refreshes
	SyncCoordinator coordinator.Coordinator

	// CatalogService serves the in-memory catalog to the API layer
	CatalogService service.CatalogService
}
