// Package state contains logic for managing group load state which the server persists.
package state

import (
	"context"
	"errors"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/status"
)

// ErrGroupStateNotFound is returned when no load state exists for a group
var ErrGroupStateNotFound = errors.New("group load state not found")

// GroupStateService provides methods for inspecting the load state of the catalog.
//
//go:generate mockgen -destination=mocks/mock_group_state_service.go -package=mocks github.com/meridianmaps/catalog-server/internal/sync/state GroupStateService
type GroupStateService interface {
	// Initialize populates the state store with the set of configured groups.
	// It is intended that this is called at application startup, and it
	// will overwrite any previous state. warmRestored reports whether the
	// catalog was restored from a snapshot; without one, a stored Ready
	// status describes members the server is not actually holding, so it
	// is reset to make the group load again.
	Initialize(ctx context.Context, groupConfigs []config.GroupConfig, warmRestored bool) error
	// ListLoadStatuses lists all available load statuses.
	ListLoadStatuses(ctx context.Context) (map[string]*status.LoadStatus, error)
	// GetLoadStatus returns the status of the named group, or
	// ErrGroupStateNotFound for a group the service has never seen.
	GetLoadStatus(ctx context.Context, groupName string) (*status.LoadStatus, error)
	// UpdateLoadStatus overrides the value of the named group with the loadStatus parameter.
	UpdateLoadStatus(ctx context.Context, groupName string, loadStatus *status.LoadStatus) error
	// UpdateStatusAtomically is used to carry out atomic updates on a load status.
	// Implementations will fetch the existing state, apply the testAndUpdateFn
	// function to the current state, and update the state if it is mutated by
	// that function - all as a single atomic action. testAndUpdateFn returns a boolean
	// to indicate whether the load status was modified, and this is returned by
	// UpdateStatusAtomically when done.
	UpdateStatusAtomically(
		ctx context.Context,
		groupName string,
		testAndUpdateFn func(loadStatus *status.LoadStatus) bool,
	) (bool, error)
}
