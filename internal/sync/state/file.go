package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/status"
)

type fileStateService struct {
	statusPersistence status.StatusPersistence

	// Thread-safe status management (per-group)
	mu             sync.RWMutex
	cachedStatuses map[string]*status.LoadStatus
}

// NewFileStateService creates a new file-based group state service
func NewFileStateService(statusPersistence status.StatusPersistence) GroupStateService {
	return &fileStateService{
		statusPersistence: statusPersistence,
		cachedStatuses:    make(map[string]*status.LoadStatus),
	}
}

func (f *fileStateService) Initialize(ctx context.Context, groupConfigs []config.GroupConfig, warmRestored bool) error {
	for _, conf := range groupConfigs {
		f.loadOrInitializeGroupStatus(ctx, conf.Name, warmRestored)
	}
	return nil
}

func (f *fileStateService) ListLoadStatuses(_ context.Context) (map[string]*status.LoadStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Return a deep copy to prevent external modification
	result := make(map[string]*status.LoadStatus)
	for name, loadStatus := range f.cachedStatuses {
		if loadStatus != nil {
			result[name] = loadStatus.Clone()
		}
	}
	return result, nil
}

func (f *fileStateService) GetLoadStatus(_ context.Context, groupName string) (*status.LoadStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Return a copy to prevent external modification
	loadStatus, exists := f.cachedStatuses[groupName]
	if !exists || loadStatus == nil {
		return nil, fmt.Errorf("%w: %s", ErrGroupStateNotFound, groupName)
	}
	return loadStatus.Clone(), nil
}

func (f *fileStateService) UpdateStatusAtomically(
	ctx context.Context,
	groupName string,
	testAndUpdateFn func(loadStatus *status.LoadStatus) bool,
) (bool, error) {
	// This method duplicates code from GetLoadStatus and UpdateLoadStatus
	// I have duplicated the code due to the triviality of the logic.
	f.mu.Lock()
	defer f.mu.Unlock()

	// Get the load status from cache
	loadStatus, exists := f.cachedStatuses[groupName]
	if !exists || loadStatus == nil {
		return false, fmt.Errorf("load status for group %s not found", groupName)
	}

	shouldUpdate := testAndUpdateFn(loadStatus)
	if shouldUpdate {
		if err := f.statusPersistence.SaveStatus(ctx, groupName, loadStatus); err != nil {
			return false, err
		}
		f.cachedStatuses[groupName] = loadStatus
	}
	return shouldUpdate, nil
}

func (f *fileStateService) UpdateLoadStatus(ctx context.Context, groupName string, loadStatus *status.LoadStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statusPersistence.SaveStatus(ctx, groupName, loadStatus); err != nil {
		return err
	}
	f.cachedStatuses[groupName] = loadStatus
	return nil
}

func (f *fileStateService) loadOrInitializeGroupStatus(ctx context.Context, groupName string, warmRestored bool) {
	logger := logging.FromContext(ctx).WithValues("group", groupName)

	loadStatus, err := f.statusPersistence.LoadStatus(ctx, groupName)
	if err != nil {
		logger.Error(err, "Failed to load stored status, initializing with defaults")
		loadStatus = &status.LoadStatus{
			Phase:   status.PhaseFailed,
			Message: "No readable load status found",
		}
	}

	/*
	 * Note that the cleanup logic below assumes that only one process at
	 * a time owns the state directory. This assumption breaks down if
	 * multiple servers share a data directory.
	 */

	switch {
	case loadStatus.Phase == "" && loadStatus.LastLoadTime == nil:
		// New status (no file existed). Groups wait in Loading until the
		// first attempt starts; LastAttempt stays nil so the attempt is
		// not mistaken for one already in flight.
		logger.Info("No previous load status found, initializing with defaults")
		loadStatus.Phase = status.PhaseLoading
		loadStatus.Message = "Initial load pending"
		f.persistCorrectedStatus(ctx, groupName, loadStatus)

	case loadStatus.Phase == status.PhaseLoading && loadStatus.LastAttempt != nil:
		// A load was in flight when the previous run stopped. Reset it to
		// Failed so the load will be retried.
		logger.Info("Previous load was interrupted, resetting to Failed")
		loadStatus.Phase = status.PhaseFailed
		loadStatus.Message = "Previous load was interrupted"
		f.persistCorrectedStatus(ctx, groupName, loadStatus)

	case loadStatus.Phase == status.PhaseReady && !warmRestored:
		// The status file survived but the catalog snapshot did not. A
		// Ready phase with nothing behind it would keep the group out of
		// the catalog until the source data next changes.
		logger.Info("Status is Ready but no catalog snapshot was restored, resetting to Failed")
		loadStatus.Phase = status.PhaseFailed
		loadStatus.Message = "Catalog snapshot missing"
		f.persistCorrectedStatus(ctx, groupName, loadStatus)
	}

	// Log the loaded/initialized status
	if loadStatus.LastLoadTime != nil {
		logger.Info("Loaded load status",
			"phase", loadStatus.Phase,
			"lastLoad", loadStatus.LastLoadTime.Format(time.RFC3339),
			"members", loadStatus.MemberCount)
	} else {
		logger.Info("Load status", "phase", loadStatus.Phase)
	}

	// Store in cached status
	f.mu.Lock()
	f.cachedStatuses[groupName] = loadStatus
	f.mu.Unlock()
}

func (f *fileStateService) persistCorrectedStatus(ctx context.Context, groupName string, loadStatus *status.LoadStatus) {
	if err := f.statusPersistence.SaveStatus(ctx, groupName, loadStatus); err != nil {
		logging.FromContext(ctx).Error(err, "Failed to persist corrected load status", "group", groupName)
	}
}
