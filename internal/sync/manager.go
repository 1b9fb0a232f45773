package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/filtering"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/sources"
	"github.com/meridianmaps/catalog-server/internal/status"
	"github.com/meridianmaps/catalog-server/internal/sync/writer"
)

// Result contains the result of a successful refresh operation
type Result struct {
	Hash         string
	MemberCount  int
	SkippedCount int
}

// Refresh reason constants
const (
	// Group state related reasons
	ReasonAlreadyInProgress = "refresh-already-in-progress"
	ReasonGroupNotReady     = "group-not-ready"

	// Filter change related reasons
	ReasonFilterChanged = "filter-changed"

	// Data change related reasons
	ReasonSourceDataChanged    = "source-data-changed"
	ReasonErrorCheckingChanges = "error-checking-data-changes"

	// Forced refresh related reasons
	ReasonForcedRefresh = "forced-refresh"

	// Automatic refresh related reasons
	ReasonErrorCheckingRefreshNeed = "error-checking-refresh-need"

	// Up-to-date reasons
	ReasonUpToDateWithPolicy = "up-to-date-with-policy"
	ReasonUpToDateNoPolicy   = "up-to-date-no-policy"
)

// Stages recorded on refresh errors
const (
	StageHandlerCreation = "HandlerCreation"
	StageValidation      = "Validation"
	StageFetch           = "Fetch"
	StageFiltering       = "Filtering"
	StagePublish         = "Publish"
)

// Error represents a structured refresh failure. Message is operator-facing;
// Title and Report carry the user-facing failure report when the source
// produced one.
type Error struct {
	Err     error
	Message string
	Stage   string
	Title   string
	Report  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an Error, lifting the user-facing report out of a
// sources.LoadError when one is in the chain.
func newError(stage, message string, err error) *Error {
	refreshErr := &Error{
		Err:     err,
		Message: message,
		Stage:   stage,
	}
	var loadErr *sources.LoadError
	if errors.As(err, &loadErr) {
		refreshErr.Title = loadErr.Title
		refreshErr.Report = loadErr.Message
	}
	return refreshErr
}

// Manager manages refresh operations for catalog groups
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/meridianmaps/catalog-server/internal/sync Manager
type Manager interface {
	// ShouldRefresh determines if a refresh operation is needed for a
	// specific group. A forced refresh bypasses change detection but still
	// yields to a load already in flight.
	ShouldRefresh(
		ctx context.Context, groupCfg *config.GroupConfig, loadStatus *status.LoadStatus, forced bool,
	) (bool, string)

	// PerformRefresh executes the complete refresh operation for a specific group
	PerformRefresh(ctx context.Context, groupCfg *config.GroupConfig) (*Result, *Error)
}

// DataChangeDetector detects changes in source data
type DataChangeDetector interface {
	// IsDataChanged checks if source data has changed by comparing hashes for a specific group
	IsDataChanged(ctx context.Context, groupCfg *config.GroupConfig, loadStatus *status.LoadStatus) (bool, error)
}

// AutomaticRefreshChecker handles automatic refresh timing logic
type AutomaticRefreshChecker interface {
	// IsIntervalRefreshNeeded checks if a refresh is needed based on time interval
	// Returns (refreshNeeded, nextRefreshTime, error); nextRefreshTime is
	// zero when no refresh policy applies to the group
	IsIntervalRefreshNeeded(groupCfg *config.GroupConfig, loadStatus *status.LoadStatus) (bool, time.Time, error)
}

// defaultRefreshManager is the default implementation of Manager
type defaultRefreshManager struct {
	sourceHandlerFactory sources.SourceHandlerFactory
	catalogWriter        writer.CatalogWriter
	filterService        filtering.FilterService
	dataChangeDetector   DataChangeDetector
	refreshChecker       AutomaticRefreshChecker
}

// NewDefaultRefreshManager creates a new defaultRefreshManager. defaultPolicy
// is the catalog-wide refresh policy applied to groups without their own.
func NewDefaultRefreshManager(
	sourceHandlerFactory sources.SourceHandlerFactory,
	catalogWriter writer.CatalogWriter,
	defaultPolicy *config.RefreshPolicyConfig,
) Manager {
	return &defaultRefreshManager{
		sourceHandlerFactory: sourceHandlerFactory,
		catalogWriter:        catalogWriter,
		filterService:        filtering.NewDefaultFilterService(),
		dataChangeDetector:   &DefaultDataChangeDetector{sourceHandlerFactory: sourceHandlerFactory},
		refreshChecker:       &DefaultAutomaticRefreshChecker{DefaultPolicy: defaultPolicy},
	}
}

// ShouldRefresh determines if a refresh operation is needed for a specific group.
// Returns: (shouldRefresh bool, reason string)
func (s *defaultRefreshManager) ShouldRefresh(
	ctx context.Context,
	groupCfg *config.GroupConfig,
	loadStatus *status.LoadStatus,
	forced bool,
) (bool, string) {
	logger := logging.FromContext(ctx).WithValues("group", groupCfg.Name)

	// A load already in flight blocks everything, forced or not. A fresh
	// group reports Loading before its first attempt; only an attempt in
	// flight counts as in progress.
	if loadStatus != nil && loadStatus.Phase == status.PhaseLoading && loadStatus.LastAttempt != nil {
		return false, ReasonAlreadyInProgress
	}

	if forced {
		return true, ReasonForcedRefresh
	}

	refreshNeededForState := s.isRefreshNeededForState(loadStatus)
	filterChanged := s.isFilterChanged(ctx, groupCfg, loadStatus)
	intervalElapsed, nextRefresh, err := s.refreshChecker.IsIntervalRefreshNeeded(groupCfg, loadStatus)
	if err != nil {
		logger.Error(err, "Failed to determine if refresh interval has elapsed")
		return false, ReasonErrorCheckingRefreshNeed
	}

	shouldRefresh := false
	reason := ReasonUpToDateNoPolicy
	if !nextRefresh.IsZero() {
		reason = ReasonUpToDateWithPolicy
	}

	dataChangedString := "N/A"
	switch {
	case refreshNeededForState:
		// Recovery and first loads never wait on change detection
		shouldRefresh = true
		reason = ReasonGroupNotReady
	case filterChanged:
		// A rules change must rebuild the group even when the source
		// data has not moved
		shouldRefresh = true
		reason = ReasonFilterChanged
	case intervalElapsed:
		dataChanged, err := s.dataChangeDetector.IsDataChanged(ctx, groupCfg, loadStatus)
		if err != nil {
			logger.Error(err, "Failed to determine if source data has changed")
			shouldRefresh = true
			reason = ReasonErrorCheckingChanges
		} else if dataChanged {
			shouldRefresh = true
			reason = ReasonSourceDataChanged
		}
		dataChangedString = strconv.FormatBool(dataChanged)
	}

	logger.V(1).Info("Refresh check complete",
		"refreshNeededForState", refreshNeededForState,
		"filterChanged", filterChanged,
		"intervalElapsed", intervalElapsed,
		"dataChanged", dataChangedString,
		"shouldRefresh", shouldRefresh,
		"reason", reason)

	return shouldRefresh, reason
}

// isRefreshNeededForState checks if a refresh is needed based on the group's current phase
func (*defaultRefreshManager) isRefreshNeededForState(loadStatus *status.LoadStatus) bool {
	if loadStatus == nil {
		return true
	}
	return loadStatus.Phase != status.PhaseReady
}

// isFilterChanged checks if the filter rules changed since the last completed load
func (*defaultRefreshManager) isFilterChanged(
	ctx context.Context, groupCfg *config.GroupConfig, loadStatus *status.LoadStatus,
) bool {
	if loadStatus == nil || loadStatus.LastLoadTime == nil {
		// Nothing loaded yet; the first load records the baseline
		return false
	}

	currentHash := filtering.FilterHash(groupCfg.Filter)
	changed := currentHash != loadStatus.LastFilterHash
	if changed {
		logging.FromContext(ctx).V(1).Info("Filter rules changed since last load",
			"group", groupCfg.Name,
			"currentFilterHash", currentHash,
			"lastFilterHash", loadStatus.LastFilterHash)
	}
	return changed
}

// PerformRefresh performs the complete refresh operation for a specific group.
// Returns the refresh result on success, or a structured error on failure.
// The live catalog keeps serving the previous subtree on any failure.
func (s *defaultRefreshManager) PerformRefresh(
	ctx context.Context, groupCfg *config.GroupConfig,
) (*Result, *Error) {
	fetchResult, refreshErr := s.fetchAndFilterGroupData(ctx, groupCfg)
	if refreshErr != nil {
		return nil, refreshErr
	}

	if refreshErr := s.publishGroupData(ctx, fetchResult); refreshErr != nil {
		return nil, refreshErr
	}

	return &Result{
		Hash:         fetchResult.Hash,
		MemberCount:  fetchResult.MemberCount,
		SkippedCount: fetchResult.SkippedCount,
	}, nil
}

// fetchAndFilterGroupData handles source handler creation, validation, fetch, and filtering
func (s *defaultRefreshManager) fetchAndFilterGroupData(
	ctx context.Context,
	groupCfg *config.GroupConfig,
) (*sources.FetchResult, *Error) {
	logger := logging.FromContext(ctx)

	sourceHandler, err := s.sourceHandlerFactory.CreateHandler(groupCfg.GetType())
	if err != nil {
		logger.Error(err, "Failed to create source handler", "group", groupCfg.Name)
		return nil, newError(StageHandlerCreation, fmt.Sprintf("Failed to create source handler: %v", err), err)
	}

	if err := sourceHandler.Validate(groupCfg); err != nil {
		logger.Error(err, "Group validation failed", "group", groupCfg.Name)
		return nil, newError(StageValidation, fmt.Sprintf("Group validation failed: %v", err), err)
	}

	fetchResult, err := sourceHandler.FetchGroup(ctx, groupCfg)
	if err != nil {
		logger.Error(err, "Fetch operation failed", "group", groupCfg.Name)
		return nil, newError(StageFetch, fmt.Sprintf("Fetch failed: %v", err), err)
	}

	logger.Info("Group data fetched from source",
		"group", groupCfg.Name,
		"memberCount", fetchResult.MemberCount,
		"skippedCount", fetchResult.SkippedCount,
		"format", fetchResult.Format)

	if refreshErr := s.applyFilteringIfConfigured(ctx, groupCfg, fetchResult); refreshErr != nil {
		return nil, refreshErr
	}

	return fetchResult, nil
}

// applyFilteringIfConfigured applies member filtering to the fetch result if
// the group has filter rules
func (s *defaultRefreshManager) applyFilteringIfConfigured(
	ctx context.Context,
	groupCfg *config.GroupConfig,
	fetchResult *sources.FetchResult,
) *Error {
	if groupCfg.Filter == nil {
		return nil
	}
	logger := logging.FromContext(ctx)

	filteredGroup, err := s.filterService.ApplyFilters(ctx, fetchResult.Group, groupCfg.Filter)
	if err != nil {
		logger.Error(err, "Group filtering failed", "group", groupCfg.Name)
		return newError(StageFiltering, fmt.Sprintf("Filtering failed: %v", err), err)
	}

	originalCount := fetchResult.MemberCount
	fetchResult.Group = filteredGroup
	fetchResult.MemberCount = filteredGroup.ItemCount()

	logger.V(1).Info("Group filtering completed",
		"group", groupCfg.Name,
		"originalMemberCount", originalCount,
		"filteredMemberCount", fetchResult.MemberCount)

	return nil
}

// publishGroupData publishes the group through the catalog writer
func (s *defaultRefreshManager) publishGroupData(
	ctx context.Context,
	fetchResult *sources.FetchResult,
) *Error {
	logger := logging.FromContext(ctx)

	if err := s.catalogWriter.Apply(ctx, fetchResult.Group); err != nil {
		logger.Error(err, "Failed to publish group data", "group", fetchResult.Group.Name)
		return newError(StagePublish, fmt.Sprintf("Publish failed: %v", err), err)
	}

	logger.V(1).Info("Group data published", "group", fetchResult.Group.Name)
	return nil
}
