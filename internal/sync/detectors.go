package sync

import (
	"context"
	"time"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/sources"
	"github.com/meridianmaps/catalog-server/internal/status"
)

// DefaultDataChangeDetector implements DataChangeDetector
type DefaultDataChangeDetector struct {
	sourceHandlerFactory sources.SourceHandlerFactory
}

// IsDataChanged checks if source data has changed by comparing hashes.
// The source's CurrentHash may cost as much as a full fetch (a wfs probe is a
// GetFeature call, a git probe is a clone), so callers gate this behind the
// refresh interval rather than polling it freely.
func (d *DefaultDataChangeDetector) IsDataChanged(
	ctx context.Context, groupCfg *config.GroupConfig, loadStatus *status.LoadStatus,
) (bool, error) {
	var lastLoadHash string
	if loadStatus != nil {
		lastLoadHash = loadStatus.LastLoadHash
	}

	// Without a recorded hash there is nothing to compare against
	if lastLoadHash == "" {
		return true, nil
	}

	sourceHandler, err := d.sourceHandlerFactory.CreateHandler(groupCfg.GetType())
	if err != nil {
		return true, err
	}

	currentHash, err := sourceHandler.CurrentHash(ctx, groupCfg)
	if err != nil {
		return true, err
	}

	return currentHash != lastLoadHash, nil
}

// DefaultAutomaticRefreshChecker implements AutomaticRefreshChecker
type DefaultAutomaticRefreshChecker struct {
	// DefaultPolicy applies to groups that do not declare their own
	// refresh policy. Nil disables interval refresh for such groups.
	DefaultPolicy *config.RefreshPolicyConfig
}

// IsIntervalRefreshNeeded checks if a refresh is needed based on time interval.
// Returns: (refreshNeeded, nextRefreshTime, error)
// nextRefreshTime is zero when no refresh policy applies to the group.
func (c *DefaultAutomaticRefreshChecker) IsIntervalRefreshNeeded(
	groupCfg *config.GroupConfig, loadStatus *status.LoadStatus,
) (bool, time.Time, error) {
	policy := groupCfg.RefreshPolicy
	if policy == nil {
		policy = c.DefaultPolicy
	}
	if policy == nil || policy.Interval == "" {
		return false, time.Time{}, nil
	}

	interval, err := time.ParseDuration(policy.Interval)
	if err != nil {
		return false, time.Time{}, err
	}

	now := time.Now()

	// The interval is measured from the last attempt, successful or not,
	// so a failing source is not retried faster than a healthy one.
	var lastAttempt *time.Time
	if loadStatus != nil {
		lastAttempt = loadStatus.LastAttempt
	}
	if lastAttempt == nil {
		return true, now.Add(interval), nil
	}

	nextRefresh := lastAttempt.Add(interval)
	if now.Before(nextRefresh) {
		return false, nextRefresh, nil
	}
	return true, now.Add(interval), nil
}
