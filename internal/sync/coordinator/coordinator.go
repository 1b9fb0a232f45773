package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/filtering"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/otel"
	"github.com/meridianmaps/catalog-server/internal/status"
	pkgsync "github.com/meridianmaps/catalog-server/internal/sync"
	"github.com/meridianmaps/catalog-server/internal/sync/state"
	"github.com/meridianmaps/catalog-server/internal/telemetry"
)

const (
	// basePollingInterval is the base interval at which the coordinator checks for refresh work
	basePollingInterval = time.Minute
	// pollingJitter is the maximum random offset (±15 seconds) applied to the polling interval
	pollingJitter = 15 * time.Second

	// failureBackoffInitial is the first wait after a failed load
	failureBackoffInitial = 30 * time.Second
	// failureBackoffMax caps the wait between attempts for a persistently failing group
	failureBackoffMax = 15 * time.Minute
)

// ErrUnknownGroup is returned by ForceRefresh for a group that is not configured
var ErrUnknownGroup = errors.New("unknown group")

// ErrNotStarted is returned by ForceRefresh before the coordinator has been started
var ErrNotStarted = errors.New("coordinator not started")

// Coordinator manages background refresh scheduling and execution for all catalog groups
type Coordinator interface {
	// Start begins background refresh coordination for all groups.
	// Blocks until the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for in-flight loads
	Stop() error

	// ForceRefresh schedules an immediate refresh of the named group,
	// bypassing change detection. The load runs in the background; a nil
	// return only means it was accepted.
	ForceRefresh(ctx context.Context, groupName string) error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager      pkgsync.Manager
	config       *config.Config
	warmRestored bool

	statusSvc state.GroupStateService

	// Lifecycle management
	cancelFunc context.CancelFunc
	coordCtx   context.Context
	done       chan struct{}
	forced     sync.WaitGroup

	// Failure backoff state, keyed by group name
	mu         sync.Mutex
	retryAfter map[string]time.Time
	backoffs   map[string]*backoff.ExponentialBackOff

	// Metrics
	refreshMetrics *telemetry.RefreshMetrics
	catalogMetrics *telemetry.CatalogMetrics

	// Tracing; nil disables refresh spans
	tracer trace.Tracer
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithRefreshMetrics sets the refresh metrics for the coordinator
func WithRefreshMetrics(metrics *telemetry.RefreshMetrics) Option {
	return func(c *defaultCoordinator) {
		c.refreshMetrics = metrics
	}
}

// WithCatalogMetrics sets the catalog metrics for the coordinator
func WithCatalogMetrics(metrics *telemetry.CatalogMetrics) Option {
	return func(c *defaultCoordinator) {
		c.catalogMetrics = metrics
	}
}

// WithTracer enables tracing of load operations
func WithTracer(tracer trace.Tracer) Option {
	return func(c *defaultCoordinator) {
		c.tracer = tracer
	}
}

// New creates a new coordinator with injected dependencies. warmRestored
// reports whether the catalog was restored from a snapshot at startup; it is
// passed through to the state service so stale Ready statuses are reset.
func New(
	manager pkgsync.Manager,
	statusSvc state.GroupStateService,
	cfg *config.Config,
	warmRestored bool,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:      manager,
		statusSvc:    statusSvc,
		config:       cfg,
		warmRestored: warmRestored,
		done:         make(chan struct{}),
		retryAfter:   make(map[string]time.Time),
		backoffs:     make(map[string]*backoff.ExponentialBackOff),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// calculatePollingInterval returns the base polling interval with a random jitter applied.
// The jitter is ±15 seconds so that multiple instances do not hit their upstream
// sources in lockstep.
func calculatePollingInterval() time.Duration {
	// Generate a random offset between -pollingJitter and +pollingJitter
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	jitterOffset := time.Duration(rand.Int64N(int64(2*pollingJitter))) - pollingJitter
	return basePollingInterval + jitterOffset
}

// Start begins background refresh coordination for all groups
func (c *defaultCoordinator) Start(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Info("Starting background refresh coordinator", "groupCount", len(c.config.Groups))

	// Create cancellable context for this coordinator
	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.coordCtx = coordCtx
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		close(c.done)
		logger.Info("Background refresh coordinator shutting down")
	}()

	// Load or initialize load status for all groups
	if err := c.statusSvc.Initialize(ctx, c.config.Groups, c.warmRestored); err != nil {
		return fmt.Errorf("failed to initialize group load status: %w", err)
	}

	// Calculate polling interval with jitter to prevent thundering herd
	pollingInterval := calculatePollingInterval()
	logger.Info("Configured coordinator polling interval",
		"baseInterval", basePollingInterval,
		"actualInterval", pollingInterval)

	// Create ticker for periodic refresh checks
	ticker := time.NewTicker(pollingInterval)
	defer ticker.Stop()

	// Initial pass so groups load at startup instead of waiting a full tick
	c.processRefreshCycle(coordCtx)

	// Run the coordinator loop
	for {
		select {
		case <-ticker.C:
			c.processRefreshCycle(coordCtx)

			// Recalculate interval with new jitter for next iteration
			ticker.Reset(calculatePollingInterval())
		case <-coordCtx.Done():
			logger.Info("Refresh coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		// Wait for the coordinator loop to finish
		<-c.done
	}
	// Wait for any forced refreshes still running
	c.forced.Wait()
	return nil
}

// ForceRefresh schedules an immediate refresh of the named group. The load
// runs on the coordinator's context so it survives the caller's request.
func (c *defaultCoordinator) ForceRefresh(ctx context.Context, groupName string) error {
	groupCfg := c.findGroup(groupName)
	if groupCfg == nil {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, groupName)
	}

	c.mu.Lock()
	coordCtx := c.coordCtx
	c.mu.Unlock()
	if coordCtx == nil {
		return ErrNotStarted
	}

	logging.FromContext(ctx).Info("Forced refresh requested", "group", groupName)

	c.forced.Add(1)
	go func() {
		defer c.forced.Done()
		logger := logging.FromContext(coordCtx).WithValues("group", groupName)

		loadStatus, err := c.statusSvc.GetLoadStatus(coordCtx, groupName)
		if err != nil {
			logger.Error(err, "Error reading load status for forced refresh")
			return
		}

		// Forced refreshes skip change detection but still yield to a
		// load already in flight
		shouldRefresh, reason := c.manager.ShouldRefresh(coordCtx, groupCfg, loadStatus, true)
		if !shouldRefresh {
			logger.Info("Forced refresh skipped", "reason", reason)
			return
		}

		c.performGroupRefresh(coordCtx, groupCfg, reason)
	}()

	return nil
}

// findGroup returns the configuration of the named group, or nil
func (c *defaultCoordinator) findGroup(groupName string) *config.GroupConfig {
	for i := range c.config.Groups {
		if c.config.Groups[i].Name == groupName {
			return &c.config.Groups[i]
		}
	}
	return nil
}

// processRefreshCycle walks the configured groups and refreshes the ones that need it
func (c *defaultCoordinator) processRefreshCycle(ctx context.Context) {
	for i := range c.config.Groups {
		if ctx.Err() != nil {
			return
		}
		c.checkGroupRefresh(ctx, &c.config.Groups[i])
	}
}

// checkGroupRefresh performs a refresh check for one group and runs the load if needed
func (c *defaultCoordinator) checkGroupRefresh(ctx context.Context, groupCfg *config.GroupConfig) {
	groupName := groupCfg.Name
	logger := logging.FromContext(ctx).WithValues("group", groupName)

	if wait := c.backoffRemaining(groupName); wait > 0 {
		logger.V(1).Info("Group backed off after failed load", "retryIn", wait.Round(time.Second))
		return
	}

	loadStatus, err := c.statusSvc.GetLoadStatus(ctx, groupName)
	if err != nil {
		logger.Error(err, "Error reading load status")
		return
	}

	shouldRefresh, reason := c.manager.ShouldRefresh(ctx, groupCfg, loadStatus, false)
	if !shouldRefresh {
		logging.Trace(logger).Info("Group does not need refresh", "reason", reason)
		return
	}

	logger.Info("Group refresh needed", "reason", reason)
	c.performGroupRefresh(ctx, groupCfg, reason)
}

// performGroupRefresh executes the load operation for a group and records the outcome
func (c *defaultCoordinator) performGroupRefresh(ctx context.Context, groupCfg *config.GroupConfig, reason string) {
	groupName := groupCfg.Name
	jobID := uuid.NewString()
	logger := logging.FromContext(ctx).WithValues("group", groupName, "job", jobID)
	ctx = logging.WithContext(ctx, logging.FromContext(ctx).WithValues("job", jobID))

	// Mark the group Loading before starting. The update is atomic, so when
	// two refresh paths race exactly one proceeds; a declined update means
	// another load won.
	started, err := c.statusSvc.UpdateStatusAtomically(ctx, groupName, func(loadStatus *status.LoadStatus) bool {
		if loadStatus.Phase == status.PhaseLoading && loadStatus.LastAttempt != nil {
			return false
		}
		now := time.Now().UTC()
		loadStatus.Phase = status.PhaseLoading
		loadStatus.Message = "Load in progress"
		loadStatus.LastAttempt = &now
		loadStatus.AttemptCount++
		return true
	})
	if err != nil {
		logger.Error(err, "Error marking group as loading")
		return
	}
	if !started {
		logger.V(1).Info("Load already in progress, skipping")
		return
	}

	logger.Info("Starting load operation")
	startTime := time.Now()

	spanCtx, span := otel.StartSpan(ctx, c.tracer, "catalog.refresh_group",
		trace.WithAttributes(
			otel.AttrCatalogName.String(c.config.GetCatalogName()),
			otel.AttrGroupName.String(groupName),
			otel.AttrSourceType.String(groupCfg.GetType()),
			otel.AttrRefreshReason.String(reason),
		))
	result, refreshErr := c.manager.PerformRefresh(spanCtx, groupCfg)
	if refreshErr != nil {
		otel.RecordError(span, refreshErr)
	} else {
		span.SetAttributes(
			otel.AttrMemberCount.Int(result.MemberCount),
			otel.AttrSkippedCount.Int(result.SkippedCount),
		)
	}
	span.End()

	// Calculate load duration for metrics
	loadDuration := time.Since(startTime)

	// Write the final status. The atomic update keeps a concurrent status
	// reader from observing a half-written record.
	if _, updateErr := c.statusSvc.UpdateStatusAtomically(ctx, groupName, func(loadStatus *status.LoadStatus) bool {
		if refreshErr != nil {
			loadStatus.Phase = status.PhaseFailed
			loadStatus.Message = refreshErr.Message
			loadStatus.ErrorTitle = refreshErr.Title
			loadStatus.ErrorMessage = refreshErr.Report
		} else {
			now := time.Now().UTC()
			loadStatus.Phase = status.PhaseReady
			loadStatus.Message = "Load completed successfully"
			loadStatus.ErrorTitle = ""
			loadStatus.ErrorMessage = ""
			loadStatus.LastLoadTime = &now
			loadStatus.LastLoadHash = result.Hash
			loadStatus.LastFilterHash = filtering.FilterHash(groupCfg.Filter)
			loadStatus.MemberCount = result.MemberCount
			loadStatus.SkippedCount = result.SkippedCount
			loadStatus.AttemptCount = 0
			loadStatus.RefreshInterval = effectiveInterval(c.config.RefreshPolicy, groupCfg.RefreshPolicy)
		}
		return true
	}); updateErr != nil {
		logger.Error(updateErr, "Error updating load status")
	}

	if refreshErr != nil {
		retryIn := c.noteFailure(groupName)
		logger.Error(refreshErr, "Load failed",
			"stage", refreshErr.Stage,
			"retryIn", retryIn.Round(time.Second))

		// Record load failure metric
		if c.refreshMetrics != nil {
			c.refreshMetrics.RecordRefreshDuration(ctx, groupName, loadDuration, false)
		}
		return
	}

	c.noteSuccess(groupName)
	logger.Info("Load completed successfully",
		"memberCount", result.MemberCount,
		"skippedCount", result.SkippedCount,
		"hash", pkgsync.HashPreview(result.Hash))

	// Record load success metric
	if c.refreshMetrics != nil {
		c.refreshMetrics.RecordRefreshDuration(ctx, groupName, loadDuration, true)
	}

	// Record group member metrics
	if c.catalogMetrics != nil {
		c.catalogMetrics.RecordMembersLoaded(ctx, groupName, int64(result.MemberCount))
		c.catalogMetrics.RecordFeaturesSkipped(ctx, groupName, int64(result.SkippedCount))
	}
}

// noteFailure records a failed load and returns how long the group is backed
// off before the next attempt.
func (c *defaultCoordinator) noteFailure(groupName string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.backoffs[groupName]
	if !ok {
		b = backoff.NewExponentialBackOff()
		b.InitialInterval = failureBackoffInitial
		b.MaxInterval = failureBackoffMax
		b.Reset()
		c.backoffs[groupName] = b
	}

	wait := b.NextBackOff()
	c.retryAfter[groupName] = time.Now().Add(wait)
	return wait
}

// noteSuccess clears any failure backoff for the group
func (c *defaultCoordinator) noteSuccess(groupName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.backoffs[groupName]; ok {
		b.Reset()
	}
	delete(c.retryAfter, groupName)
}

// backoffRemaining reports how much failure backoff is left for the group.
// Zero means the group may attempt a load.
func (c *defaultCoordinator) backoffRemaining(groupName string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	until, ok := c.retryAfter[groupName]
	if !ok {
		return 0
	}
	remaining := time.Until(until)
	if remaining < 0 {
		return 0
	}
	return remaining
}
