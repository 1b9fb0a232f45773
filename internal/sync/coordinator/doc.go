// Package coordinator provides background refresh coordination for catalog groups.
//
// This package implements the orchestration layer that schedules and executes
// periodic group loads. It sits on top of sync.Manager and handles:
//
//   - Background refresh scheduling using a jittered time.Ticker
//   - Initial load pass on startup
//   - Forced refreshes requested through the API
//   - Exponential backoff for groups whose loads keep failing
//   - Graceful shutdown
//
// # Architecture
//
// The coordinator separates concerns between:
//
//   - internal/sync: Domain logic (what/when to load, how to detect changes)
//   - internal/sync/coordinator: Orchestration (scheduling, lifecycle, backoff)
//   - internal/app: Process lifecycle (starts/stops the coordinator)
//
// # Scheduling
//
// All groups share one polling loop. Each tick walks the configured groups
// and asks Manager.ShouldRefresh whether a load is due; the polling interval
// is re-jittered on every tick (±15 seconds around one minute) so multiple
// server instances do not hit their upstream sources in lockstep. Per-group
// refresh intervals are enforced by the manager against the group's recorded
// load status, not by per-group timers.
//
// # Usage Example
//
//	manager := sync.NewDefaultRefreshManager(factory, catalogWriter, cfg.RefreshPolicy)
//	stateSvc := state.NewFileStateService(persistence)
//
//	coord := coordinator.New(manager, stateSvc, cfg, warmRestored)
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	go coord.Start(ctx)
//
//	// ... run server ...
//
//	coord.Stop()
//
// # Status Updates
//
// Load state transitions go through GroupStateService.UpdateStatusAtomically,
// so when a periodic and a forced refresh race, exactly one marks the group
// Loading and proceeds. The final Ready or Failed status is written the same
// way, keeping concurrent status readers from observing half-written records.
//
// # Error Handling
//
//   - Failed loads are logged and the group status set to Failed, carrying
//     the user-facing error report from the source
//   - The previously published members keep serving; a failure never
//     unpublishes a group
//   - Failing groups are retried with exponential backoff (30s up to 15m)
//     instead of on every tick
//   - Status persistence errors are logged but do not stop the loop
package coordinator
