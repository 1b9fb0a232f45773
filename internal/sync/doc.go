// Package sync provides refresh management interfaces and implementations
// for catalog groups.
//
// # Core Interfaces
//
//   - Manager: orchestrates refresh operations (the domain logic)
//   - DataChangeDetector: detects source data changes via hash comparison
//   - AutomaticRefreshChecker: handles interval-based refresh scheduling
//
// The sync/coordinator subpackage provides the orchestration layer that
// schedules and executes background refreshes: ticker-based periodic checks,
// status persistence through sync/state, exponential backoff for failing
// groups, and lifecycle management. The sync/writer subpackage publishes
// loaded groups to the live catalog and keeps the snapshot current.
//
// # Refresh Decision Making
//
// Manager.ShouldRefresh evaluates, in order:
//
//   - A load already in flight blocks a new one (ReasonAlreadyInProgress)
//   - A forced refresh bypasses all change detection (ReasonForcedRefresh)
//   - A group that is not Ready loads unconditionally (ReasonGroupNotReady)
//   - Changed filter rules force a rebuild even when the source data is
//     unchanged (ReasonFilterChanged)
//   - An elapsed refresh interval consults the change detector and loads
//     only when the source hash moved (ReasonSourceDataChanged), or when the
//     check itself failed (ReasonErrorCheckingChanges)
//
// Groups with no refresh policy load once and then only change on forced
// refresh or state recovery.
//
// # Result and Error Types
//
//   - Result: the outcome of a successful refresh (hash, member counts)
//   - Error: a structured failure carrying the operator-facing Message, the
//     failed Stage, and the user-facing Title/Report lifted from the source's
//     load error when present
//
// On any failure the live catalog keeps serving the previously loaded
// subtree; only the group's load status records the failure.
package sync
