// Package filtering provides member filtering for loaded catalog groups.
//
// A group configuration may carry include/exclude glob patterns. After a
// source load the filter service walks the fetched member tree and drops the
// members the patterns reject, with exclude taking precedence over include.
//
// # Name Matching
//
// Patterns are glob expressions supporting wildcards like '*', '?', and
// character classes '[...]'. Examples:
//
//   - "Flood *" matches "Flood Extent 2022", "Flood Warning Areas"
//   - "Zone ?" matches "Zone A", "Zone B" but not "Zone 12"
//   - "Route [1-3]" matches "Route 1", "Route 2", "Route 3"
//
// Matching uses glob.Compile with no separator characters, so '*' also
// crosses '/' in member names.
//
// # Filtering Logic
//
//  1. If exclude patterns are specified and match -> exclude (precedence)
//  2. If include patterns are specified and match -> include
//  3. If include patterns are specified but no match -> exclude
//  4. If only exclude patterns are specified and no match -> include
//  5. If no patterns are specified -> include (default behavior)
//
// Include patterns apply to items; child groups are traversed rather than
// matched, so an include pattern keeps matching items at any depth. Exclude
// patterns apply to both, and an excluded child group drops its whole
// subtree.
//
// # Usage Example
//
//	service := NewDefaultFilterService()
//	filter := &config.FilterConfig{
//		Include: []string{"Flood *", "Cyclone *"},
//		Exclude: []string{"* (Deprecated)"},
//	}
//
//	filteredGroup, err := service.ApplyFilters(ctx, loadedGroup, filter)
//
// Per-member decisions are logged at trace level with the matching pattern,
// making it easy to see why a member was kept or dropped.
package filtering
