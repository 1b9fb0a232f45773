package filtering

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// NameFilter handles name-based filtering using glob patterns
type NameFilter interface {
	// ShouldInclude determines if a member name should be included based on
	// include/exclude patterns. Exclude patterns take precedence.
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(name string, include, exclude []string) (bool, string)
}

// defaultNameFilter implements name filtering using glob patterns
type defaultNameFilter struct{}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates a new default name filter
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// ShouldInclude determines if a member name should be included.
// Logic:
//  1. If exclude patterns match -> exclude (takes precedence)
//  2. If include patterns are specified and match -> include
//  3. If include patterns are specified but no match -> exclude
//  4. If only exclude patterns are specified and no match -> include
//  5. If no patterns specified -> include (default)
func (f *defaultNameFilter) ShouldInclude(name string, include, exclude []string) (bool, string) {
	// Check exclude patterns first (they take precedence)
	for _, pattern := range exclude {
		matched, err := f.matchPattern(pattern, name)
		if err != nil {
			// Invalid patterns exclude the member rather than silently
			// letting it through
			return false, fmt.Sprintf("invalid exclude pattern '%s': %v", pattern, err)
		}
		if matched {
			return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
		}
	}

	// If include patterns are specified, the name must match one of them
	if len(include) > 0 {
		for _, pattern := range include {
			matched, err := f.matchPattern(pattern, name)
			if err != nil {
				return false, fmt.Sprintf("invalid include pattern '%s': %v", pattern, err)
			}
			if matched {
				return true, fmt.Sprintf("included by pattern '%s'", pattern)
			}
		}
		return false, fmt.Sprintf("no match found in include patterns %v", include)
	}

	// Only exclude patterns were specified and none matched
	if len(exclude) > 0 {
		return true, fmt.Sprintf("no match in exclude patterns %v", exclude)
	}

	return true, "no name filters specified"
}

// matchPattern matches a name against a glob pattern. filepath.Match
// validates the pattern syntax; the actual matching uses glob.Compile with no
// separators so '*' crosses '/' in member names.
func (f *defaultNameFilter) matchPattern(pattern, name string) (bool, error) {
	if _, err := filepath.Match(pattern, "test"); err != nil {
		return false, fmt.Errorf("invalid glob pattern: %w", err)
	}

	compiled, err := glob.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid glob pattern: %w", err)
	}

	return compiled.Match(name), nil
}
