// Package validators provides validation functions for catalog server entities.
package validators

import (
	"fmt"
	"regexp"
	"strings"
)

const maxGroupNameLength = 100

// Group name pattern: must start and end with alphanumeric, can contain dots,
// underscores, and hyphens in the middle
var groupNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)

// ValidateGroupName validates a configured group name. Group names appear in
// API URL paths and become state file names on disk, so the allowed alphabet
// is deliberately narrow.
// Returns the validated name (trimmed) and an error if validation fails.
//
// Format requirements:
// - Must start and end with alphanumeric characters
// - May contain dots, underscores, and hyphens in the middle
// - Maximum length: 100 characters
//
// Examples of valid names:
//   - parks
//   - marine-zones
//   - zoning.residential_2024
//
// Examples of invalid names:
//   - parks/north (contains a path separator)
//   - -parks (starts with a hyphen)
//   - parks. (ends with a dot)
func ValidateGroupName(name string) (string, error) {
	// Trim whitespace
	name = strings.TrimSpace(name)

	// Check empty
	if name == "" {
		return "", fmt.Errorf("group name cannot be empty")
	}

	// Check length
	if len(name) > maxGroupNameLength {
		return "", fmt.Errorf("group name exceeds maximum length of %d characters", maxGroupNameLength)
	}

	if !groupNamePattern.MatchString(name) {
		return "", fmt.Errorf(
			"group name '%s' is invalid. Group names must start and end with alphanumeric characters, "+
				"and may contain dots, underscores, and hyphens in the middle",
			name,
		)
	}

	return name, nil
}

// IsValidGroupName checks if a group name is valid.
// Returns true if valid, false otherwise.
// This is a convenience wrapper around ValidateGroupName for boolean checks.
func IsValidGroupName(name string) bool {
	_, err := ValidateGroupName(name)
	return err == nil
}
