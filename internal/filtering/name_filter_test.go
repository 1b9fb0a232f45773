package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultNameFilter(t *testing.T) {
	t.Parallel()

	filter := NewDefaultNameFilter()
	assert.NotNil(t, filter)
	assert.IsType(t, &defaultNameFilter{}, filter)
}

func TestDefaultNameFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	filter := NewDefaultNameFilter()

	tests := []struct {
		name     string
		member   string
		include  []string
		exclude  []string
		expected bool
		reason   string
	}{
		// No filters specified - default include
		{
			name:     "no filters - should include",
			member:   "Flood Extent 2022",
			include:  []string{},
			exclude:  []string{},
			expected: true,
			reason:   "no filters means default include",
		},
		{
			name:     "nil filters - should include",
			member:   "Flood Extent 2022",
			include:  nil,
			exclude:  nil,
			expected: true,
			reason:   "nil filters means default include",
		},
		// Include-only filters
		{
			name:     "exact include match",
			member:   "Coastline",
			include:  []string{"Coastline"},
			exclude:  []string{},
			expected: true,
			reason:   "exact match should be included",
		},
		{
			name:     "wildcard include match",
			member:   "Flood Extent 2022",
			include:  []string{"Flood *"},
			exclude:  []string{},
			expected: true,
			reason:   "wildcard should match the prefix",
		},
		{
			name:     "include specified but no match",
			member:   "Cadastre",
			include:  []string{"Flood *", "Cyclone *"},
			exclude:  []string{},
			expected: false,
			reason:   "include patterns act as an allowlist",
		},
		{
			name:     "question mark matches single character",
			member:   "Zone A",
			include:  []string{"Zone ?"},
			exclude:  []string{},
			expected: true,
			reason:   "? should match exactly one character",
		},
		{
			name:     "question mark rejects multiple characters",
			member:   "Zone 12",
			include:  []string{"Zone ?"},
			exclude:  []string{},
			expected: false,
			reason:   "? should not match two characters",
		},
		{
			name:     "character class include",
			member:   "Route 2",
			include:  []string{"Route [1-3]"},
			exclude:  []string{},
			expected: true,
			reason:   "character class should match digits in range",
		},
		{
			name:     "wildcard crosses slash",
			member:   "Transport/Rail",
			include:  []string{"Transport*"},
			exclude:  []string{},
			expected: true,
			reason:   "patterns are compiled without separators",
		},
		// Exclude-only filters
		{
			name:     "exclude match",
			member:   "Cadastre (Deprecated)",
			include:  []string{},
			exclude:  []string{"* (Deprecated)"},
			expected: false,
			reason:   "matching an exclude pattern should exclude",
		},
		{
			name:     "exclude no match",
			member:   "Cadastre",
			include:  []string{},
			exclude:  []string{"* (Deprecated)"},
			expected: true,
			reason:   "not matching any exclude pattern should include",
		},
		// Combined filters - exclude takes precedence
		{
			name:     "exclude wins over include",
			member:   "Flood Extent (Deprecated)",
			include:  []string{"Flood *"},
			exclude:  []string{"* (Deprecated)"},
			expected: false,
			reason:   "exclude should take precedence over include",
		},
		{
			name:     "include match without exclude match",
			member:   "Flood Extent 2022",
			include:  []string{"Flood *"},
			exclude:  []string{"* (Deprecated)"},
			expected: true,
			reason:   "include match with no exclude match should include",
		},
		// Invalid patterns
		{
			name:     "invalid include pattern excludes",
			member:   "Coastline",
			include:  []string{"[invalid"},
			exclude:  []string{},
			expected: false,
			reason:   "an invalid include pattern should not admit anything",
		},
		{
			name:     "invalid exclude pattern excludes",
			member:   "Coastline",
			include:  []string{},
			exclude:  []string{"[invalid"},
			expected: false,
			reason:   "an invalid exclude pattern should fail closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, reason := filter.ShouldInclude(tt.member, tt.include, tt.exclude)
			assert.Equal(t, tt.expected, got, tt.reason)
			assert.NotEmpty(t, reason, "every decision should carry a reason")
		})
	}
}

func TestDefaultNameFilter_ShouldInclude_Reasons(t *testing.T) {
	t.Parallel()

	filter := NewDefaultNameFilter()

	_, reason := filter.ShouldInclude("Cadastre (Deprecated)", nil, []string{"* (Deprecated)"})
	assert.Contains(t, reason, "excluded by pattern '* (Deprecated)'")

	_, reason = filter.ShouldInclude("Flood Extent 2022", []string{"Flood *"}, nil)
	assert.Contains(t, reason, "included by pattern 'Flood *'")

	_, reason = filter.ShouldInclude("Cadastre", []string{"Flood *"}, nil)
	assert.Contains(t, reason, "no match found in include patterns")

	_, reason = filter.ShouldInclude("Cadastre", nil, nil)
	assert.Equal(t, "no name filters specified", reason)
}
