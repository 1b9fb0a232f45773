package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
)

func TestNewFragmentValidator(t *testing.T) {
	t.Parallel()

	validator := NewFragmentValidator()
	assert.NotNil(t, validator)
}

func TestFragmentValidator_ValidateFragment(t *testing.T) {
	t.Parallel()

	validJSON := []byte(`{
		"schemaVersion": "1.0.0",
		"description": "Authored parks",
		"members": [
			{"name": "Royal", "url": "https://example.org/parks/1"},
			{
				"name": "Reserves",
				"members": [
					{"name": "Centennial", "url": "https://example.org/parks/2"}
				]
			}
		]
	}`)

	validJWCC := []byte(`{
		// Hand-maintained parks catalog.
		"schemaVersion": "1.0.0",
		"members": [
			{"name": "Royal", "url": "https://example.org/parks/1"},
		],
	}`)

	validYAML := []byte(`schemaVersion: 1.0.0
description: Authored parks
members:
  - name: Royal
    url: https://example.org/parks/1
  - name: Reserves
    members:
      - name: Centennial
        url: https://example.org/parks/2
`)

	tests := []struct {
		name          string
		data          []byte
		format        string
		expectError   bool
		errorContains string
		expectedNames []string
	}{
		{
			name:          "valid json fragment",
			data:          validJSON,
			format:        config.FileFormatJSON,
			expectedNames: []string{"Royal", "Reserves"},
		},
		{
			name:          "empty format defaults to json",
			data:          validJSON,
			format:        "",
			expectedNames: []string{"Royal", "Reserves"},
		},
		{
			name:          "valid jwcc fragment with comments and trailing commas",
			data:          validJWCC,
			format:        config.FileFormatJWCC,
			expectedNames: []string{"Royal"},
		},
		{
			name:          "valid yaml fragment",
			data:          validYAML,
			format:        config.FileFormatYAML,
			expectedNames: []string{"Royal", "Reserves"},
		},
		{
			name:          "empty data",
			data:          []byte{},
			format:        config.FileFormatJSON,
			expectError:   true,
			errorContains: "data cannot be empty",
		},
		{
			name:          "unsupported format",
			data:          validJSON,
			format:        "toml",
			expectError:   true,
			errorContains: "unsupported document format",
		},
		{
			name:          "comments rejected in plain json",
			data:          validJWCC,
			format:        config.FileFormatJSON,
			expectError:   true,
			errorContains: "invalid JSON document",
		},
		{
			name:          "malformed jwcc",
			data:          []byte(`{"schemaVersion": "1.0.0", "members": [`),
			format:        config.FileFormatJWCC,
			expectError:   true,
			errorContains: "invalid JWCC document",
		},
		{
			name:          "missing schemaVersion",
			data:          []byte(`{"members": []}`),
			format:        config.FileFormatJSON,
			expectError:   true,
			errorContains: "fragment schema validation failed",
		},
		{
			name:          "missing members",
			data:          []byte(`{"schemaVersion": "1.0.0"}`),
			format:        config.FileFormatJSON,
			expectError:   true,
			errorContains: "fragment schema validation failed",
		},
		{
			name:          "member without a name",
			data:          []byte(`{"schemaVersion": "1.0.0", "members": [{"url": "https://example.org"}]}`),
			format:        config.FileFormatJSON,
			expectError:   true,
			errorContains: "fragment schema validation failed",
		},
		{
			name:          "newer schema generation",
			data:          []byte(`{"schemaVersion": "2.0.0", "members": []}`),
			format:        config.FileFormatJSON,
			expectError:   true,
			errorContains: "unsupported schemaVersion",
		},
		{
			name:          "schema generation zero",
			data:          []byte(`{"schemaVersion": "0.9", "members": []}`),
			format:        config.FileFormatJSON,
			expectError:   true,
			errorContains: "unsupported schemaVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			validator := NewFragmentValidator()

			fragment, err := validator.ValidateFragment(tt.data, tt.format)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, fragment)
			require.Len(t, fragment.Members, len(tt.expectedNames))
			for i, name := range tt.expectedNames {
				assert.Equal(t, name, fragment.Members[i].MemberName())
			}
		})
	}
}

func TestFragmentValidator_NestedMembers(t *testing.T) {
	t.Parallel()

	validator := NewFragmentValidator()

	fragment, err := validator.ValidateFragment([]byte(`{
		"schemaVersion": "1.1.0",
		"members": [
			{
				"name": "Reserves",
				"description": "Protected areas",
				"members": [
					{"name": "Centennial", "url": "https://example.org/parks/2", "opacity": 0.8}
				]
			}
		]
	}`), config.FileFormatJSON)

	require.NoError(t, err)
	require.Len(t, fragment.Members, 1)

	reserves, ok := fragment.Members[0].(*catalog.Group)
	require.True(t, ok, "a member with a members array decodes as a group")
	assert.Equal(t, "Protected areas", reserves.Description)
	require.Len(t, reserves.Members, 1)

	centennial, ok := reserves.Members[0].(*catalog.Item)
	require.True(t, ok)
	assert.Equal(t, "Centennial", centennial.Name)
	assert.Equal(t, "https://example.org/parks/2", centennial.URL)
	assert.Equal(t, 0.8, centennial.Extra["opacity"])
}

func TestFragment_Group(t *testing.T) {
	t.Parallel()

	fragment := &Fragment{
		SchemaVersion: "1.0.0",
		Description:   "From the fragment",
		Members: []catalog.Member{
			catalog.NewItem("Royal", "https://example.org/parks/1"),
			catalog.NewGroup("Reserves"),
		},
	}

	t.Run("configuration description wins", func(t *testing.T) {
		t.Parallel()

		group := fragment.Group("parks", "From the configuration")

		assert.Equal(t, "parks", group.Name)
		assert.Equal(t, "From the configuration", group.Description)
		assert.Len(t, group.Members, 2)
	})

	t.Run("fragment description fills the gap", func(t *testing.T) {
		t.Parallel()

		group := fragment.Group("parks", "")

		assert.Equal(t, "From the fragment", group.Description)
	})

	t.Run("nested groups are indexed", func(t *testing.T) {
		t.Parallel()

		group := fragment.Group("parks", "")

		_, ok := group.ChildGroup("Reserves")
		assert.True(t, ok)
	})
}

func TestCheckSchemaVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		version     string
		expectError bool
	}{
		{name: "current generation", version: "1.0.0", expectError: false},
		{name: "newer minor", version: "1.7.2", expectError: false},
		{name: "major only", version: "1", expectError: false},
		{name: "next generation", version: "2.0.0", expectError: true},
		{name: "generation zero", version: "0.1.0", expectError: true},
		{name: "empty", version: "", expectError: true},
		{name: "not a version", version: "latest", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := checkSchemaVersion(tt.version)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatFromExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected string
	}{
		{path: "catalog.json", expected: config.FileFormatJSON},
		{path: "catalog.yaml", expected: config.FileFormatYAML},
		{path: "catalog.YML", expected: config.FileFormatYAML},
		{path: "catalog.jwcc", expected: config.FileFormatJWCC},
		{path: "catalog.hujson", expected: config.FileFormatJWCC},
		{path: "catalog.txt", expected: config.FileFormatJSON},
		{path: "catalog", expected: config.FileFormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, formatFromExtension(tt.path))
		})
	}
}

func TestEffectiveFileFormat(t *testing.T) {
	t.Parallel()

	t.Run("explicit format wins over the extension", func(t *testing.T) {
		t.Parallel()

		format := effectiveFileFormat(&config.FileConfig{Path: "catalog.yaml", Format: config.FileFormatJWCC})
		assert.Equal(t, config.FileFormatJWCC, format)
	})

	t.Run("unset format falls back to the extension", func(t *testing.T) {
		t.Parallel()

		format := effectiveFileFormat(&config.FileConfig{Path: "catalog.yaml"})
		assert.Equal(t, config.FileFormatYAML, format)
	})
}
