package sources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/sources"
)

func TestNewStaticSourceHandler(t *testing.T) {
	t.Parallel()

	handler := sources.NewStaticSourceHandler()
	assert.NotNil(t, handler, "NewStaticSourceHandler should return a non-nil handler")
}

func TestStaticSourceHandler_FetchGroup(t *testing.T) {
	t.Parallel()

	handler := sources.NewStaticSourceHandler()

	groupCfg := &config.GroupConfig{
		Name:        "base-layers",
		Description: "Always-on layers",
		Static: &config.StaticConfig{
			Members: []map[string]any{
				{"name": "Coastline", "url": "https://example.org/coast.json"},
				{
					"name": "Reference",
					"members": []any{
						map[string]any{"name": "Grid", "url": "https://example.org/grid.json"},
					},
				},
			},
		},
	}

	result, err := handler.FetchGroup(context.Background(), groupCfg)

	require.NoError(t, err)
	require.NotNil(t, result.Group)
	assert.Equal(t, "base-layers", result.Group.Name)
	assert.Equal(t, "Always-on layers", result.Group.Description)
	assert.Equal(t, 2, result.MemberCount)
	assert.Equal(t, sources.FormatStatic, result.Format)
	assert.Len(t, result.Hash, 64)

	coastline, ok := result.Group.Members[0].(*catalog.Item)
	require.True(t, ok)
	assert.Equal(t, "Coastline", coastline.Name)

	reference, ok := result.Group.ChildGroup("Reference")
	require.True(t, ok)
	assert.Equal(t, []string{"Grid"}, memberNames(reference.Members))
}

func TestStaticSourceHandler_FetchGroup_EmptyMembers(t *testing.T) {
	t.Parallel()

	handler := sources.NewStaticSourceHandler()

	result, err := handler.FetchGroup(context.Background(), &config.GroupConfig{
		Name:   "empty",
		Static: &config.StaticConfig{Members: []map[string]any{}},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.MemberCount)
	assert.Empty(t, result.Group.Members)
}

func TestStaticSourceHandler_Validate(t *testing.T) {
	t.Parallel()

	handler := sources.NewStaticSourceHandler()

	tests := []struct {
		name        string
		groupCfg    *config.GroupConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil group config",
			groupCfg:    nil,
			expectError: true,
			errorMsg:    "group configuration cannot be nil",
		},
		{
			name:        "missing static block",
			groupCfg:    &config.GroupConfig{Name: "base-layers"},
			expectError: true,
			errorMsg:    "static configuration is required",
		},
		{
			name: "nil members",
			groupCfg: &config.GroupConfig{
				Name:   "base-layers",
				Static: &config.StaticConfig{},
			},
			expectError: true,
			errorMsg:    "static members cannot be nil",
		},
		{
			name: "empty members are allowed",
			groupCfg: &config.GroupConfig{
				Name:   "base-layers",
				Static: &config.StaticConfig{Members: []map[string]any{}},
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := handler.Validate(tt.groupCfg)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStaticSourceHandler_CurrentHash(t *testing.T) {
	t.Parallel()

	handler := sources.NewStaticSourceHandler()
	ctx := context.Background()

	groupCfg := &config.GroupConfig{
		Name: "base-layers",
		Static: &config.StaticConfig{
			Members: []map[string]any{{"name": "Coastline", "url": "https://example.org/coast.json"}},
		},
	}

	result, err := handler.FetchGroup(ctx, groupCfg)
	require.NoError(t, err)

	hash, err := handler.CurrentHash(ctx, groupCfg)
	require.NoError(t, err)
	assert.Equal(t, result.Hash, hash)

	changed := &config.GroupConfig{
		Name: "base-layers",
		Static: &config.StaticConfig{
			Members: []map[string]any{{"name": "Coastline", "url": "https://example.org/coast-v2.json"}},
		},
	}

	changedHash, err := handler.CurrentHash(ctx, changed)
	require.NoError(t, err)
	assert.NotEqual(t, hash, changedHash)
}
