package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
)

func testLayerGroup() *catalog.Group {
	group := catalog.NewGroup("layers")
	group.Description = "Reference layers"
	group.Add(catalog.NewItem("Coastline", "https://maps.example.org/wms/coastline"))
	group.Add(catalog.NewItem("Flood Extent 2022", "https://maps.example.org/wms/flood-2022"))
	group.Add(catalog.NewItem("Flood Warning Areas", "https://maps.example.org/wms/flood-warning"))
	group.Add(catalog.NewItem("Cadastre (Deprecated)", "https://maps.example.org/wms/cadastre"))
	return group
}

func memberNames(g *catalog.Group) []string {
	names := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		names = append(names, m.MemberName())
	}
	return names
}

func TestNewDefaultFilterService(t *testing.T) {
	t.Parallel()

	service, ok := NewDefaultFilterService().(*defaultFilterService)
	require.True(t, ok)
	assert.NotNil(t, service)
	assert.NotNil(t, service.nameFilter)
}

func TestNewFilterService(t *testing.T) {
	t.Parallel()

	nameFilter := NewDefaultNameFilter()
	service, ok := NewFilterService(nameFilter).(*defaultFilterService)
	require.True(t, ok)
	assert.Equal(t, nameFilter, service.nameFilter)
}

func TestDefaultFilterService_ApplyFilters_NoFilter(t *testing.T) {
	t.Parallel()

	service := NewDefaultFilterService()
	group := testLayerGroup()

	result, err := service.ApplyFilters(t.Context(), group, nil)
	require.NoError(t, err)
	assert.Same(t, group, result, "nil filter should return the group untouched")

	result, err = service.ApplyFilters(t.Context(), group, &config.FilterConfig{})
	require.NoError(t, err)
	assert.Same(t, group, result, "empty filter should return the group untouched")
}

func TestDefaultFilterService_ApplyFilters_NilGroup(t *testing.T) {
	t.Parallel()

	service := NewDefaultFilterService()

	_, err := service.ApplyFilters(t.Context(), nil, &config.FilterConfig{Include: []string{"*"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group cannot be nil")
}

func TestDefaultFilterService_ApplyFilters_NameFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		filter        *config.FilterConfig
		expectedNames []string
	}{
		{
			name:          "include only keeps matching items",
			filter:        &config.FilterConfig{Include: []string{"Flood *"}},
			expectedNames: []string{"Flood Extent 2022", "Flood Warning Areas"},
		},
		{
			name:          "exclude only drops matching items",
			filter:        &config.FilterConfig{Exclude: []string{"* (Deprecated)"}},
			expectedNames: []string{"Coastline", "Flood Extent 2022", "Flood Warning Areas"},
		},
		{
			name: "exclude wins over include",
			filter: &config.FilterConfig{
				Include: []string{"*"},
				Exclude: []string{"Flood *"},
			},
			expectedNames: []string{"Coastline", "Cadastre (Deprecated)"},
		},
		{
			name:          "include with no matches empties the group",
			filter:        &config.FilterConfig{Include: []string{"Rainfall *"}},
			expectedNames: []string{},
		},
		{
			name: "multiple include patterns",
			filter: &config.FilterConfig{
				Include: []string{"Coastline", "Flood Extent *"},
			},
			expectedNames: []string{"Coastline", "Flood Extent 2022"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := NewDefaultFilterService()
			result, err := service.ApplyFilters(t.Context(), testLayerGroup(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedNames, memberNames(result))
		})
	}
}

func TestDefaultFilterService_ApplyFilters_NestedGroups(t *testing.T) {
	t.Parallel()

	group := catalog.NewGroup("layers")
	group.Add(catalog.NewItem("Coastline", "https://maps.example.org/wms/coastline"))

	hazards := catalog.NewGroup("Hazards")
	hazards.Add(catalog.NewItem("Flood Extent 2022", "https://maps.example.org/wms/flood-2022"))
	hazards.Add(catalog.NewItem("Cyclone Tracks", "https://maps.example.org/wms/cyclones"))
	group.Add(hazards)

	archive := catalog.NewGroup("Archive (Deprecated)")
	archive.Add(catalog.NewItem("Flood Extent 1990", "https://maps.example.org/wms/flood-1990"))
	group.Add(archive)

	service := NewDefaultFilterService()
	filter := &config.FilterConfig{
		Include: []string{"Coastline", "Flood *"},
		Exclude: []string{"* (Deprecated)"},
	}

	result, err := service.ApplyFilters(t.Context(), group, filter)
	require.NoError(t, err)

	// Include patterns reach items inside child groups; the excluded
	// archive group is gone along with its contents.
	assert.Equal(t, []string{"Coastline", "Hazards"}, memberNames(result))
	assert.Equal(t, 2, result.ItemCount())

	child, ok := result.ChildGroup("Hazards")
	require.True(t, ok)
	assert.Equal(t, []string{"Flood Extent 2022"}, memberNames(child))

	_, ok = result.ChildGroup("Archive (Deprecated)")
	assert.False(t, ok)
}

func TestDefaultFilterService_ApplyFilters_EmptyChildGroupKept(t *testing.T) {
	t.Parallel()

	group := catalog.NewGroup("layers")
	hazards := catalog.NewGroup("Hazards")
	hazards.Add(catalog.NewItem("Cyclone Tracks", "https://maps.example.org/wms/cyclones"))
	group.Add(hazards)

	service := NewDefaultFilterService()
	result, err := service.ApplyFilters(t.Context(), group, &config.FilterConfig{Include: []string{"Coastline"}})
	require.NoError(t, err)

	child, ok := result.ChildGroup("Hazards")
	require.True(t, ok, "a child group is structural and survives losing its items")
	assert.Empty(t, child.Members)
	assert.Equal(t, 0, result.ItemCount())
}

func TestDefaultFilterService_ApplyFilters_PreservesOriginal(t *testing.T) {
	t.Parallel()

	group := testLayerGroup()
	service := NewDefaultFilterService()

	result, err := service.ApplyFilters(t.Context(), group, &config.FilterConfig{Exclude: []string{"*"}})
	require.NoError(t, err)

	assert.Equal(t, "layers", result.Name)
	assert.Equal(t, "Reference layers", result.Description)
	assert.Empty(t, result.Members)
	assert.Len(t, group.Members, 4, "filtering must not mutate the input group")
}

func TestFilterHash(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FilterHash(nil))
	assert.Empty(t, FilterHash(&config.FilterConfig{}))

	a := FilterHash(&config.FilterConfig{Include: []string{"Flood *"}})
	b := FilterHash(&config.FilterConfig{Include: []string{"Flood *"}})
	assert.Equal(t, a, b, "identical rules should produce identical hashes")
	assert.Len(t, a, 64)

	c := FilterHash(&config.FilterConfig{Include: []string{"Cyclone *"}})
	assert.NotEqual(t, a, c)

	d := FilterHash(&config.FilterConfig{Exclude: []string{"Flood *"}})
	assert.NotEqual(t, a, d, "the same pattern means different things as include and exclude")
}
