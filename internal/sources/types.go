package sources

import (
	"context"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
)

// Source data formats recorded on fetch results.
const (
	// FormatGeoJSON marks data fetched from a WFS GetFeature endpoint
	FormatGeoJSON = "geojson"

	// FormatCatalog marks data parsed from a catalog fragment document
	FormatCatalog = "catalog"

	// FormatStatic marks members declared inline in the configuration
	FormatStatic = "static"
)

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler is an interface with methods to fetch group data from external data sources
type SourceHandler interface {
	// FetchGroup retrieves data from the source and returns the assembled group
	FetchGroup(ctx context.Context, groupCfg *config.GroupConfig) (*FetchResult, error)

	// Validate validates the group source configuration
	Validate(groupCfg *config.GroupConfig) error

	// CurrentHash returns the current hash of the source data without assembling the group
	CurrentHash(ctx context.Context, groupCfg *config.GroupConfig) (string, error)
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Group is the assembled catalog group
	Group *catalog.Group

	// Hash is the SHA256 hash of the raw source data for change detection
	Hash string

	// MemberCount is the number of leaf items in the assembled group
	MemberCount int

	// SkippedCount is the number of features dropped by the denylist during assembly
	SkippedCount int

	// Format indicates the original format of the source data
	Format string
}

// NewFetchResult creates a new FetchResult from an assembled group and pre-calculated hash
// The hash should be calculated by the source handler to ensure consistency with CurrentHash
func NewFetchResult(group *catalog.Group, hash string, format string) *FetchResult {
	memberCount := 0
	if group != nil {
		memberCount = group.ItemCount()
	}

	return &FetchResult{
		Group:       group,
		Hash:        hash,
		MemberCount: memberCount,
		Format:      format,
	}
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}
