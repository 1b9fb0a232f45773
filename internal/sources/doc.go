// Package sources provides interfaces and implementations for retrieving
// catalog group data from various external sources.
//
// The package defines the SourceHandler interface which abstracts the
// process of validating group configurations and fetching member data
// from external sources such as WFS endpoints, Git repositories,
// local files, or inline configuration.
//
// Architecture:
//   - SourceHandler: Interface for fetching and validating group data
//   - FetchResult: Strongly-typed result containing an assembled catalog
//     group with metadata for change detection
//   - StorageManager: Persists assembled catalogs between refreshes
//
// Current implementations:
//   - wfsSourceHandler: Builds a group from a WFS GetFeature response,
//     one item per feature with optional attribute-based sub-grouping
//   - fileSourceHandler: Reads catalog fragments from the local filesystem
//     in JSON, JWCC, or YAML format
//   - gitSourceHandler: Retrieves catalog fragments from Git repositories
//     Supports public repos via HTTPS with branch/tag/commit checkout
//   - staticSourceHandler: Materializes members declared inline in the
//     server configuration
//
// The package provides a factory pattern for creating appropriate
// source handlers based on the group type configuration.
package sources
