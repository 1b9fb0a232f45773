// Package catalog defines the tree model served by the catalog API.
//
// A Catalog is a named collection of top-level groups. Each Group holds an
// ordered list of members, which are either Item leaves (a single displayable
// layer) or nested Groups. Member order is insertion order and is never
// normalized or sorted: source handlers attach members in the order the
// upstream data produced them, and that order is part of the contract.
//
// Items carry an open property bag (Extra) in addition to their typed fields
// so that per-group item defaults can attach presentation hints (opacity,
// style identifiers and similar) without this package knowing about them.
package catalog
