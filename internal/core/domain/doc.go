// Package domain defines the core entities of the issue archive.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawIssue: One issue as fetched, with its edit and timeline entries
//   - TimelineEntry: A sealed sum type over the historical entry kinds
//   - Issue: The derived record written to the archive
//   - Page: One bounded batch of raw issues plus quota and cursor metadata
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
