// Package domain defines the core business entities for the Gang Boyz
// storefront core.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CropMetadata: The persisted {scale, tx, ty} crop of one banner slot
//   - Transform: The editable triple and its render form
//   - IndexedRecord: A typed, tagged catalogue item used for search
//   - AppSettings: Search, crop and upload configuration
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
