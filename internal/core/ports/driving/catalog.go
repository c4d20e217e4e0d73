package driving

import (
	"context"
	"io"
)

// CatalogFormat selects the encoding of a catalogue document.
type CatalogFormat string

// Supported catalogue formats.
const (
	CatalogYAML CatalogFormat = "yaml"
	CatalogJSON CatalogFormat = "json"
)

// CollectionInfo describes one stored collection.
type CollectionInfo struct {
	Key      string `json:"key"`
	Elements int    `json:"elements"`
	Present  bool   `json:"present"`
	Valid    bool   `json:"valid"`
}

// CatalogService moves catalogue collections in and out of the store.
type CatalogService interface {
	// Import writes every collection in the document to the store and returns
	// the number of collections written.
	Import(ctx context.Context, r io.Reader, format CatalogFormat) (int, error)

	// Export writes the configured collections as one document.
	Export(ctx context.Context, w io.Writer, format CatalogFormat) error

	// Collections describes the configured collections.
	Collections(ctx context.Context) ([]CollectionInfo, error)
}
