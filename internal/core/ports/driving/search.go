package driving

import (
	"context"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// SearchService provides ranked catalogue search to external actors.
type SearchService interface {
	// Search returns active records matching query, best first, one per id.
	// A non-positive limit uses the configured default.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)

	// Refresh rebuilds the index unless the last rebuild was too recent,
	// and always clears cached results. It reports whether a rebuild ran.
	Refresh(ctx context.Context) (bool, error)

	// Stats summarises the current index.
	Stats() domain.IndexStats
}
