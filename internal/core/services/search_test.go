package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/storage/memory"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
)

// seedStore writes raw collection values into a new memory store.
func seedStore(t *testing.T, collections map[string]string) *memory.KeyValueStore {
	t.Helper()
	store := memory.NewKeyValueStore()
	for key, value := range collections {
		require.NoError(t, store.Set(context.Background(), key, value))
	}
	return store
}

// noCategories disables category synthesis.
func noCategories() domain.SearchSettings {
	return domain.SearchSettings{Categories: []domain.CategorySeed{}}
}

func newIndex(t *testing.T, store driven.KeyValueStore, settings domain.SearchSettings, clock driven.Clock) *SearchIndex {
	t.Helper()
	idx, err := NewSearchIndex(context.Background(), store, settings, clock)
	require.NoError(t, err)
	return idx
}

func ids(results []domain.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Record.ID)
	}
	return out
}

func TestSearchIndex_RanksByRelevance(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[
			{"id": "prod-5", "name": "Combo", "description": "Leve uma jaqueta"}
		]`,
		domain.CollectionHotProducts: `[
			{"id": "HOT001", "name": "Jaqueta Preta", "category": "Jaquetas", "price": 299.9}
		]`,
		domain.CollectionCategories: `[
			{"id": "cat001", "name": "Jaquetas"}
		]`,
	})
	idx := newIndex(t, store, noCategories(), nil)

	results, err := idx.Search(context.Background(), "  JAQUETA ", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"HOT001", "cat001", "prod-5"}, ids(results))
	// name + category + tag
	assert.Equal(t, 110, results[0].Score)
	// name + tag
	assert.Equal(t, 80, results[1].Score)
	assert.Equal(t, domain.RecordCategory, results[1].Record.Type)
	// description + tag
	assert.Equal(t, 60, results[2].Score)
}

func TestSearchIndex_ExactIDOutranksContainedID(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[
			{"id": "prod-10", "name": "Boné"},
			{"id": "prod-1", "name": "Moletom"}
		]`,
	})
	idx := newIndex(t, store, noCategories(), nil)

	results, err := idx.Search(context.Background(), "prod-1", 0)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "prod-1", results[0].Record.ID)
	assert.Equal(t, 120, results[0].Score)
	assert.Equal(t, "prod-10", results[1].Record.ID)
	assert.Equal(t, 100, results[1].Score)
}

func TestSearchIndex_DeduplicatesByID(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts:    `[{"id": "prod-7", "name": "Camiseta"}]`,
		domain.CollectionHotProducts: `[{"id": "prod-7", "name": "Camiseta Gang", "description": "camiseta de algodão"}]`,
	})
	idx := newIndex(t, store, noCategories(), nil)

	results, err := idx.Search(context.Background(), "camiseta", 0)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 120, results[0].Score)
	assert.Equal(t, domain.CollectionHotProducts, results[0].Record.Collection)
}

func TestSearchIndex_TiesKeepCollectionOrder(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[
			{"id": "prod-b", "name": "Bermuda"},
			{"id": "prod-a", "name": "Bermuda"}
		]`,
		domain.CollectionHotProducts: `[{"id": "hot-c", "name": "Bermuda"}]`,
	})
	idx := newIndex(t, store, noCategories(), nil)

	results, err := idx.Search(context.Background(), "bermuda", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"prod-b", "prod-a", "hot-c"}, ids(results))
}

func TestSearchIndex_SkipsInactiveRecords(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[
			{"id": "prod-1", "name": "Moletom Gang"},
			{"id": "prod-2", "name": "Moletom Antigo", "isActive": false}
		]`,
	})
	idx := newIndex(t, store, noCategories(), nil)

	results, err := idx.Search(context.Background(), "moletom", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"prod-1"}, ids(results))
	// Inactive records stay in the index.
	assert.Len(t, idx.Records(domain.RecordProduct), 2)
}

func TestSearchIndex_EmptyQuery(t *testing.T) {
	idx := newIndex(t, seedStore(t, nil), domain.SearchSettings{}, nil)

	for _, q := range []string{"", "   ", "\t"} {
		results, err := idx.Search(context.Background(), q, 5)
		require.NoError(t, err)
		assert.NotNil(t, results, "%q", q)
		assert.Empty(t, results, "%q", q)
	}
}

func TestSearchIndex_Limit(t *testing.T) {
	var items []string
	for i := range 12 {
		items = append(items, fmt.Sprintf(`{"id": "prod-%d", "name": "Item %d"}`, i, i))
	}
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: "[" + strings.Join(items, ",") + "]",
	})
	idx := newIndex(t, store, noCategories(), nil)
	ctx := context.Background()

	results, err := idx.Search(ctx, "item", 0)
	require.NoError(t, err)
	assert.Len(t, results, 10)

	results, err = idx.Search(ctx, "item", -1)
	require.NoError(t, err)
	assert.Len(t, results, 10)

	results, err = idx.Search(ctx, "item", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-0", "prod-1", "prod-2"}, ids(results))

	results, err = idx.Search(ctx, "item", 50)
	require.NoError(t, err)
	assert.Len(t, results, 12)
}

func TestSearchIndex_NoMatches(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}]`,
	})
	idx := newIndex(t, store, noCategories(), nil)

	results, err := idx.Search(context.Background(), "zzz", 0)

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchIndex_CacheExpiresOnIndexClock(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}]`,
	})
	clock := newFakeClock()
	idx := newIndex(t, store, noCategories(), clock)
	metrics := &recordingMetrics{}
	idx.SetMetrics(metrics)
	ctx := context.Background()

	_, err := idx.Search(ctx, "moletom", 0)
	require.NoError(t, err)
	clock.Advance(29 * time.Second)
	_, err = idx.Search(ctx, "moletom", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)

	clock.Advance(2 * time.Second)
	_, err = idx.Search(ctx, "moletom", 0)
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
}

func TestSearchIndex_CacheKeyIncludesLimit(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}, {"id": "prod-2", "name": "Moletom"}]`,
	})
	idx := newIndex(t, store, noCategories(), nil)
	ctx := context.Background()

	one, err := idx.Search(ctx, "moletom", 1)
	require.NoError(t, err)
	two, err := idx.Search(ctx, "moletom", 2)
	require.NoError(t, err)

	assert.Len(t, one, 1)
	assert.Len(t, two, 2)
	assert.Equal(t, 2, idx.Stats().CachedItems)
}

func TestSearchIndex_ResultsAreCopies(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}]`,
	})
	idx := newIndex(t, store, noCategories(), nil)
	ctx := context.Background()

	first, err := idx.Search(ctx, "moletom", 0)
	require.NoError(t, err)
	first[0].Score = -1

	second, err := idx.Search(ctx, "moletom", 0)
	require.NoError(t, err)
	assert.Equal(t, 80, second[0].Score)
}

func TestSearchIndex_RefreshPicksUpChanges(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}]`,
	})
	clock := newFakeClock()
	settings := noCategories()
	settings.RefreshInterval = 5 * time.Second
	idx := newIndex(t, store, settings, clock)
	ctx := context.Background()

	_, err := idx.Search(ctx, "combo", 0)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, domain.CollectionOffers, `[{"id": "offer-1", "name": "Combo Inverno"}]`))

	// Too soon: not rebuilt, but the cache is cleared.
	clock.Advance(time.Second)
	rebuilt, err := idx.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, rebuilt)
	assert.Zero(t, idx.Stats().CachedItems)

	results, err := idx.Search(ctx, "combo", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	clock.Advance(5 * time.Second)
	rebuilt, err = idx.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, rebuilt)

	results, err = idx.Search(ctx, "combo", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.RecordOffer, results[0].Record.Type)
	assert.Equal(t, clock.Now(), idx.Stats().BuiltAt)
}

func TestSearchIndex_FailedRefreshKeepsIndex(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}]`,
	})
	idx := newIndex(t, store, noCategories(), nil)
	metrics := &recordingMetrics{}
	idx.SetMetrics(metrics)
	require.NoError(t, store.Remove(context.Background(), domain.CollectionProducts))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rebuilt, err := idx.Refresh(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, rebuilt)
	assert.Len(t, idx.Records(""), 1)
	assert.Equal(t, []driven.RebuildOutcome{driven.RebuildFailed}, metrics.outcomes)
}

func TestSearchIndex_FailedRefreshDoesNotThrottleRetry(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}]`,
	})
	clock := newFakeClock()
	settings := noCategories()
	settings.RefreshInterval = 5 * time.Second
	idx := newIndex(t, store, settings, clock)
	require.NoError(t, store.Set(context.Background(), domain.CollectionOffers, `[{"id": "offer-1", "name": "Combo"}]`))

	clock.Advance(6 * time.Second)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idx.Refresh(cancelled)
	require.ErrorIs(t, err, context.Canceled)

	// The failure did not open a new interval, so the retry rebuilds.
	clock.Advance(time.Second)
	rebuilt, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.Len(t, idx.Records(""), 2)

	// A successful build does open one.
	clock.Advance(time.Second)
	rebuilt, err = idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, rebuilt)
}

func TestSearchIndex_IgnoresResultsCachedFromReplacedSnapshot(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}]`,
	})
	clock := newFakeClock()
	idx := newIndex(t, store, noCategories(), clock)
	ctx := context.Background()

	stale := idx.snapshot.Load()
	require.NoError(t, store.Set(ctx, domain.CollectionOffers, `[{"id": "offer-1", "name": "Combo"}]`))
	rebuilt, err := idx.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, rebuilt)

	// A search that ranked the old snapshot stores its results after the flush.
	idx.cache.Set(cacheKey("combo", 10), cachedResults{
		results:  []domain.SearchResult{},
		storedAt: clock.Now(),
		snapshot: stale,
	}, 0)

	results, err := idx.Search(ctx, "combo", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"offer-1"}, ids(results))
}

func TestSearchIndex_ProductCountIsCopied(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom", "categories": ["moletons"]}]`,
	})
	idx := newIndex(t, store, domain.SearchSettings{}, nil)
	ctx := context.Background()

	first, err := idx.Search(ctx, "moletons", 0)
	require.NoError(t, err)
	require.Equal(t, "moletons", first[0].Record.ID)
	*first[0].Record.ProductCount = 99
	first[0].Record.Tags[0] = "changed"

	second, err := idx.Search(ctx, "moletons", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, *second[0].Record.ProductCount)
	assert.NotContains(t, second[0].Record.Tags, "changed")

	records := idx.Records(domain.RecordCategory)
	*records[0].ProductCount = 42
	assert.NotEqual(t, 42, *idx.Records(domain.RecordCategory)[0].ProductCount)
}

func TestSearchIndex_RecordsRebuildOutcomes(t *testing.T) {
	clock := newFakeClock()
	settings := noCategories()
	settings.RefreshInterval = 5 * time.Second
	idx := newIndex(t, seedStore(t, nil), settings, clock)
	metrics := &recordingMetrics{}
	idx.SetMetrics(metrics)

	_, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	clock.Advance(6 * time.Second)
	_, err = idx.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []driven.RebuildOutcome{driven.RebuildThrottled, driven.RebuildCompleted}, metrics.outcomes)
}

func TestSearchIndex_UnreadableCollectionIsSkipped(t *testing.T) {
	store := newFlakyStore()
	require.NoError(t, store.Set(context.Background(), domain.CollectionProducts, `[{"id": "prod-1"}]`))
	idx := newIndex(t, store, noCategories(), nil)
	require.Len(t, idx.Records(""), 1)

	store.getErr = errStoreDown
	rebuilt, err := idx.Refresh(context.Background())

	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.Empty(t, idx.Records(""))
}

func TestSearchIndex_ConcurrentSearchAndRefresh(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "name": "Moletom"}, {"id": "prod-2", "name": "Calça"}]`,
	})
	idx := newIndex(t, store, domain.SearchSettings{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				if i%4 == 0 {
					_, err := idx.Refresh(ctx)
					assert.NoError(t, err)
					continue
				}
				results, err := idx.Search(ctx, "moletom", 0)
				assert.NoError(t, err)
				// Every snapshot holds both records plus six categories.
				assert.NotEmpty(t, results)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, idx.Stats().Records)
}

func TestSearchIndex_Stats(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[{"id": "prod-1", "categories": ["moletons"]}, 42, {"name": "no id"}]`,
		domain.CollectionBanners:  `[{"id": "banner-1", "title": "Drop"}]`,
		domain.CollectionOffers:   `{"id": "offer-1"}`,
	})
	clock := newFakeClock()
	idx := newIndex(t, store, domain.SearchSettings{}, clock)

	stats := idx.Stats()

	assert.Equal(t, 8, stats.Records)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.ByType[domain.RecordProduct])
	assert.Equal(t, 1, stats.ByType[domain.RecordBanner])
	assert.Equal(t, 6, stats.ByType[domain.RecordCategory])
	assert.Zero(t, stats.ByType[domain.RecordOffer])
	assert.Equal(t, clock.Now(), stats.BuiltAt)
}

func TestSearchIndex_DefaultCategoriesAreSearchable(t *testing.T) {
	store := seedStore(t, map[string]string{
		domain.CollectionProducts: `[
			{"id": "prod-1", "name": "Moletom Gang", "categories": ["moletons"]},
			{"id": "prod-2", "name": "Calça Cargo", "category": "Calças"}
		]`,
	})
	idx := newIndex(t, store, domain.SearchSettings{}, nil)

	results, err := idx.Search(context.Background(), "moletons", 0)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	top := results[0].Record
	assert.Equal(t, "moletons", top.ID)
	assert.Equal(t, domain.RecordCategory, top.Type)
	require.NotNil(t, top.ProductCount)
	assert.Equal(t, 1, *top.ProductCount)
}

func TestRelevanceScore(t *testing.T) {
	rec := domain.IndexedRecord{
		ID:          "prod-1",
		Name:        "Moletom Gang",
		Description: "Moletom preto",
		Category:    "Moletons",
		Tags:        []string{"moletom gang", "moletom preto", "moletons", "prod-1"},
	}

	tests := []struct {
		query string
		want  int
	}{
		{"prod-1", 120},
		{"prod", 100},
		{"moletom", 60 + 40 + 20},
		{"molet", 60 + 40 + 30 + 20},
		{"preto", 40 + 20},
		{"moletons", 30 + 20},
		{"gang", 60 + 20},
		{"zzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, RelevanceScore(rec, tt.query))
		})
	}
}

func TestRank_TagBonusCountedOnce(t *testing.T) {
	records := []domain.IndexedRecord{
		{ID: "x", IsActive: true, Tags: []string{"preto", "pretoso"}},
	}

	got := rank(records, "preto", 10)

	require.Len(t, got, 1)
	assert.Equal(t, scoreTag, got[0].Score)
}
