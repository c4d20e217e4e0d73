package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// Ensure SearchIndex implements the interface.
var _ driving.SearchService = (*SearchIndex)(nil)

// Relevance bonuses. A record collects every bonus it qualifies for; only
// the ordering id-exact > id > name > description > category > tag matters.
const (
	scoreIDExact     = 100
	scoreIDContains  = 80
	scoreName        = 60
	scoreDescription = 40
	scoreCategory    = 30
	scoreTag         = 20
)

// cachedResults is a query cache entry stamped with the index clock and
// the snapshot it was ranked from.
type cachedResults struct {
	results  []domain.SearchResult
	storedAt time.Time
	snapshot *indexSnapshot
}

// SearchIndex is an in-memory ranked index over the stored collections.
// Readers always see one complete snapshot; rebuilds swap it atomically.
type SearchIndex struct {
	store    driven.KeyValueStore
	settings domain.SearchSettings
	clock    driven.Clock
	metrics  driven.SearchMetrics

	snapshot atomic.Pointer[indexSnapshot]
	cache    *cache.Cache

	// mu serialises rebuilds; the throttle admits one per RefreshInterval.
	mu       sync.Mutex
	throttle *rate.Limiter
}

// NewSearchIndex builds the initial index from store.
// A nil clock uses the system clock.
func NewSearchIndex(
	ctx context.Context,
	store driven.KeyValueStore,
	settings domain.SearchSettings,
	clock driven.Clock,
) (*SearchIndex, error) {
	defaults := domain.DefaultAppSettings().Search
	if settings.Collections == nil {
		settings.Collections = defaults.Collections
	}
	if settings.Categories == nil {
		settings.Categories = defaults.Categories
	}
	if settings.CacheTTL <= 0 {
		settings.CacheTTL = defaults.CacheTTL
	}
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = defaults.DefaultLimit
	}
	if clock == nil {
		clock = SystemClock{}
	}

	limit := rate.Inf
	if settings.RefreshInterval > 0 {
		limit = rate.Every(settings.RefreshInterval)
	}

	s := &SearchIndex{
		store:    store,
		settings: settings,
		clock:    clock,
		// No janitor goroutine: expired entries are dropped on read and by Flush.
		cache:    cache.New(settings.CacheTTL, 0),
		throttle: rate.NewLimiter(limit, 1),
	}

	now := clock.Now()
	s.throttle.AllowN(now, 1)

	snap, err := buildIndex(ctx, store, settings.Collections, settings.Categories, now)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	s.snapshot.Store(snap)

	return s, nil
}

// SetMetrics sets the recorder for queries and rebuilds.
func (s *SearchIndex) SetMetrics(metrics driven.SearchMetrics) {
	s.metrics = metrics
}

// Search returns active records matching query, best first, one per id.
func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = s.settings.DefaultLimit
	}

	snap := s.snapshot.Load()
	key := cacheKey(q, limit)
	if v, ok := s.cache.Get(key); ok {
		entry := v.(cachedResults)
		// Entries ranked from a replaced snapshot are stale even when fresh.
		if entry.snapshot == snap && s.clock.Now().Sub(entry.storedAt) < s.settings.CacheTTL {
			logger.Debug("search %q: cache hit", q)
			s.observeQuery(true, len(entry.results))
			return cloneResults(entry.results), nil
		}
		s.cache.Delete(key)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := rank(snap.records, q, limit)
	logger.Debug("search %q: %d results", q, len(results))

	s.cache.Set(key, cachedResults{results: results, storedAt: s.clock.Now(), snapshot: snap}, cache.DefaultExpiration)
	s.observeQuery(false, len(results))

	return cloneResults(results), nil
}

// Refresh rebuilds the index unless the previous successful build was less
// than RefreshInterval ago. Cached results are cleared either way. A failed
// rebuild keeps the previous index and does not start a new interval.
func (s *SearchIndex) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.cache.Flush()

	now := s.clock.Now()
	r := s.throttle.ReserveN(now, 1)
	if !r.OK() || r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		logger.Debug("refresh throttled")
		s.observeRebuild(driven.RebuildThrottled, now)
		return false, nil
	}

	snap, err := buildIndex(ctx, s.store, s.settings.Collections, s.settings.Categories, now)
	if err != nil {
		r.CancelAt(now)
		s.observeRebuild(driven.RebuildFailed, now)
		return false, fmt.Errorf("rebuild index: %w", err)
	}
	s.snapshot.Store(snap)
	s.observeRebuild(driven.RebuildCompleted, now)

	return true, nil
}

func (s *SearchIndex) observeQuery(cached bool, results int) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(cached, results)
	}
}

func (s *SearchIndex) observeRebuild(outcome driven.RebuildOutcome, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRebuild(outcome, len(s.snapshot.Load().records), s.clock.Now().Sub(started))
	}
}

// Stats summarises the current index.
func (s *SearchIndex) Stats() domain.IndexStats {
	snap := s.snapshot.Load()
	byType := make(map[domain.RecordType]int)
	for i := range snap.records {
		byType[snap.records[i].Type]++
	}
	return domain.IndexStats{
		Records:     len(snap.records),
		ByType:      byType,
		Skipped:     snap.skipped,
		BuiltAt:     snap.builtAt,
		CachedItems: s.cache.ItemCount(),
	}
}

// Records returns the indexed records of one type, or all when typ is empty.
func (s *SearchIndex) Records(typ domain.RecordType) []domain.IndexedRecord {
	snap := s.snapshot.Load()
	out := make([]domain.IndexedRecord, 0, len(snap.records))
	for i := range snap.records {
		if typ == "" || snap.records[i].Type == typ {
			out = append(out, cloneRecord(snap.records[i]))
		}
	}
	return out
}

// RelevanceScore sums the bonuses rec earns for the lowercase query q.
func RelevanceScore(rec domain.IndexedRecord, q string) int {
	score := 0

	id := strings.ToLower(rec.ID)
	switch {
	case id == q:
		score += scoreIDExact
	case strings.Contains(id, q):
		score += scoreIDContains
	}
	if strings.Contains(strings.ToLower(rec.Name), q) {
		score += scoreName
	}
	if strings.Contains(strings.ToLower(rec.Description), q) {
		score += scoreDescription
	}
	if strings.Contains(strings.ToLower(rec.Category), q) {
		score += scoreCategory
	}
	for _, tag := range rec.Tags {
		if strings.Contains(tag, q) {
			score += scoreTag
			break
		}
	}

	return score
}

// rank scores active records, sorts them stably by score, keeps the first
// occurrence of each id and truncates to limit.
func rank(records []domain.IndexedRecord, q string, limit int) []domain.SearchResult {
	var hits []domain.SearchResult
	for i := range records {
		if !records[i].IsActive {
			continue
		}
		if score := RelevanceScore(records[i], q); score > 0 {
			hits = append(hits, domain.SearchResult{Record: records[i], Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	seen := make(map[string]struct{}, len(hits))
	out := make([]domain.SearchResult, 0, min(limit, len(hits)))
	for _, h := range hits {
		if _, dup := seen[h.Record.ID]; dup {
			continue
		}
		seen[h.Record.ID] = struct{}{}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}

	return out
}

func cacheKey(q string, limit int) string {
	return fmt.Sprintf("%d\x00%s", limit, q)
}

// cloneResults copies results deeply enough that callers cannot reach the
// cached entry or the snapshot through them.
func cloneResults(in []domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, len(in))
	for i := range in {
		out[i] = domain.SearchResult{Record: cloneRecord(in[i].Record), Score: in[i].Score}
	}
	return out
}

func cloneRecord(rec domain.IndexedRecord) domain.IndexedRecord {
	rec.Tags = slices.Clone(rec.Tags)
	if rec.ProductCount != nil {
		n := *rec.ProductCount
		rec.ProductCount = &n
	}
	return rec
}
