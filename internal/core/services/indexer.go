package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// rawRecord is one decoded collection element.
type rawRecord map[string]any

// str returns the first non-empty string value among keys.
func (r rawRecord) str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// num returns a non-negative number, accepting numeric strings.
func (r rawRecord) num(key string) float64 {
	var f float64
	switch v := r[key].(type) {
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	if f < 0 || !finite(f) {
		return 0
	}
	return f
}

func (r rawRecord) boolean(key string, def bool) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return def
}

// list returns the string elements of an array field, or the field itself
// when it is a single string.
func (r rawRecord) list(key string) []string {
	switch v := r[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

func (r rawRecord) has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// typeRule infers a record type. Rules are evaluated in order and the first
// match wins.
type typeRule struct {
	name  string
	infer func(rawRecord) (domain.RecordType, bool)
}

// idPrefixes map id conventions to types. A prefix only matches when it is
// followed by the end of the id, a digit, '-' or '_'.
var idPrefixes = []struct {
	prefix string
	typ    domain.RecordType
}{
	{"category", domain.RecordCategory},
	{"cat", domain.RecordCategory},
	{"banner", domain.RecordBanner},
	{"ban", domain.RecordBanner},
	{"offer", domain.RecordOffer},
	{"off", domain.RecordOffer},
	{"rec", domain.RecordRecommendation},
	{"prod", domain.RecordProduct},
	{"hot", domain.RecordProduct},
	{"new", domain.RecordProduct},
}

var typeRules = []typeRule{
	{name: "type field", infer: func(r rawRecord) (domain.RecordType, bool) {
		t := domain.RecordType(strings.ToLower(r.str("type")))
		return t, t.IsValid()
	}},
	{name: "id prefix", infer: func(r rawRecord) (domain.RecordType, bool) {
		return typeFromID(r.str("id"))
	}},
	{name: "product fields", infer: func(r rawRecord) (domain.RecordType, bool) {
		return domain.RecordProduct, r.has("categories") || r.has("sizes") || r.has("price")
	}},
	{name: "banner fields", infer: func(r rawRecord) (domain.RecordType, bool) {
		return domain.RecordBanner, r.has("imageUrl") || r.has("title")
	}},
}

// inferType returns the record type and the name of the rule that decided it.
func inferType(r rawRecord) (domain.RecordType, string) {
	for _, rule := range typeRules {
		if t, ok := rule.infer(r); ok {
			return t, rule.name
		}
	}
	return domain.RecordProduct, "default"
}

func typeFromID(id string) (domain.RecordType, bool) {
	id = strings.ToLower(id)
	for _, p := range idPrefixes {
		if !strings.HasPrefix(id, p.prefix) {
			continue
		}
		rest := id[len(p.prefix):]
		if rest == "" || rest[0] == '-' || rest[0] == '_' || (rest[0] >= '0' && rest[0] <= '9') {
			return p.typ, true
		}
	}
	return "", false
}

// buildTags collects the lowercase match terms of a record.
func buildTags(values ...[]string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, group := range values {
		for _, v := range group {
			t := strings.ToLower(strings.TrimSpace(v))
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

// indexEntry pairs a record with the category memberships used for counting.
type indexEntry struct {
	record      domain.IndexedRecord
	memberships []string
}

func normalizeRecord(r rawRecord, collection string) (indexEntry, bool) {
	id := r.str("id")
	if id == "" {
		return indexEntry{}, false
	}
	typ, _ := inferType(r)

	rec := domain.IndexedRecord{
		ID:            id,
		Type:          typ,
		Name:          r.str("name", "title"),
		Description:   r.str("description", "subtitle"),
		Category:      r.str("category"),
		Price:         r.num("price"),
		OriginalPrice: r.num("originalPrice"),
		Image:         r.str("image", "imageUrl"),
		IsActive:      r.boolean("isActive", true),
		Collection:    collection,
	}

	categories := r.list("categories")
	rec.Tags = buildTags(
		[]string{rec.Name, rec.Description, rec.Category, r.str("brand"), id, r.str("color")},
		r.list("sizes"),
		categories,
	)

	memberships := categories
	if rec.Category != "" {
		memberships = append([]string{rec.Category}, categories...)
	}

	return indexEntry{record: rec, memberships: memberships}, true
}

// categoryMatch is how a membership matched a category, in priority order.
type categoryMatch int

const (
	matchNone categoryMatch = iota
	matchExact
	matchSubstring
	matchHyphenated
)

// foldCategory lowercases and strips diacritics so "Calças" matches "calcas".
func foldCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// Chained transformers are stateful, so one is built per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	return s
}

// matchCategory compares one membership against one category name or id:
// exact, then substring containment, then with hyphens read as spaces.
func matchCategory(membership, target string) categoryMatch {
	m := foldCategory(membership)
	t := foldCategory(target)
	if m == "" || t == "" {
		return matchNone
	}
	if m == t {
		return matchExact
	}
	if strings.Contains(m, t) {
		return matchSubstring
	}
	mh := strings.ReplaceAll(m, "-", " ")
	th := strings.ReplaceAll(t, "-", " ")
	if mh == th || strings.Contains(mh, th) {
		return matchHyphenated
	}
	return matchNone
}

func inCategory(memberships []string, seed domain.CategorySeed) bool {
	for _, m := range memberships {
		if matchCategory(m, seed.Name) != matchNone || matchCategory(m, seed.ID) != matchNone {
			return true
		}
	}
	return false
}

func synthesizeCategories(seeds []domain.CategorySeed, entries []indexEntry) []domain.IndexedRecord {
	out := make([]domain.IndexedRecord, 0, len(seeds))
	for _, seed := range seeds {
		count := 0
		for i := range entries {
			e := &entries[i]
			if e.record.Type == domain.RecordProduct && e.record.IsActive && inCategory(e.memberships, seed) {
				count++
			}
		}
		out = append(out, domain.IndexedRecord{
			ID:           seed.ID,
			Type:         domain.RecordCategory,
			Name:         seed.Name,
			IsActive:     true,
			Tags:         buildTags([]string{seed.ID, seed.Name}),
			ProductCount: &count,
		})
	}
	return out
}

// fetchReaders bounds concurrent collection reads.
const fetchReaders = 4

// fetchCollections reads every collection concurrently. The result maps a
// collection's position to its raw value; unreadable collections are
// logged and left out. Only context cancellation is returned.
func fetchCollections(ctx context.Context, store driven.KeyValueStore, collections []string) (map[int]string, error) {
	var mu sync.Mutex
	out := make(map[int]string, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchReaders)
	for i, name := range collections {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := store.Get(gctx, name)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					logger.Debug("collection %s: not present", name)
				} else if ctx.Err() == nil {
					logger.Warn("collection %s: read failed: %v", name, err)
				}
				return nil
			}
			mu.Lock()
			out[i] = raw
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// indexSnapshot is an immutable built index.
type indexSnapshot struct {
	records []domain.IndexedRecord
	skipped int
	builtAt time.Time
}

// buildIndex reads every collection from store and derives a snapshot.
// Missing or malformed collections and elements are skipped. Only context
// cancellation aborts the build.
func buildIndex(
	ctx context.Context,
	store driven.KeyValueStore,
	collections []string,
	seeds []domain.CategorySeed,
	now time.Time,
) (*indexSnapshot, error) {
	logger.Section("Index Build")

	raws, err := fetchCollections(ctx, store, collections)
	if err != nil {
		return nil, err
	}

	var entries []indexEntry
	skipped := 0

	for i, name := range collections {
		raw, ok := raws[i]
		if !ok {
			continue
		}

		var elements []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &elements); err != nil {
			logger.Warn("collection %s: not a JSON array: %v", name, err)
			continue
		}

		kept := 0
		for j, el := range elements {
			var r rawRecord
			dec := json.NewDecoder(bytes.NewReader(el))
			dec.UseNumber()
			if err := dec.Decode(&r); err != nil || r == nil {
				logger.Debug("collection %s[%d]: skipped, not an object", name, j)
				skipped++
				continue
			}
			entry, ok := normalizeRecord(r, name)
			if !ok {
				logger.Debug("collection %s[%d]: skipped, missing id", name, j)
				skipped++
				continue
			}
			entries = append(entries, entry)
			kept++
		}
		logger.Debug("collection %s: %d records", name, kept)
	}

	synthesized := synthesizeCategories(seeds, entries)
	reserved := make(map[string]struct{}, len(synthesized))
	for _, c := range synthesized {
		reserved[strings.ToLower(c.ID)] = struct{}{}
	}

	records := make([]domain.IndexedRecord, 0, len(entries)+len(synthesized))
	for i := range entries {
		rec := entries[i].record
		if rec.Type == domain.RecordCategory {
			if _, clash := reserved[strings.ToLower(rec.ID)]; clash {
				logger.Debug("category %s: replaced by synthesised category", rec.ID)
				continue
			}
		}
		records = append(records, rec)
	}
	records = append(records, synthesized...)

	logger.Info("index built: %d records, %d skipped", len(records), skipped)

	return &indexSnapshot{
		records: records,
		skipped: skipped,
		builtAt: now,
	}, nil
}
