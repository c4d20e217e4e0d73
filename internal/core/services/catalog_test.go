package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/storage/memory"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

const catalogYAML = `
gang-boyz-products:
  - id: prod-1
    name: Moletom Gang
    price: 199.9
gang-boyz-banners:
  - id: banner-1
    title: Drop de Inverno
`

func TestCatalogService_ImportYAML(t *testing.T) {
	store := memory.NewKeyValueStore()
	notifier := &recordingNotifier{}
	svc := NewCatalogService(store, domain.DefaultCollections())
	svc.SetNotifier(notifier)

	n, err := svc.Import(context.Background(), strings.NewReader(catalogYAML), driving.CatalogYAML)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{domain.CollectionBanners, domain.CollectionProducts}, notifier.Keys())

	raw, err := store.Get(context.Background(), domain.CollectionProducts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "prod-1", "name": "Moletom Gang", "price": 199.9}]`, raw)
}

func TestCatalogService_ImportFeedsTheIndex(t *testing.T) {
	store := memory.NewKeyValueStore()
	svc := NewCatalogService(store, domain.DefaultCollections())
	_, err := svc.Import(context.Background(), strings.NewReader(catalogYAML), driving.CatalogYAML)
	require.NoError(t, err)

	idx := newIndex(t, store, noCategories(), nil)

	results, err := idx.Search(context.Background(), "inverno", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.RecordBanner, results[0].Record.Type)
	assert.Equal(t, "Drop de Inverno", results[0].Record.Name)
}

func TestCatalogService_ImportRejectsNonLists(t *testing.T) {
	store := memory.NewKeyValueStore()
	svc := NewCatalogService(store, domain.DefaultCollections())

	_, err := svc.Import(context.Background(),
		strings.NewReader(`{"gang-boyz-products": [], "gang-boyz-banners": {"id": "x"}}`), driving.CatalogJSON)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	keys, err := store.Keys(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys, "nothing is written when validation fails")
}

func TestCatalogService_ImportErrors(t *testing.T) {
	svc := NewCatalogService(memory.NewKeyValueStore(), nil)
	ctx := context.Background()

	_, err := svc.Import(ctx, strings.NewReader("{"), driving.CatalogJSON)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Import(ctx, strings.NewReader("a: [\n"), driving.CatalogYAML)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Import(ctx, strings.NewReader("{}"), driving.CatalogFormat("xml"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	n, err := svc.Import(ctx, strings.NewReader(""), driving.CatalogJSON)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCatalogService_ImportStoreFailure(t *testing.T) {
	store := newFlakyStore()
	store.setErr = errStoreDown
	svc := NewCatalogService(store, nil)

	n, err := svc.Import(context.Background(), strings.NewReader(catalogYAML), driving.CatalogYAML)

	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, n)
}

func TestCatalogService_ExportRoundTrip(t *testing.T) {
	store := memory.NewKeyValueStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.CollectionProducts, `[{"id": "prod-1"}]`))
	require.NoError(t, store.Set(ctx, domain.CollectionOffers, `not json`))
	require.NoError(t, store.Set(ctx, "unrelated", `[{"id": "x"}]`))
	svc := NewCatalogService(store, domain.DefaultCollections())

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf, driving.CatalogJSON))

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, map[string][]map[string]any{
		domain.CollectionProducts: {{"id": "prod-1"}},
	}, doc)

	buf.Reset()
	require.NoError(t, svc.Export(ctx, &buf, driving.CatalogYAML))
	var fromYAML map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, doc, fromYAML)

	assert.ErrorIs(t, svc.Export(ctx, &buf, driving.CatalogFormat("xml")), domain.ErrUnsupportedType)
}

func TestCatalogService_Collections(t *testing.T) {
	store := memory.NewKeyValueStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", `[1, 2, 3]`))
	require.NoError(t, store.Set(ctx, "b", `{}`))
	svc := NewCatalogService(store, []string{"a", "b", "c"})

	got, err := svc.Collections(ctx)

	require.NoError(t, err)
	assert.Equal(t, []driving.CollectionInfo{
		{Key: "a", Elements: 3, Present: true, Valid: true},
		{Key: "b", Present: true},
		{Key: "c"},
	}, got)
}

func TestCatalogService_CollectionsStoreFailure(t *testing.T) {
	store := newFlakyStore()
	store.getErr = errStoreDown
	svc := NewCatalogService(store, []string{"a"})

	_, err := svc.Collections(context.Background())

	assert.ErrorIs(t, err, errStoreDown)
}
