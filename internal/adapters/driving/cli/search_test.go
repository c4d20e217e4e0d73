package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search the catalogue", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_NoService(t *testing.T) {
	SetServices(nil)

	_, err := execute(t, "search", "moletom")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_PrintsRankedResults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "moleton")

	require.NoError(t, err)
	// The synthesised category matches on its id and outranks the product,
	// which only matches through its "moletons" tag.
	assert.Contains(t, out, "[1] Moletons [category]")
	assert.Contains(t, out, "[2] Moletom Gang [product]")
	assert.Contains(t, out, "R$ 199,90 (de R$ 249,90)")
	assert.Contains(t, out, "prod-1 in gang-boyz-products")
	// Inactive records are never returned.
	assert.NotContains(t, out, "Moletom Antigo")
}

func TestSearchCmd_NoResults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "zzz-nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "HOT-1", "--json")
	require.NoError(t, err)

	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "hot-1", results[0].Record.ID)
	assert.Equal(t, domain.RecordProduct, results[0].Record.Type)
}

func TestSearchCmd_TypeFilter(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "moletons", "--type", "category", "--json")
	require.NoError(t, err)

	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "moletons", results[0].Record.ID)
	require.NotNil(t, results[0].Record.ProductCount)
	assert.Equal(t, 1, *results[0].Record.ProductCount)
}

func TestSearchCmd_UnknownType(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "moletom", "--type", "shoe")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_Limit(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "a", "-n", "2", "--json")
	require.NoError(t, err)

	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 2)
}

func TestSearchCmd_RefreshPicksUpNewRecords(t *testing.T) {
	ts := setupTestServices(t)

	_, err := ts.catalog.Import(t.Context(), strings.NewReader(`{"gang-boyz-offers": [{"id": "offer-1", "name": "Combo Inverno"}]}`), "json")
	require.NoError(t, err)

	out, err := execute(t, "search", "combo")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")

	out, err = execute(t, "search", "combo", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Combo Inverno [offer]")
}

func TestIndexCmd_Stats(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "index")

	require.NoError(t, err)
	assert.Contains(t, out, "Search Index")
	// 5 stored records plus 6 synthesised categories.
	assert.Contains(t, out, "Records:  11")
	assert.Contains(t, out, "category")
}

func TestIndexCmd_JSON(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "index", "--json")
	require.NoError(t, err)

	var stats domain.IndexStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 11, stats.Records)
	assert.Equal(t, 4, stats.ByType[domain.RecordProduct])
	assert.Equal(t, 1, stats.ByType[domain.RecordBanner])
	assert.Equal(t, 6, stats.ByType[domain.RecordCategory])
}
