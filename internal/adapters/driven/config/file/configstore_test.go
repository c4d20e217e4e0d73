package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("crop.key_prefix", "x:"))

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("upload.base_url", "https://cdn.example.com"))

	val, ok := store.Get("upload.base_url")
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com", val)
	assert.Equal(t, "https://cdn.example.com", store.GetString("upload.base_url"))
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", true))

	assert.Empty(t, store.GetString("k"))
	assert.Zero(t, store.GetInt("k"))
	assert.Zero(t, store.GetFloat("k"))
	assert.Nil(t, store.GetStringSlice("k"))
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("crop.min_scale", 0.2))
	require.NoError(t, store.Set("crop.translate_percent", 50))
	require.NoError(t, store.Set("search.collections", []string{"gang-boyz-products", "gang-boyz-offers"}))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[crop]")
	assert.Contains(t, string(raw), "[search]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, reloaded.GetFloat("crop.min_scale"), 1e-9)
	assert.Equal(t, 50, reloaded.GetInt("crop.translate_percent"))
	assert.InDelta(t, 50.0, reloaded.GetFloat("crop.translate_percent"), 1e-9)
	assert.Equal(t, []string{"gang-boyz-products", "gang-boyz-offers"}, reloaded.GetStringSlice("search.collections"))
	assert.Equal(t, []string{"crop.min_scale", "crop.translate_percent", "search.collections"}, reloaded.Keys())
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[search]
cache_ttl_seconds = 60
categories = ["camisetas=Camisetas", "calcas=Calças"]

[upload]
dir = "/srv/uploads"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 60, store.GetInt("search.cache_ttl_seconds"))
	assert.Equal(t, []string{"camisetas=Camisetas", "calcas=Calças"}, store.GetStringSlice("search.categories"))
	assert.Equal(t, "/srv/uploads", store.GetString("upload.dir"))
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Load())
	assert.Empty(t, store.Keys())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[[[not toml"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("search.default_limit", 10)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("search.default_limit")
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, store.GetInt("search.default_limit"))
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":     1,
		"a.b":   2,
		"c.d.e": "x",
		"c.f":   true,
	})

	assert.Equal(t, 1, nested["a"], "leaf value wins over table")
	c, ok := nested["c"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, c["f"])
	d, ok := c["d"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", d["e"])
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"crop":  map[string]any{"min_scale": 0.1},
		"plain": "v",
	}, "")

	assert.Equal(t, map[string]any{"crop.min_scale": 0.1, "plain": "v"}, flat)
}
