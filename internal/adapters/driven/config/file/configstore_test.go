package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

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

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[[not toml"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_Load_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[library]
path = "/books"
formats = ["pdf", "epub"]

[search]
max_results = 20
workers = 2

[extract]
timeout = "90s"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/books", store.GetString("library.path"))
	assert.Equal(t, []string{"pdf", "epub"}, store.GetStringSlice("library.formats"))
	assert.Equal(t, 20, store.GetInt("search.max_results"))
	assert.Equal(t, 2, store.GetInt("search.workers"))
	assert.Equal(t, 90*time.Second, store.GetDuration("extract.timeout"))
}

func TestConfigStore_TypedGetters_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("key", 42))

	assert.Empty(t, store.GetString("key"))
	assert.False(t, store.GetBool("key"))
	assert.Nil(t, store.GetStringSlice("key"))
	assert.Equal(t, 42, store.GetInt("key"))
	assert.Zero(t, store.GetInt("missing"))
}

func TestConfigStore_GetDuration(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"duration string", "1m30s", 90 * time.Second},
		{"integer seconds", int64(45), 45 * time.Second},
		{"int seconds", 5, 5 * time.Second},
		{"unparseable", "soon", 0},
		{"wrong type", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.Set("extract.timeout", tt.value))
			assert.Equal(t, tt.want, store.GetDuration("extract.timeout"))
		})
	}

	assert.Zero(t, store.GetDuration("missing"))
}

func TestConfigStore_Persistence_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("search.max_results", 25))
	require.NoError(t, store.Set("library.path", "/srv/books"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[search]")
	assert.Contains(t, string(raw), "[library]")

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 25, reopened.GetInt("search.max_results"))
	assert.Equal(t, "/srv/books", reopened.GetString("library.path"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("search.user", "alice"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Load_MissingFile(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("search.workers", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("search.workers")
		}()
	}
	wg.Wait()
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"search.max_results": 10,
		"search.user":        "u",
		"top":                true,
	})

	search, ok := nested["search"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 10, search["max_results"])
	assert.Equal(t, "u", search["user"])
	assert.Equal(t, true, nested["top"])
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
		"d": "e",
	}, "")

	assert.Equal(t, map[string]any{"a.b.c": 1, "d": "e"}, flat)
}
