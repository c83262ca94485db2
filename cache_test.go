package vaultgen

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	items := []*SourceItem{
		{
			RelPath: "notes/a.md",
			ModTime: "2024-05-06T07:08:09.000000000Z",
			Kind:    KindNote,
			Note: &NoteProperties{
				Title:      "A",
				Permalink:  "/a/",
				Date:       "2024-05-06",
				Tags:       []string{"x", "y"},
				LocalLinks: []string{"photo.jpg"},
			},
		},
		{
			RelPath: "photo.jpg",
			ModTime: "2024-05-06T07:08:10.000000000Z",
			Kind:    KindImage,
			Image:   &ImageProperties{Width: 1600, Height: 900},
		},
		{
			RelPath: "misc.bin",
			ModTime: "2024-05-06T07:08:11.000000000Z",
			Kind:    KindOther,
		},
	}
	require.NoError(t, SaveCache(path, items))

	loaded := LoadCache(path)
	require.Len(t, loaded, 3)
	for _, item := range items {
		got := loaded[item.RelPath]
		require.NotNil(t, got, item.RelPath)
		assert.Equal(t, item.ModTime, got.ModTime)
		assert.Equal(t, item.Kind, got.Kind)
		assert.Equal(t, item.Note, got.Note)
		assert.Equal(t, item.Image, got.Image)
		// transient fields are never persisted
		assert.Equal(t, "", got.FullPath)
	}
}

func TestLoadCacheMissingFileIsEmpty(t *testing.T) {
	assert.Empty(t, LoadCache(filepath.Join(t.TempDir(), "nope.json")))
}

func TestLoadCacheGarbledContentIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	assert.Empty(t, LoadCache(path))
}

func TestLoadCacheSchemaMismatchIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	content := fmt.Sprintf(`{"schema": %d, "files": [{"path": "a.md", "mtime": "x"}]}`, CacheSchemaVersion+1)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	assert.Empty(t, LoadCache(path))
}

func TestLoadCacheStructurallyInvalidIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	// valid schema but an entry without a path
	content := fmt.Sprintf(`{"schema": %d, "files": [{"path": "a.md", "mtime": "x"}, {"mtime": "y"}]}`, CacheSchemaVersion)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	assert.Empty(t, LoadCache(path))
}

func TestLoadCacheBadPropertiesIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	content := fmt.Sprintf(`{"schema": %d, "files": [{"path": "a.md", "mtime": "x", "properties": [1,2]}]}`, CacheSchemaVersion)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	assert.Empty(t, LoadCache(path))
}
