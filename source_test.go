package vaultgen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNote, KindOf("notes/a.md"))
	assert.Equal(t, KindImage, KindOf("photo.jpg"))
	assert.Equal(t, KindImage, KindOf("PHOTO.JPG"))
	assert.Equal(t, KindImage, KindOf("a/b.png"))
	assert.Equal(t, KindImage, KindOf("a/b.gif"))
	assert.Equal(t, KindOther, KindOf("style.css"))
	assert.Equal(t, KindOther, KindOf("noext"))
}

// countingCollection builds a Collection whose extractors record how often
// they run.
func countingCollection(root, cachePath string) (*Collection, *int) {
	calls := 0
	return &Collection{
		Root:      root,
		CachePath: cachePath,
		NoteExtractor: func(path string) (*NoteProperties, error) {
			calls++
			return ExtractNoteProperties(path)
		},
		ImageExtractor: func(path string) (*ImageProperties, error) {
			calls++
			return ExtractImageProperties(path)
		},
	}, &calls
}

func TestScanExtractsOnlyChangedFiles(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeTestFile(t, filepath.Join(root, "a.md"), "---\ntitle: A\n---\nhello")
	writeTestFile(t, filepath.Join(root, "b.md"), "plain body")

	coll, calls := countingCollection(root, cachePath)
	stats, err := coll.Scan()
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Total: 2, Updated: 2}, stats)
	assert.Equal(t, 2, *calls)
	propsBefore := *coll.Get("a.md").Note

	// Unchanged rescan hits the cache for everything
	coll2, calls2 := countingCollection(root, cachePath)
	stats, err = coll2.Scan()
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Total: 2, Updated: 0}, stats)
	assert.Zero(t, *calls2)
	assert.Equal(t, propsBefore, *coll2.Get("a.md").Note)

	// Touching one file re-extracts exactly that file
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.md"), future, future))
	coll3, calls3 := countingCollection(root, cachePath)
	stats, err = coll3.Scan()
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Total: 2, Updated: 1}, stats)
	assert.Equal(t, 1, *calls3)
}

func TestScanEvictsDeletedFiles(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeTestFile(t, filepath.Join(root, "a.md"), "a")
	writeTestFile(t, filepath.Join(root, "b.md"), "b")

	coll := &Collection{Root: root, CachePath: cachePath}
	_, err := coll.Scan()
	require.NoError(t, err)
	require.Len(t, LoadCache(cachePath), 2)

	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))
	coll2 := &Collection{Root: root, CachePath: cachePath}
	stats, err := coll2.Scan()
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Total: 1, Updated: 0}, stats)
	assert.Nil(t, coll2.Get("b.md"))

	cached := LoadCache(cachePath)
	assert.Len(t, cached, 1)
	assert.Nil(t, cached["b.md"])
}

func TestScanExtractionFailureIsFatal(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "bad.md"), "---\n: : :\n---\n")

	coll := &Collection{Root: root, CachePath: filepath.Join(t.TempDir(), "cache.json")}
	_, err := coll.Scan()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "bad.md")
}

func TestGetFallsBackToNoteExtension(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "notes", "today.md"), "body")
	writeTestFile(t, filepath.Join(root, "style.css"), "body {}")

	coll := &Collection{Root: root, CachePath: filepath.Join(t.TempDir(), "cache.json")}
	_, err := coll.Scan()
	require.NoError(t, err)

	assert.NotNil(t, coll.Get("notes/today.md"))
	assert.NotNil(t, coll.Get("notes/today"))
	assert.NotNil(t, coll.Get("style.css"))
	// the fallback only adds the note extension
	assert.Nil(t, coll.Get("style"))
	assert.Nil(t, coll.Get("missing"))
}

func TestScanDoesNotSeeTheCacheFile(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.md"), "a")

	// cache kept inside the content root, as the Site defaults do
	coll := &Collection{Root: root, CachePath: filepath.Join(root, DefaultCacheName)}
	_, err := coll.Scan()
	require.NoError(t, err)

	stats, err := (&Collection{Root: root, CachePath: filepath.Join(root, DefaultCacheName)}).Scan()
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Total: 1, Updated: 0}, stats)
}

func TestItemsAreSorted(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"z.md", "a.md", "m/x.md"} {
		writeTestFile(t, filepath.Join(root, name), name)
	}
	coll := &Collection{Root: root, CachePath: filepath.Join(t.TempDir(), "cache.json")}
	_, err := coll.Scan()
	require.NoError(t, err)

	var rels []string
	for _, item := range coll.Items() {
		rels = append(rels, item.RelPath)
	}
	assert.Equal(t, []string{"a.md", "m/x.md", "z.md"}, rels)
}
