package vaultgen

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// The kind of a source item.  Classification is a pure function of the
// file's extension - never of its content.
type ItemKind int

const (
	// Anything we do not treat specially - copied to the output as is.
	KindOther ItemKind = iota

	// A markdown note with optional front matter.
	KindNote

	// A raster image eligible for responsive variant generation.
	KindImage
)

func (k ItemKind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindImage:
		return "image"
	}
	return "other"
}

// NoteExt is the extension notes carry on disk.  Get() falls back to it so
// callers can reference notes without their suffix.
const NoteExt = ".md"

// KindOf classifies a path by its extension.
func KindOf(path string) ItemKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case NoteExt:
		return KindNote
	case ".png", ".jpg", ".jpeg", ".gif":
		return KindImage
	}
	return KindOther
}

// All files in a vault are represented by the SourceItem type.  Each item is
// identified by its canonical relative path.  Items are snapshots - a scan
// replaces the whole set rather than mutating survivors in place, and items
// absent from the current scan simply never make it into the new snapshot.
type SourceItem struct {
	// Canonical (slash separated) path relative to the collection root.
	// Uniquely identifies the item.
	RelPath string

	// Full path on disk.  Transient - never persisted in the cache.
	FullPath string

	// Modification time in cache form (see FormatModTime).
	ModTime string

	// Kind derived from the extension.
	Kind ItemKind

	// Exactly one of these is set, matching Kind.  Both nil for KindOther.
	Note  *NoteProperties
	Image *ImageProperties
}

// ModTimeValue returns the item's modification time as a time.Time.
func (it *SourceItem) ModTimeValue() time.Time {
	return ParseModTime(it.ModTime)
}

// ScanStats reports what a scan did.
type ScanStats struct {
	// Files seen in the source tree.
	Total int

	// Files that were new or changed and went through extraction.
	Updated int
}

// Collection scans a root directory and maintains the set of source items
// in it, reconciling against the persisted metadata cache so unchanged
// files skip extraction entirely.
type Collection struct {
	// Root of all source content.
	Root string

	// Where the metadata cache is persisted.
	CachePath string

	// Extractors invoked for changed/new files of each kind.  Defaults to
	// ExtractNoteProperties / ExtractImageProperties when nil.
	NoteExtractor  func(path string) (*NoteProperties, error)
	ImageExtractor func(path string) (*ImageProperties, error)

	items map[string]*SourceItem
}

// Scan walks the collection root, reusing cached properties for files whose
// modification time is unchanged and re-extracting everything else.  After a
// full successful scan the cache is rewritten as the fresh snapshot - items
// deleted from the source tree are thereby evicted.  Extraction failure for
// any single item aborts the scan (and leaves the old cache untouched).
func (c *Collection) Scan() (stats ScanStats, err error) {
	cached := LoadCache(c.CachePath)
	c.items = make(map[string]*SourceItem)

	var scanErr error
	WalkFiles(c.Root, func(fullpath string) {
		if scanErr != nil {
			return
		}
		rel, rerr := filepath.Rel(c.Root, fullpath)
		if rerr != nil {
			slog.Warn("Skipping file outside root: ", "path", fullpath, "error", rerr)
			return
		}
		relpath := CanonicalPath(rel)
		mtime := ModTimeOf(fullpath)
		stats.Total++

		if prev, ok := cached[relpath]; ok && prev.ModTime == mtime {
			// Fast path - reuse the cached snapshot verbatim
			item := *prev
			item.FullPath = fullpath
			c.items[relpath] = &item
			return
		}

		item := &SourceItem{
			RelPath:  relpath,
			FullPath: fullpath,
			ModTime:  mtime,
			Kind:     KindOf(relpath),
		}
		if eerr := c.extract(item); eerr != nil {
			scanErr = fmt.Errorf("extracting %s: %w", relpath, eerr)
			return
		}
		stats.Updated++
		c.items[relpath] = item
	})
	if scanErr != nil {
		return stats, scanErr
	}

	if serr := SaveCache(c.CachePath, c.Items()); serr != nil {
		slog.Warn("Could not save metadata cache: ", "path", c.CachePath, "error", serr)
	}
	return stats, nil
}

func (c *Collection) extract(item *SourceItem) (err error) {
	switch item.Kind {
	case KindNote:
		extractor := c.NoteExtractor
		if extractor == nil {
			extractor = ExtractNoteProperties
		}
		item.Note, err = extractor(item.FullPath)
	case KindImage:
		extractor := c.ImageExtractor
		if extractor == nil {
			extractor = ExtractImageProperties
		}
		item.Image, err = extractor(item.FullPath)
	}
	return
}

// Get looks up an item by its canonical relative path.  A miss retries with
// the note extension appended so notes can be referenced without their
// suffix.  An unknown path returns nil - it is not an error.
func (c *Collection) Get(relpath string) *SourceItem {
	if item, ok := c.items[relpath]; ok {
		return item
	}
	if item, ok := c.items[relpath+NoteExt]; ok {
		return item
	}
	return nil
}

// Items returns the current snapshot sorted by relative path.
func (c *Collection) Items() (out []*SourceItem) {
	for _, item := range c.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return
}
