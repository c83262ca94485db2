package vaultgen

import (
	"encoding/json"
	"log/slog"
	"os"
)

// CacheSchemaVersion tags the persisted metadata cache.  Bump this whenever
// the serialized property shape changes - an old cache is then silently
// discarded instead of being misread.
const CacheSchemaVersion = 1

// DefaultCacheName is where the cache lives under the content root.  The
// leading dot keeps it out of the walker's sight.
const DefaultCacheName = ".vaultgen.cache.json"

type cacheFile struct {
	Schema int              `json:"schema"`
	Files  []cacheFileEntry `json:"files"`
}

type cacheFileEntry struct {
	Path       string          `json:"path"`
	ModTime    string          `json:"mtime"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// LoadCache reads the metadata cache at path.  Any failure - unreadable
// file, malformed json, schema mismatch, structurally invalid entries -
// degrades to an empty cache (forcing full re-extraction) with a warning.
// It never returns an error.
func LoadCache(path string) map[string]*SourceItem {
	out := make(map[string]*SourceItem)
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	var parsed cacheFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		slog.Warn("Discarding unparseable metadata cache: ", "path", path, "error", err)
		return out
	}
	if parsed.Schema != CacheSchemaVersion {
		slog.Warn("Discarding metadata cache with stale schema: ", "path", path, "schema", parsed.Schema)
		return out
	}
	for _, entry := range parsed.Files {
		item, err := entry.toItem()
		if err != nil {
			slog.Warn("Discarding structurally invalid metadata cache: ", "path", path, "error", err)
			return make(map[string]*SourceItem)
		}
		out[item.RelPath] = item
	}
	return out
}

func (e cacheFileEntry) toItem() (*SourceItem, error) {
	if e.Path == "" {
		return nil, errEmptyCachePath
	}
	item := &SourceItem{
		RelPath: e.Path,
		ModTime: e.ModTime,
		Kind:    KindOf(e.Path),
	}
	if len(e.Properties) > 0 {
		switch item.Kind {
		case KindNote:
			item.Note = &NoteProperties{}
			if err := json.Unmarshal(e.Properties, item.Note); err != nil {
				return nil, err
			}
		case KindImage:
			item.Image = &ImageProperties{}
			if err := json.Unmarshal(e.Properties, item.Image); err != nil {
				return nil, err
			}
		}
	}
	return item, nil
}

// SaveCache serializes the given items as the new cache snapshot, tagged
// with the current schema version.  Only persistent fields are written -
// full paths on disk are transient and excluded.
func SaveCache(path string, items []*SourceItem) error {
	out := cacheFile{Schema: CacheSchemaVersion}
	for _, item := range items {
		entry := cacheFileEntry{Path: item.RelPath, ModTime: item.ModTime}
		var props any
		switch {
		case item.Note != nil:
			props = item.Note
		case item.Image != nil:
			props = item.Image
		}
		if props != nil {
			data, err := json.Marshal(props)
			if err != nil {
				return err
			}
			entry.Properties = data
		}
		out.Files = append(out.Files, entry)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
