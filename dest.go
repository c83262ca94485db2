package vaultgen

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DestStats reports what happened to the output tree during a run.
type DestStats struct {
	// Output paths registered this run (via Prepare).
	Total int

	// Files actually (re)written.
	Updated int

	// Stale files removed by Cleanup.
	Deleted int
}

// DestTree manages the generated output tree for a single build run.  Every
// path that should survive the run must be registered through Prepare; the
// final Cleanup pass deletes everything else under the root.
type DestTree struct {
	// Root of the output tree.
	Root string

	// IndexFile is what a url ending in a separator maps to.
	IndexFile string

	written map[string]bool
	stats   DestStats
}

// NewDestTree creates a DestTree rooted at root.
func NewDestTree(root string) *DestTree {
	return &DestTree{
		Root:      root,
		IndexFile: "index.html",
		written:   make(map[string]bool),
	}
}

// Prepare maps an absolute url to its location under the output root,
// ensures the parent directory exists and registers the path as written.
// Registration happens regardless of whether content is actually written
// later - Prepare marks intent, which is what keeps Cleanup correct even
// for paths only touched by side effecting generators.
func (d *DestTree) Prepare(url string) (string, error) {
	upath := strings.TrimPrefix(url, "/")
	if upath == "" || strings.HasSuffix(url, "/") {
		upath += d.IndexFile
	}
	outpath := filepath.Join(d.Root, NativePath(upath))
	if err := os.MkdirAll(filepath.Dir(outpath), 0755); err != nil {
		return "", err
	}
	if !d.written[outpath] {
		d.written[outpath] = true
		d.stats.Total++
	}
	return outpath, nil
}

// WriteData writes content at the location url maps to.  If the destination
// already holds byte-identical content nothing is written and the updated
// counter stays put - repeated builds with unchanged output do zero writes.
func (d *DestTree) WriteData(url string, content []byte) error {
	outpath, err := d.Prepare(url)
	if err != nil {
		return err
	}
	if existing, err := os.ReadFile(outpath); err == nil && bytes.Equal(existing, content) {
		return nil
	}
	if err := os.WriteFile(outpath, content, 0644); err != nil {
		return panicOrError(err)
	}
	d.stats.Updated++
	return nil
}

// WriteFile copies the file at srcPath to the location url maps to, unless
// the destination is already at least as new as max(srcTime, the source
// file's own modification time).  A newer destination is kept - only a
// stale or missing one is overwritten.  Pass the zero time to compare
// against the source file's modification time alone.
func (d *DestTree) WriteFile(url string, srcPath string, srcTime time.Time) error {
	outpath, err := d.Prepare(url)
	if err != nil {
		return err
	}
	newest := srcTime
	if info, err := os.Stat(srcPath); err == nil && info.ModTime().After(newest) {
		newest = info.ModTime()
	}
	if !d.Stale(outpath, newest) {
		return nil
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outpath, data, 0644); err != nil {
		return panicOrError(err)
	}
	d.stats.Updated++
	return nil
}

// WriteDir copies every non-hidden file under root to the corresponding
// path under url, preserving relative structure.
func (d *DestTree) WriteDir(url string, root string) error {
	var firstErr error
	WalkFiles(root, func(fullpath string) {
		rel, err := filepath.Rel(root, fullpath)
		if err != nil {
			slog.Warn("Skipping file outside dir: ", "path", fullpath, "error", err)
			return
		}
		suburl := strings.TrimSuffix(url, "/") + "/" + CanonicalPath(rel)
		if err := d.WriteFile(suburl, fullpath, time.Time{}); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

// Stale tells whether the file at outpath needs regenerating relative to
// the given source time.  A missing destination is always stale.
func (d *DestTree) Stale(outpath string, since time.Time) bool {
	info, err := os.Stat(outpath)
	if err != nil {
		return true
	}
	return info.ModTime().Before(since)
}

// MarkUpdated bumps the updated counter for a destination regenerated
// outside WriteData/WriteFile (eg by an external resize tool).
func (d *DestTree) MarkUpdated() {
	d.stats.Updated++
}

// Cleanup walks the output root and deletes every file that was not
// registered via Prepare during this run.  This is what removes artifacts
// for source content that was renamed or deleted.
func (d *DestTree) Cleanup() DestStats {
	var doomed []string
	WalkFiles(d.Root, func(fullpath string) {
		if !d.written[fullpath] {
			doomed = append(doomed, fullpath)
		}
	})
	for _, path := range doomed {
		if err := os.Remove(path); err != nil {
			slog.Warn("Could not remove stale output: ", "path", path, "error", err)
			continue
		}
		d.stats.Deleted++
	}
	return d.stats
}

// Stats returns the counters accumulated so far.
func (d *DestTree) Stats() DestStats {
	return d.stats
}
