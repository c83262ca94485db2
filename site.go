package vaultgen

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	gut "github.com/panyam/goutils/utils"
)

// The Site object is the central type in vaultgen.  It holds all the
// configuration for a vault (content root, output dir, templates, image
// settings) and drives the incremental build: scan the source tree against
// the metadata cache, regenerate only what changed, then sweep the output
// tree of anything the run did not touch.  It also provides an http.Handler
// for serving the built output.
type Site struct {
	// ContentRoot is the root of all source content (the vault).
	ContentRoot string

	// OutputDir is the final output directory resources are generated into.
	OutputDir string

	// The http path prefix the site is served under, eg
	//		myblog.com			=> PathPrefix = "/"
	//		myblog.com/notes	=> PathPrefix = "/notes"
	PathPrefix string

	// CachePath overrides where the metadata cache lives.  Defaults to
	// DefaultCacheName under the content root.
	CachePath string

	// Folders templar page templates are loaded from.
	TemplateFolders []string

	// Template (and optional /entry) used for notes that do not pick one.
	DefaultTemplate string

	// Extra functions made available to page templates.
	CommonFuncMap map[string]any

	// Resizer generates image variants.  Defaults to ImageMagick convert.
	Resizer Resizer

	// MinVariantWidth is the floor of the responsive cascade.  Zero means
	// DefaultVariantFloor.
	MinVariantWidth int

	Collection *Collection
	Renderer   *HtmlRenderer

	filesRouter *mux.Router
	srcsets     map[string]string
	initialized bool
}

// BuildStats aggregates the per stage counters of one build run.
type BuildStats struct {
	Scan ScanStats
	Dest DestStats
}

func (b BuildStats) String() string {
	return fmt.Sprintf("scanned %d (%d updated), wrote %d (%d updated, %d deleted)",
		b.Scan.Total, b.Scan.Updated, b.Dest.Total, b.Dest.Updated, b.Dest.Deleted)
}

// Initializes the Site, filling defaults for anything not configured.
func (s *Site) Init() *Site {
	s.ContentRoot = gut.ExpandUserPath(s.ContentRoot)
	s.OutputDir = gut.ExpandUserPath(s.OutputDir)
	if s.CachePath == "" {
		s.CachePath = filepath.Join(s.ContentRoot, DefaultCacheName)
	}
	if s.Resizer == nil {
		s.Resizer = MagickResizer{}
	}
	if s.Collection == nil {
		s.Collection = &Collection{Root: s.ContentRoot, CachePath: s.CachePath}
	}
	if s.Renderer == nil {
		s.Renderer = NewHtmlRenderer(s.TemplateFolders...)
		s.Renderer.DefaultTemplate = s.DefaultTemplate
	}
	if s.Renderer.Templates != nil {
		s.Renderer.Templates.AddFuncs(map[string]any{
			"Srcset": s.Srcset,
			"Json":   s.Json,
		})
		s.Renderer.Templates.AddFuncs(s.CommonFuncMap)
	}
	s.initialized = true
	return s
}

// Build runs one full incremental build: scan, generate, cleanup.  Images
// and plain files go first (collecting srcset descriptors for the note
// pass), then notes are rendered, then everything the run did not register
// is swept from the output tree.  The metadata cache is persisted by the
// scan.  Fatal errors (extraction, rendering, resizing) abort the run.
func (s *Site) Build() (stats BuildStats, err error) {
	if !s.initialized {
		s.Init()
	}
	stats.Scan, err = s.Collection.Scan()
	if err != nil {
		return
	}

	dest := NewDestTree(s.OutputDir)
	s.srcsets = make(map[string]string)

	items := s.Collection.Items()
	for _, item := range items {
		switch item.Kind {
		case KindImage:
			url := "/" + item.RelPath
			if err = dest.WriteFile(url, item.FullPath, time.Time{}); err != nil {
				return stats, fmt.Errorf("copying %s: %w", item.RelPath, err)
			}
			if item.Image != nil && item.Image.Width > 0 {
				var descriptor string
				descriptor, err = WriteResponsive(dest, s.Resizer, url, item.FullPath,
					item.ModTimeValue(), item.Image.Width, s.MinVariantWidth)
				if err != nil {
					return stats, err
				}
				s.srcsets[url] = descriptor
			}
		case KindOther:
			if err = dest.WriteFile("/"+item.RelPath, item.FullPath, time.Time{}); err != nil {
				return stats, fmt.Errorf("copying %s: %w", item.RelPath, err)
			}
		}
	}

	for _, item := range items {
		if item.Kind != KindNote {
			continue
		}
		if item.Note != nil && item.Note.Hide {
			continue
		}
		output := bytes.NewBuffer(nil)
		if err = s.Renderer.Render(s, item, output); err != nil {
			return stats, fmt.Errorf("rendering %s: %w", item.RelPath, err)
		}
		if err = dest.WriteData(s.NoteURL(item), output.Bytes()); err != nil {
			return stats, fmt.Errorf("writing %s: %w", item.RelPath, err)
		}
	}

	stats.Dest = dest.Cleanup()
	return stats, nil
}

// NoteURL returns the url a note is published under: its permalink front
// matter when set, otherwise derived from its relative path.  Note urls
// always end in a separator so they map to an index file.
func (s *Site) NoteURL(item *SourceItem) string {
	if item.Note != nil && item.Note.Permalink != "" {
		url := item.Note.Permalink
		if !strings.HasPrefix(url, "/") {
			url = "/" + url
		}
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		return url
	}
	rel := strings.TrimSuffix(item.RelPath, path.Ext(item.RelPath))
	if path.Base(rel) == "index" {
		rel = path.Dir(rel)
		if rel == "." {
			return "/"
		}
	}
	return "/" + rel + "/"
}

// Srcset returns the responsive variant descriptor generated for an image
// url this run, or the empty string when the image has none.
func (s *Site) Srcset(url string) string {
	return s.srcsets[url]
}

// Returns the full url for a path relative to the site's prefix path.
// If the Site's prefix path is /a/b/c, then PathRelUrl("d") would return /a/b/c/d
func (s *Site) PathRelUrl(path string) string {
	if s.PathPrefix == "" || s.PathPrefix == "/" {
		return path
	}
	return s.PathPrefix + path
}

// Returns a Router instance that serves the built output tree, usable under
// a larger prefix.
func (s *Site) GetRouter() *mux.Router {
	if !s.initialized {
		s.Init()
	}
	if s.filesRouter == nil {
		s.filesRouter = mux.NewRouter()
		fileServer := http.FileServer(http.Dir(s.OutputDir))
		s.filesRouter.PathPrefix("/").Handler(http.StripPrefix("/", fileServer))
	}
	return s.filesRouter
}

// The base entry point for serving a built site - also implementing the
// http.Handler interface
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.GetRouter().ServeHTTP(w, r)
}

// Json loads a json file under the content root - handy inside templates.
func (s *Site) Json(relpath string) (any, error) {
	if strings.HasPrefix(relpath, "/") {
		return nil, fmt.Errorf("invalid json file: %s, cannot start with a /", relpath)
	}
	fullpath := filepath.Join(s.ContentRoot, NativePath(relpath))
	if filepath.Ext(fullpath) != ".json" {
		return nil, fmt.Errorf("invalid json file: %s", fullpath)
	}
	data, err := os.ReadFile(fullpath)
	if err != nil {
		log.Println("Could not read json file: ", fullpath, err)
		return nil, err
	}
	return gut.JsonDecodeBytes(data)
}
