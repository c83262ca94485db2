package vaultgen

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"strings"

	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/adrg/frontmatter"
	gut "github.com/panyam/goutils/template"
	gotl "github.com/panyam/templar"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/anchor"
)

// PageView is what a note's page template is rendered against.  The
// converted markdown lands in one of its slots (Body by default, or
// whatever the note's location front matter names).
type PageView struct {
	Site *Site
	Item *SourceItem

	Body  template.HTML
	Aside template.HTML
}

// HtmlRenderer converts a note into its final serialized page: markdown to
// html via goldmark, then wrapped in a templar template when template
// folders are configured.  Without templates the converted markdown is
// emitted as is.
type HtmlRenderer struct {
	Templates  *gotl.TemplateGroup
	LoaderList *gotl.LoaderList

	// Name (and optional /entry suffix) of the template used when a note
	// does not pick one itself.
	DefaultTemplate string

	md goldmark.Markdown
}

// NewHtmlRenderer creates a renderer loading templates from the given folders.
func NewHtmlRenderer(templateFolders ...string) *HtmlRenderer {
	r := &HtmlRenderer{}
	if len(templateFolders) > 0 {
		r.Templates = gotl.NewTemplateGroup()
		r.LoaderList = &gotl.LoaderList{}
		r.LoaderList.DefaultLoader = gotl.NewFileSystemLoader(templateFolders...)
		r.Templates.Loader = r.LoaderList
		r.Templates.AddFuncs(gut.DefaultFuncMap())
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(true),
				),
			),
			&anchor.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)
	return r
}

// Render serializes a note item into w.
func (r *HtmlRenderer) Render(site *Site, item *SourceItem, w io.Writer) error {
	body, err := NoteBody(item.FullPath)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return err
	}

	name, entry := r.templateFor(item)
	if r.Templates == nil || name == "" {
		_, err := w.Write(buf.Bytes())
		return err
	}

	view := &PageView{Site: site, Item: item}
	location := "Body"
	if item.Note != nil && item.Note.Location != "" {
		location = item.Note.Location
	}
	if err := SetNestedProp(view, template.HTML(buf.String()), location); err != nil {
		return fmt.Errorf("placing content at %s: %w", location, err)
	}

	tmpl, err := r.Templates.Loader.Load(name, "")
	if err != nil {
		return err
	}
	if err := r.Templates.RenderHtmlTemplate(w, tmpl[0], entry, view, nil); err != nil {
		log.Println("Error rendering template: ", item.RelPath, name, err)
		return err
	}
	return nil
}

// templateFor picks the template name and entry point for a note - the
// note's own front matter wins over the renderer default.
func (r *HtmlRenderer) templateFor(item *SourceItem) (name string, entry string) {
	picked := r.DefaultTemplate
	if item.Note != nil && item.Note.Template != "" {
		picked = item.Note.Template
	}
	parts := strings.SplitN(picked, "/", 2)
	name = parts[0]
	if len(parts) > 1 {
		entry = parts[1]
	}
	return
}

// NoteBody returns a note's content with any front matter stripped.
func NoteBody(fullpath string) ([]byte, error) {
	f, err := os.Open(fullpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var discard struct{}
	return frontmatter.Parse(f, &discard, noteFormats...)
}
