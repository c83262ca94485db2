package vaultgen

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v2"
)

// NoteProperties are the extracted metadata of a markdown note: its front
// matter keys plus the local references found in its body.  Unknown front
// matter keys are ignored.
type NoteProperties struct {
	Title     string   `json:"title,omitempty" yaml:"title" toml:"title"`
	Permalink string   `json:"permalink,omitempty" yaml:"permalink" toml:"permalink"`
	Date      string   `json:"date,omitempty" yaml:"date" toml:"date"`
	Hide      bool     `json:"hide,omitempty" yaml:"hide" toml:"hide"`
	Tags      []string `json:"tags,omitempty" yaml:"tags" toml:"tags"`

	// Template optionally names the page template (and entry within it,
	// separated by a /) the note renders into.
	Template string `json:"template,omitempty" yaml:"template" toml:"template"`

	// Location names the page view slot the rendered body lands in.
	Location string `json:"location,omitempty" yaml:"location" toml:"location"`

	// Local files referenced from the note body.  Derived, not authored.
	LocalLinks []string `json:"localLinks,omitempty" yaml:"-" toml:"-"`
}

// Front matter can be yaml (--- fences) or toml (+++ fences).
var noteFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// linkScanner only needs the parser side of goldmark.
var linkScanner = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ExtractNoteProperties reads a note's front matter and scans its body for
// references to local files.  An unreadable or unparseable note is an error
// - note extraction has no partial success mode.
func ExtractNoteProperties(fullpath string) (*NoteProperties, error) {
	f, err := os.Open(fullpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	props := &NoteProperties{}
	body, err := frontmatter.Parse(f, props, noteFormats...)
	if err != nil {
		return nil, err
	}
	props.LocalLinks = localLinksIn(body)
	return props, nil
}

// localLinksIn walks the markdown AST and collects the destinations of all
// links and images that point at local files.
func localLinksIn(body []byte) (links []string) {
	doc := linkScanner.Parser().Parse(text.NewReader(body))
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dst string
		switch node := n.(type) {
		case *ast.Link:
			dst = string(node.Destination)
		case *ast.Image:
			dst = string(node.Destination)
		}
		if dst != "" && IsLocalURL(dst) {
			links = append(links, dst)
		}
		return ast.WalkContinue, nil
	})
	return
}
