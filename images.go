package vaultgen

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageProperties are the extracted pixel dimensions of an image.  Both
// fields are zero when the dimensions could not be determined - responsive
// variant generation is then skipped for that asset.
type ImageProperties struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// ExtractImageProperties probes an image file for its pixel dimensions.
// Formats the stdlib cannot decode degrade to unknown dimensions rather
// than failing the build.
func ExtractImageProperties(fullpath string) (*ImageProperties, error) {
	f, err := os.Open(fullpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return &ImageProperties{}, nil
	}
	return &ImageProperties{Width: cfg.Width, Height: cfg.Height}, nil
}

// Resizer generates a resized copy of an image.  Implementations typically
// shell out to an external tool; tests swap in a recording double.
type Resizer interface {
	Resize(srcPath, dstPath string, width int) error
}

// MagickResizer resizes images via the ImageMagick convert command.
type MagickResizer struct {
	// Command overrides the default "convert" binary.
	Command string
}

func (m MagickResizer) Resize(srcPath, dstPath string, width int) error {
	command := m.Command
	if command == "" {
		command = "convert"
	}
	out, err := exec.Command(command, srcPath, "-resize", fmt.Sprintf("%dx", width), dstPath).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %v: %s", command, err, bytes.TrimSpace(out))
	}
	return nil
}

const (
	// Shrink factor between successive variant widths.
	variantRatio = 2.0 / 3.0

	// DefaultVariantFloor ends the cascade once a width would drop to or
	// below it.
	DefaultVariantFloor = 500
)

// VariantURL derives a variant's url by inserting the hex form of its width
// before the file extension: name.ext -> name-<hex(w)>.ext.
func VariantURL(url string, width int) string {
	ext := path.Ext(url)
	return fmt.Sprintf("%s-%x%s", strings.TrimSuffix(url, ext), width, ext)
}

// WriteResponsive emits a cascade of progressively smaller variants of the
// image at srcPath: the full resolution entry first, then repeated 2/3
// shrinks until the width drops to or below floor (<= 0 means
// DefaultVariantFloor).  A variant is only regenerated when its destination
// is older than srcTime; fresh variants are left alone.  Returns a
// srcset-style descriptor ("<url> <width>w", comma separated, descending).
// A resize failure is fatal for the current item - a missing variant would
// produce a broken reference.
func WriteResponsive(dest *DestTree, resizer Resizer, url, srcPath string, srcTime time.Time, srcWidth, floor int) (string, error) {
	if floor <= 0 {
		floor = DefaultVariantFloor
	}
	entries := []string{fmt.Sprintf("%s %dw", url, srcWidth)}
	for fwidth := float64(srcWidth) * variantRatio; fwidth > float64(floor); fwidth *= variantRatio {
		width := int(fwidth)
		vurl := VariantURL(url, width)
		outpath, err := dest.Prepare(vurl)
		if err != nil {
			return "", err
		}
		if dest.Stale(outpath, srcTime) {
			if err := resizer.Resize(srcPath, outpath, width); err != nil {
				return "", fmt.Errorf("resizing %s to %d: %w", srcPath, width, err)
			}
			dest.MarkUpdated()
		}
		entries = append(entries, fmt.Sprintf("%s %dw", vurl, width))
	}
	return strings.Join(entries, ", "), nil
}
