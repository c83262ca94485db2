package vaultgen

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// All paths used as keys (cache entries, relative paths, urls) use "/" as
// the separator regardless of platform.  Native paths are only used at the
// os boundary.

// CanonicalPath converts a native path to the canonical slash-separated form.
func CanonicalPath(path string) string {
	return filepath.ToSlash(path)
}

// NativePath converts a canonical slash-separated path to the platform's native form.
func NativePath(path string) string {
	return filepath.FromSlash(path)
}

// IsLocalURL tells if a reference found inside a note points to a local file
// (as opposed to an external resource, a protocol-relative url, a mail link
// or a fragment).
func IsLocalURL(url string) bool {
	if url == "" {
		return false
	}
	if strings.Contains(url, "://") {
		return false
	}
	if strings.HasPrefix(url, "//") || strings.HasPrefix(url, "#") {
		return false
	}
	if strings.Contains(url, ":") {
		// mailto:, tel: and friends
		return false
	}
	return true
}

// isHidden tells if a directory entry should be skipped entirely while walking.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// WalkFiles does a depth first traversal of root using an explicit stack and
// calls visit with the full path of every non-hidden file found.  Hidden
// entries (files or directories) are skipped and never descended into.  An
// unreadable directory only loses its own subtree - the walk continues with
// whatever else is on the stack.  No ordering is guaranteed across siblings.
func WalkFiles(root string, visit func(fullpath string)) {
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("Skipping unreadable directory: ", "dir", dir, "error", err)
			continue
		}
		for _, entry := range entries {
			if isHidden(entry.Name()) {
				continue
			}
			fullpath := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				stack = append(stack, fullpath)
			} else {
				visit(fullpath)
			}
		}
	}
}

// Fixed width so that string ordering matches time ordering.
const modTimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatModTime renders a timestamp in the fixed-width UTC form used by the
// metadata cache.
func FormatModTime(t time.Time) string {
	return t.UTC().Format(modTimeLayout)
}

// ModTimeOf returns the modification time of a file in cache form.  A file
// that cannot be stat'ed yields the empty sentinel (which compares older
// than any real timestamp) instead of an error.
func ModTimeOf(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return FormatModTime(info.ModTime())
}

// ParseModTime is the inverse of FormatModTime.  Malformed or empty values
// yield the zero time.
func ParseModTime(value string) time.Time {
	t, err := time.Parse(modTimeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
