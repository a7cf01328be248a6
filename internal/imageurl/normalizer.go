package imageurl

import (
	"regexp"
	"strings"
)

// Normalizer rewrites stored image references into one canonical absolute URL
// under the current asset base. Stored rows accumulated several historical
// shapes over prior deployments: bare filenames, absolute URLs pointing at
// retired hosts, and relative paths that still carry the old web root.
// Normalize is pure, never fails, and is idempotent: feeding it an already
// canonical URL returns the same string.
type Normalizer struct {
	base           string
	legacyPrefixes []string
	legacyRoot     string
}

// doubleSlash matches repeated path separators that are not part of a scheme's "://".
var doubleSlash = regexp.MustCompile(`([^:]/)/+`)

// New builds a Normalizer rooted at base (e.g. "https://shop.example.com/api").
// legacyPrefixes are absolute URL prefixes of prior deployments whose
// references may still live in the database.
func New(base string, legacyPrefixes ...string) *Normalizer {
	return &Normalizer{
		base:           strings.TrimRight(base, "/"),
		legacyPrefixes: legacyPrefixes,
		legacyRoot:     "/jewels/",
	}
}

// WithLegacyRoot overrides the relative web root of prior deployments
// (default "/jewels/").
func (n *Normalizer) WithLegacyRoot(root string) *Normalizer {
	n.legacyRoot = root
	return n
}

// Normalize maps a stored image reference to its canonical absolute URL.
// The rules apply in order, first match wins.
func (n *Normalizer) Normalize(ref string) string {
	s := strings.TrimSpace(ref)
	if s == "" {
		return ""
	}

	// Bare filename: no scheme, no leading separator.
	if !hasScheme(s) && !strings.HasPrefix(s, "/") {
		return n.base + "/uploads/" + s
	}

	// Strip known legacy host prefixes, keeping either the trailing filename
	// (when the legacy uploads path matched) or a root-relative path.
	for _, prefix := range n.legacyPrefixes {
		uploadsPrefix := prefix + "api/uploads/"
		if strings.HasPrefix(s, uploadsPrefix) {
			s = strings.TrimPrefix(s, uploadsPrefix)
			break
		}
		if strings.HasPrefix(s, prefix) {
			s = n.legacyRoot + strings.TrimPrefix(s, prefix)
			break
		}
	}

	// Anything that still contains an /uploads/ segment is an upload; rebuild
	// from the filename after it.
	if _, tail, ok := strings.Cut(s, "/uploads/"); ok {
		return n.base + "/uploads/" + tail
	}

	// The legacy strip above may have reduced the reference to a bare filename.
	if !hasScheme(s) && !strings.HasPrefix(s, "/") {
		return n.base + "/uploads/" + s
	}

	s = strings.ReplaceAll(s, n.legacyRoot+"api/", "/")
	s = doubleSlash.ReplaceAllString(s, "$1")

	if strings.HasPrefix(s, n.legacyRoot) {
		return n.base + "/" + strings.TrimPrefix(s, n.legacyRoot)
	}

	// Already a fully qualified URL.
	if hasScheme(s) {
		return s
	}

	// Best effort: treat the remainder as a path relative to the base.
	if strings.HasPrefix(s, "/") {
		return n.base + s
	}
	return n.base + "/" + s
}

// Filename extracts the bare filename token from any reference shape. Used at
// write boundaries so only canonical tokens are persisted, and by delete
// cleanup to locate files on disk.
func Filename(ref string) string {
	s := strings.TrimSpace(ref)
	if s == "" {
		return ""
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func hasScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
