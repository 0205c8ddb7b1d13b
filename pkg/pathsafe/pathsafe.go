// Package pathsafe joins, checks and sanitizes filesystem paths so that tenant
// data never escapes the configured base directory.
package pathsafe

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	unsafeNameRe = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_.\- ]+`)
	slugRe       = regexp.MustCompile(`[^a-z0-9]+`)
)

// JoinSafely appends segments to base. Each segment has its separators
// normalized and leading separators removed so it cannot reset the path to
// the filesystem root. The filesystem is not consulted.
func JoinSafely(base string, segments ...string) string {
	sep := string(os.PathSeparator)
	path := strings.TrimRight(normalizeSeparators(base), sep)

	for _, segment := range segments {
		segment = normalizeSeparators(strings.TrimSpace(segment))
		segment = strings.TrimLeft(segment, sep)
		path += sep + segment
	}

	return path
}

func normalizeSeparators(p string) string {
	sep := string(os.PathSeparator)
	p = strings.ReplaceAll(p, "/", sep)
	return strings.ReplaceAll(p, `\`, sep)
}

// Canonical resolves path to an absolute, symlink-free form. It fails when
// the path does not exist. Dot-dot elements are resolved after symlinks, the
// way the kernel walks them.
func Canonical(path string) (string, error) {
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		path = wd + string(os.PathSeparator) + path
	}
	return filepath.EvalSymlinks(path)
}

// IsContainedWithin reports whether path resolves to a strict sub-path of
// base. Both sides must exist; anything that cannot be resolved is rejected.
func IsContainedWithin(path, base string) bool {
	resolvedBase, err := Canonical(base)
	if err != nil {
		return false
	}
	resolvedPath, err := Canonical(path)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(resolvedBase, resolvedPath)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && !filepath.IsAbs(rel)
}

// SanitizeFilename replaces every run of characters other than Unicode
// letters and digits, underscore, dot, hyphen and space with an underscore. Names that end up empty, or made
// of dots only, are replaced by a random placeholder.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(unsafeNameRe.ReplaceAllString(name, "_"))
	if strings.Trim(name, ".") == "" {
		return "upload-" + randomHex(8)
	}
	return name
}

// Slugify derives a lowercase, hyphen separated identifier from name.
func Slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "folder-" + randomHex(6)
	}
	return slug
}

// IsSlug reports whether s only consists of lowercase alphanumerics and
// inner single hyphens.
func IsSlug(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") || strings.Contains(s, "--") {
		return false
	}
	return !slugRe.MatchString(strings.ReplaceAll(s, "-", ""))
}

// SplitExt splits a file name into its base and extension (including the dot).
func SplitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

func randomHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
