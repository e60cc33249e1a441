// Package exclude decides whether a path lies under a configured excluded location.
//
// Two kinds of entries are supported:
//
//   - Plain paths ("C:\Windows", "/proc") exclude the path itself and everything below it.
//     Comparison is done on cleaned, case-folded paths and respects path boundaries,
//     so "/data/tmp" does not exclude "/data/tmpfiles".
//   - Glob patterns ("**/node_modules", "*.partial") are matched with doublestar
//     against the full slash-separated path, or against the base name when the
//     pattern has no separator.
//
// The walker consults Excluded before descending into a directory, so an excluded
// subtree is pruned as a whole and never listed.
package exclude

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher holds normalized exclude entries. A nil or empty Matcher excludes nothing.
type Matcher struct {
	prefixes []string // Normalized plain paths
	globs    []string // Case-folded, slash-separated glob patterns
}

// New creates a Matcher from exclude entries. Empty entries are ignored.
func New(excludes []string) *Matcher {
	m := &Matcher{}
	for _, ex := range excludes {
		if strings.TrimSpace(ex) == "" {
			continue
		}
		if isGlob(ex) {
			m.globs = append(m.globs, strings.TrimLeft(strings.ToLower(filepath.ToSlash(ex)), "/"))
			continue
		}
		m.prefixes = append(m.prefixes, normalize(ex))
	}
	return m
}

// Len returns the number of usable entries.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.prefixes) + len(m.globs)
}

// Excluded reports whether path is equal to, or lies below, any exclude entry.
func (m *Matcher) Excluded(path string) bool {
	if m.Len() == 0 {
		return false
	}

	p := normalize(path)
	for _, prefix := range m.prefixes {
		if hasPathPrefix(p, prefix) {
			return true
		}
	}

	if len(m.globs) == 0 {
		return false
	}
	slashed := strings.TrimLeft(filepath.ToSlash(p), "/")
	base := strings.ToLower(filepath.Base(path))
	for _, pattern := range m.globs {
		target := slashed
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if matched, _ := doublestar.Match(pattern, target); matched {
			return true
		}
	}
	return false
}

// Validate checks that all glob entries are well-formed patterns.
func Validate(excludes []string) error {
	for _, ex := range excludes {
		if isGlob(ex) && !doublestar.ValidatePattern(filepath.ToSlash(ex)) {
			return &PatternError{Pattern: ex}
		}
	}
	return nil
}

// PatternError reports a malformed glob exclude.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q", e.Pattern)
}

// normalize cleans the path and folds case.
func normalize(p string) string {
	return strings.ToLower(filepath.Clean(p))
}

// hasPathPrefix reports whether p equals prefix or lies below it.
func hasPathPrefix(p, prefix string) bool {
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	if len(p) == len(prefix) {
		return true
	}
	// Root-like prefixes ("/", "c:\") already end in a separator
	if strings.HasSuffix(prefix, string(filepath.Separator)) {
		return true
	}
	return p[len(prefix)] == filepath.Separator
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
