// Package namer groups files by a normalized form of their base name.
//
// Normalization strips a leading date stamp (YYYYMMDD, optionally followed by a
// separator and HHMM), turns runs of "_", "-" and "." into spaces, collapses
// whitespace and case-folds the result:
//
//	20230415-1230_Vacation Photo.jpg  →  "vacation photo"   (extension ignored)
//	20230415_Vacation_Photo.JPG       →  "vacation photo"
package namer

import (
	"iter"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ivoronin/dupehound/internal/types"
	"golang.org/x/text/cases"
)

var (
	// timestamp matches YYYYMMDD, an optional [-_ ]HHMM and any trailing separators.
	// Digits are any Unicode decimal digits.
	timestamp  = regexp.MustCompile(`^\p{Nd}{8}(?:[-_ ]?\p{Nd}{4})?[-_ .]*`)
	separators = regexp.MustCompile(`[_\-.]+`)
)

// Normalize maps path to a case-insensitive grouping key. It never fails;
// the key may be empty when nothing remains after stripping.
func Normalize(path string, ignoreExt bool) string {
	candidate := filepath.Base(path)
	if ignoreExt {
		candidate = stripExt(candidate)
	}

	if loc := timestamp.FindStringIndex(candidate); loc != nil {
		candidate = candidate[loc[1]:]
	}

	candidate = separators.ReplaceAllString(candidate, " ")
	// Fields splits on Unicode whitespace; RE2's \s is ASCII-only
	candidate = strings.Join(strings.Fields(candidate), " ")
	return cases.Fold().String(candidate)
}

// stripExt removes the last extension. Leading dots do not start an
// extension, so ".bashrc" and "..hidden" are kept whole.
func stripExt(base string) string {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || strings.TrimLeft(base[:i], ".") == "" {
		return base
	}
	return base[:i]
}

// Grouper groups files by normalized name.
type Grouper struct {
	ignoreExt bool
}

// NewGrouper creates a Grouper.
func NewGrouper(ignoreExt bool) *Grouper {
	return &Grouper{ignoreExt: ignoreExt}
}

// Group consumes files and returns one group per key, in first-seen key order.
// Members keep walk order. No filtering is applied; see ranker.RankNames.
func (g *Grouper) Group(files iter.Seq[types.CandidateFile]) []types.NameGroup {
	index := make(map[string]int)
	var groups []types.NameGroup
	for f := range files {
		key := Normalize(f.Path, g.ignoreExt)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, types.NameGroup{Key: key})
		}
		groups[i].Files = append(groups[i].Files, f)
	}
	return groups
}
