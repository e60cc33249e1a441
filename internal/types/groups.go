package types

import "cmp"

// Group is a ranked result exposed to presentation layers.
type Group interface {
	// Label is the normalized name (name mode) or hex digest (content mode).
	Label() string
	// Members returns the files of the group in presentation order.
	Members() []CandidateFile
	// ReclaimBytes estimates bytes recovered by keeping a single member.
	ReclaimBytes() int64
}

// NameGroup contains files whose base names normalize to the same key.
type NameGroup struct {
	Key   string
	Files []CandidateFile
}

func (g NameGroup) Label() string            { return g.Key }
func (g NameGroup) Members() []CandidateFile { return g.Files }
func (g NameGroup) Len() int                 { return len(g.Files) }

// TotalSize returns the combined size of all members.
func (g NameGroup) TotalSize() int64 {
	var total int64
	for _, f := range g.Files {
		total += f.Size
	}
	return total
}

// ReclaimBytes assumes the largest member is the one kept.
func (g NameGroup) ReclaimBytes() int64 {
	var largest int64
	for _, f := range g.Files {
		largest = max(largest, f.Size)
	}
	return g.TotalSize() - largest
}

// SizeBucket holds files sharing an exact size. Transient: exists only while hashing.
type SizeBucket struct {
	Size  int64
	Files []CandidateFile
}

// ContentGroup contains files with identical size and digest.
// Files are sorted by path.
type ContentGroup struct {
	Size   int64
	Digest string
	Files  []CandidateFile
}

func (g ContentGroup) Label() string            { return g.Digest }
func (g ContentGroup) Members() []CandidateFile { return g.Files }
func (g ContentGroup) Len() int                 { return len(g.Files) }

// ReclaimBytes is size × (count − 1).
func (g ContentGroup) ReclaimBytes() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}

// NewContentGroup creates a ContentGroup with files sorted by path.
func NewContentGroup(size int64, digest string, files []CandidateFile) ContentGroup {
	sorted := NewSorted(files, func(a, b CandidateFile) int { return cmp.Compare(a.Path, b.Path) })
	return ContentGroup{Size: size, Digest: digest, Files: sorted.Items()}
}
