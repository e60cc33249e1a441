// Package testfs provides test infrastructure for filesystem fixtures.
//
// Tests describe a tree declaratively and sow it into any afero.Fs: an OsFs rooted
// at t.TempDir() for tests that need real metadata (symlinks, permissions), or a
// MemMapFs for fast in-memory runs.
//
//	tree := testfs.FileTree{
//	    Files: []testfs.File{
//	        {Path: "a/20240101-0800_report.pdf", Chunks: []testfs.Chunk{{Pattern: 'R', Size: "10MB"}}},
//	        {Path: "b/report.pdf", Chunks: []testfs.Chunk{{Pattern: 'R', Size: "10MB"}}},
//	    },
//	    Symlinks: []testfs.Symlink{{Path: "c/link.pdf", Target: "../b/report.pdf"}},
//	}
//	testfs.Sow(t, fsys, root, tree)
//
// Content is specified via Chunks: same chunks = same content = duplicates.
// Parent directories are created automatically (mkdir -p semantics).
package testfs

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FileTree describes a filesystem state to create.
type FileTree struct {
	Files    []File
	Symlinks []Symlink
	Dirs     []string // Empty directories
}

// File defines a regular file. Path is relative to the sow root.
type File struct {
	Path    string
	Chunks  []Chunk
	ModTime time.Time // Zero leaves the creation time
}

// Chunk defines a region of file content filled with a pattern byte.
type Chunk struct {
	// Pattern is the fill byte for this chunk region.
	Pattern rune
	// Size accepts SI and IEC units: "10MB", "1MiB", "100".
	Size string
}

// TotalSize calculates the sum of all chunk sizes in bytes.
func (f *File) TotalSize() int64 {
	var total int64
	for _, c := range f.Chunks {
		size, _ := humanize.ParseBytes(c.Size)
		total += int64(size)
	}
	return total
}

// Symlink defines a symbolic link. Only created on filesystems implementing afero.Linker.
type Symlink struct {
	Path   string
	Target string
}
