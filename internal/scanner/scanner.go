// Package scanner walks a directory tree once and yields admitted files.
//
// # Overview
//
// The scanner is the first stage of both grouping strategies. It produces a lazy,
// single-pass sequence of types.CandidateFile and keeps running counters of
// admitted (scanned) and rejected (skipped) entries.
//
// # Traversal
//
//	Walk() starts
//	    │
//	    ├──► root excluded? → yield nothing
//	    │
//	    └──► pop directory from stack
//	             │
//	             ├──► listDirectory() in batches of 1000 entries
//	             │        │
//	             │        ├──► directory: excluded? → pruned (never opened)
//	             │        ├──► symlink/device/socket → skipped
//	             │        ├──► cloud placeholder (unless includeCloud) → skipped
//	             │        ├──► excluded file or below minSize → skipped
//	             │        └──► regular file → scanned, yielded
//	             │
//	             ├──► report counters (OnProgress)
//	             └──► push subdirectories
//
// # Why This Design?
//
//   - Pruning happens before a directory is opened, so deep excluded trees cost nothing
//   - Per-entry metadata comes from the directory listing (lstat semantics); no extra stat
//   - Errors are never fatal: unreadable directories are counted and reported
//   - Single goroutine: the walk feeds one consumer and is never paused or resumed
package scanner

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ivoronin/dupehound/internal/exclude"
	"github.com/ivoronin/dupehound/internal/placeholder"
	"github.com/ivoronin/dupehound/internal/types"
	"github.com/spf13/afero"
)

// batchSize bounds memory when listing directories with millions of entries.
const batchSize = 1000

// Options configures a Scanner.
type Options struct {
	MinSize       int64            // Files below this size are skipped
	Excludes      *exclude.Matcher // Pruned directories and skipped files
	IncludeCloud  bool             // Admit cloud placeholders
	IsPlaceholder placeholder.Func // Defaults to placeholder.IsPlaceholder
	OnProgress    func(Counts)     // Called after every directory batch
	ErrCh         chan error       // Non-fatal errors (permission denied, etc.)
	Logger        *slog.Logger
}

// Counts is a snapshot of the walk counters.
type Counts struct {
	Scanned int64 // Admitted files
	Skipped int64 // Rejected entries and unreadable directories
	Bytes   int64 // Total size of admitted files
}

func (c Counts) String() string {
	return fmt.Sprintf("Scanned %d files (%s), skipped %d",
		c.Scanned, humanize.IBytes(uint64(c.Bytes)), c.Skipped)
}

// Scanner walks a single root.
//
// The scanner is designed for single-use: create with New(), call Walk() once.
type Scanner struct {
	// Config (immutable, set by New)
	fs   afero.Fs
	root string
	opts Options

	// Runtime
	started atomic.Bool
	scanned atomic.Int64
	skipped atomic.Int64
	bytes   atomic.Int64
}

// New creates a Scanner for root on fsys.
func New(fsys afero.Fs, root string, opts Options) *Scanner {
	if opts.IsPlaceholder == nil {
		opts.IsPlaceholder = placeholder.IsPlaceholder
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scanner{fs: fsys, root: filepath.Clean(root), opts: opts}
}

// Counts returns the current counters. Safe to call from any goroutine.
func (s *Scanner) Counts() Counts {
	return Counts{
		Scanned: s.scanned.Load(),
		Skipped: s.skipped.Load(),
		Bytes:   s.bytes.Load(),
	}
}

// Walk returns the admitted files as a lazy sequence.
//
// The sequence is single-pass: ranging over it a second time yields nothing.
// Stopping early (break) abandons the rest of the walk.
func (s *Scanner) Walk() iter.Seq[types.CandidateFile] {
	return func(yield func(types.CandidateFile) bool) {
		if !s.started.CompareAndSwap(false, true) {
			return
		}
		startTime := time.Now()
		defer func() {
			s.report()
			s.opts.Logger.Debug("walk finished", "root", s.root, "stats", s.Counts().String(),
				"elapsed", time.Since(startTime).Truncate(time.Millisecond))
		}()

		if s.opts.Excludes.Excluded(s.root) {
			s.opts.Logger.Debug("root is excluded", "root", s.root)
			return
		}

		stack := []string{s.root}
		for len(stack) > 0 {
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			subdirs, ok := s.walkDirectory(dir, yield)
			if !ok {
				return
			}
			// Reverse push so subdirectories pop in name order
			for i := len(subdirs) - 1; i >= 0; i-- {
				stack = append(stack, subdirs[i])
			}
		}
	}
}

// walkDirectory lists dir in batches, yielding admitted files as each batch completes.
// Returns subdirectories to descend into and false if the consumer stopped.
func (s *Scanner) walkDirectory(dir string, yield func(types.CandidateFile) bool) (subdirs []string, ok bool) {
	d, err := s.fs.Open(dir)
	if err != nil {
		s.skipDirectory(dir, err)
		return nil, true
	}
	defer func() { _ = d.Close() }()

	for {
		entries, err := d.Readdir(batchSize)
		// Name order holds within a batch only
		slices.SortFunc(entries, func(a, b fs.FileInfo) int { return cmp.Compare(a.Name(), b.Name()) })

		for _, entry := range entries {
			f, sub := s.processEntry(dir, entry)
			if sub != "" {
				subdirs = append(subdirs, sub)
			}
			if f != nil && !yield(*f) {
				return nil, false
			}
		}
		s.report()

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.skipDirectory(dir, err)
			}
			break
		}
		if len(entries) == 0 {
			break
		}
	}

	slices.Sort(subdirs)
	return subdirs, true
}

// processEntry classifies a single directory entry.
// Returns (nil, "") for entries that are skipped or pruned.
func (s *Scanner) processEntry(dir string, info fs.FileInfo) (file *types.CandidateFile, subdir string) {
	fullPath := filepath.Join(dir, info.Name())

	if info.IsDir() {
		if s.opts.Excludes.Excluded(fullPath) {
			s.opts.Logger.Debug("pruned excluded directory", "path", fullPath)
			return nil, ""
		}
		return nil, fullPath
	}

	// Symlinks, devices, sockets, etc.
	if !info.Mode().IsRegular() {
		s.skip(fullPath, "not a regular file")
		return nil, ""
	}

	// Metadata only: the placeholder check must not read content
	if !s.opts.IncludeCloud && s.opts.IsPlaceholder(info) {
		s.skip(fullPath, "cloud placeholder")
		return nil, ""
	}

	if info.Size() < s.opts.MinSize {
		s.skip(fullPath, "below minimum size")
		return nil, ""
	}

	if s.opts.Excludes.Excluded(fullPath) {
		s.skip(fullPath, "excluded")
		return nil, ""
	}

	s.scanned.Add(1)
	s.bytes.Add(info.Size())
	return &types.CandidateFile{Path: fullPath, Size: info.Size(), ModTime: info.ModTime()}, ""
}

func (s *Scanner) skip(path, reason string) {
	s.skipped.Add(1)
	s.opts.Logger.Debug("skipped", "path", path, "reason", reason)
}

// skipDirectory records an unreadable directory. The walk continues.
func (s *Scanner) skipDirectory(dir string, err error) {
	s.skipped.Add(1)
	s.opts.Logger.Debug("cannot read directory", "path", dir, "err", err)
	s.sendError(fmt.Errorf("%s: %w", dir, err))
}

func (s *Scanner) report() {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(s.Counts())
	}
}

// sendError sends an error to the errors channel if it's not nil.
func (s *Scanner) sendError(err error) {
	if s.opts.ErrCh != nil {
		s.opts.ErrCh <- err
	}
}
