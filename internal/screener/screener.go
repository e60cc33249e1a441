// Package screener partitions walked files into size buckets.
//
// # Processing Pipeline
//
//	Input: iter.Seq[types.CandidateFile] (the walk)
//	    │
//	    ├──► Group by exact size (first-seen size order)
//	    │
//	    ├──► Filter: keep buckets with 2+ files
//	    │
//	    └──► Output: []types.SizeBucket (hashing candidates)
//
// # Why This Design?
//
//   - Files of different sizes cannot be duplicates, so most files are eliminated for free
//   - No I/O required: uses metadata from the walk
//   - Buckets are the only input of the expensive hashing phase
package screener

import (
	"fmt"
	"iter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ivoronin/dupehound/internal/types"
)

// Screener buckets files by size.
//
// The screener is designed for single-use: create with New(), call Run() once.
type Screener struct {
	files iter.Seq[types.CandidateFile]
	stats *Stats
}

// New creates a Screener consuming files.
func New(files iter.Seq[types.CandidateFile]) *Screener {
	return &Screener{files: files}
}

// Stats summarizes a screening run.
type Stats struct {
	InputFiles     int
	CandidateFiles int
	CandidateBytes int64
	Buckets        int
	Elapsed        time.Duration
}

func (s *Stats) String() string {
	return fmt.Sprintf("Selected %d of %d files (%s) in %d size buckets in %.1fs",
		s.CandidateFiles, s.InputFiles, humanize.IBytes(uint64(s.CandidateBytes)),
		s.Buckets, s.Elapsed.Seconds())
}

// Run consumes the walk and returns buckets holding at least two files.
// Bucket order follows the first occurrence of each size; files keep walk order.
func (s *Screener) Run() []types.SizeBucket {
	startTime := time.Now()
	st := &Stats{}

	index := make(map[int64]int)
	var all []types.SizeBucket
	for f := range s.files {
		st.InputFiles++
		i, ok := index[f.Size]
		if !ok {
			i = len(all)
			index[f.Size] = i
			all = append(all, types.SizeBucket{Size: f.Size})
		}
		all[i].Files = append(all[i].Files, f)
	}

	// Singletons cannot be duplicates: drop before any hashing is scheduled
	buckets := all[:0]
	for _, b := range all {
		if len(b.Files) < 2 {
			continue
		}
		buckets = append(buckets, b)
		st.CandidateFiles += len(b.Files)
		st.CandidateBytes += b.Size * int64(len(b.Files))
	}

	st.Buckets = len(buckets)
	st.Elapsed = time.Since(startTime)
	s.stats = st
	return buckets
}

// Stats returns statistics of the last Run, or nil before Run.
func (s *Screener) Stats() *Stats { return s.stats }

// Total returns the number of files across buckets.
func Total(buckets []types.SizeBucket) int {
	n := 0
	for _, b := range buckets {
		n += len(b.Files)
	}
	return n
}
