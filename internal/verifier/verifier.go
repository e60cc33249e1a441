// Package verifier confirms duplicates by hashing file content.
//
// # Hashing Loop
//
// Buckets from the screener are processed in order, one file at a time,
// under the budget controller:
//
//	for each bucket:
//	    │
//	    ├──► size < current min size? ──► count whole bucket done, next bucket
//	    │
//	    └──► for each file:
//	             │
//	             ├──► ctrl.Checkpoint() (may block on a negotiation pause)
//	             │
//	             ├──► threshold raised past bucket size? ──► count rest done, next bucket
//	             │
//	             ├──► Digest(file) ──► error: drop file, report on errCh
//	             │
//	             └──► ctrl.Advance(1)
//
// Every file ends up counted exactly once, hashed or not, so hash_done
// reaches hash_total even when files vanish or the threshold moves.
//
// # Why Sequential?
//
//   - The cost model assumes one file in flight; concurrent reads would skew the average
//   - A pause must hold the whole pipeline, which is trivial with a single loop
//   - Disk throughput, not CPU, bounds SHA-256 over large files
package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/ivoronin/dupehound/internal/budget"
	"github.com/ivoronin/dupehound/internal/screener"
	"github.com/ivoronin/dupehound/internal/types"
)

// blockSize is the read buffer size (1MB)
const blockSize = 1 << 20

// fmtBytes is a shorthand for humanize.IBytes (human-readable byte sizes).
var fmtBytes = humanize.IBytes

// Digester computes a content fingerprint.
type Digester interface {
	Digest(f types.CandidateFile) (string, error)
}

// DigestCache persists digests between runs. *cache.Cache implements it.
//
// Lookup may return a usable digest together with an error from a failed
// write-back; the digest wins.
type DigestCache interface {
	Lookup(f types.CandidateFile) ([]byte, error)
	Store(f types.CandidateFile, digest []byte) error
}

// byteCounter is implemented by digesters that track I/O volume.
type byteCounter interface {
	Bytes() (hashed, cached int64)
}

// Hasher is a Digester computing hex SHA-256 over an afero filesystem,
// consulting an optional digest cache first. The cache is best effort:
// its failures are logged and never cost a digest.
type Hasher struct {
	fs     afero.Fs
	cache  DigestCache // nil = disabled
	logger *slog.Logger
	hashed int64 // bytes read from disk
	cached int64 // bytes served from cache
}

// NewHasher creates a Hasher. Pass nil for c to disable caching.
func NewHasher(fsys afero.Fs, c DigestCache, logger *slog.Logger) *Hasher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hasher{fs: fsys, cache: c, logger: logger}
}

// Digest returns the hex SHA-256 of f's content.
func (h *Hasher) Digest(f types.CandidateFile) (string, error) {
	if h.cache != nil {
		sum, err := h.cache.Lookup(f)
		if err != nil {
			h.logger.Debug("cache lookup failed", "path", f.Path, "err", err)
		}
		if sum != nil {
			h.cached += f.Size
			return hex.EncodeToString(sum), nil
		}
	}

	sum, n, err := hashFile(h.fs, f.Path)
	h.hashed += n
	if err != nil {
		return "", err
	}
	if h.cache != nil {
		if err := h.cache.Store(f, sum); err != nil {
			h.logger.Debug("cache store failed", "path", f.Path, "err", err)
		}
	}
	return hex.EncodeToString(sum), nil
}

// Bytes returns how many bytes were read from disk and served from cache.
func (h *Hasher) Bytes() (hashed, cached int64) { return h.hashed, h.cached }

// hashFile streams a whole file through SHA-256.
func hashFile(fsys afero.Fs, path string) (sum []byte, bytesRead int64, err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	hasher := sha256.New()
	buf := make([]byte, blockSize)
	n, err := io.CopyBuffer(hasher, f, buf)
	if err != nil {
		return nil, n, err
	}
	return hasher.Sum(nil), n, nil
}

// Stats summarizes a hashing run.
type Stats struct {
	Total     int // files across all buckets
	Hashed    int // digests computed
	Failed    int // unreadable files, dropped
	Skipped   int // files below a raised threshold
	Groups    int // distinct (size, digest) pairs with 2+ files
	StartTime time.Time
	Elapsed   time.Duration

	BytesHashed int64 // read from disk, when the digester reports it
	BytesCached int64 // served from the digest cache
}

func (s *Stats) String() string {
	return fmt.Sprintf("Hashed %d of %d files (%d skipped by threshold, %d failed), read %s (%s from cache), found %d duplicate sets in %v",
		s.Hashed, s.Total, s.Skipped, s.Failed, fmtBytes(uint64(s.BytesHashed)), fmtBytes(uint64(s.BytesCached)),
		s.Groups, s.Elapsed.Truncate(time.Millisecond))
}

// Verifier hashes size buckets into content groups.
//
// The verifier is designed for single-use: create with New(), call Run() once.
type Verifier struct {
	// Config (immutable, set by New)
	buckets  []types.SizeBucket
	digester Digester
	ctrl     *budget.Controller
	errCh    chan error // Non-fatal errors (permission denied, etc.)
	logger   *slog.Logger

	stats *Stats
}

// New creates a Verifier over buckets. Each bucket must hold files of one size.
func New(buckets []types.SizeBucket, digester Digester, ctrl *budget.Controller, errCh chan error, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		buckets:  buckets,
		digester: digester,
		ctrl:     ctrl,
		errCh:    errCh,
		logger:   logger,
	}
}

type groupKey struct {
	size   int64
	digest string
}

// Run hashes every eligible file and returns all (size, digest) groups in
// first-seen order, singletons included. Filtering is left to the ranker
// since the threshold may still be raised after a group is formed.
//
// Run returns an error only if ctx is cancelled during a negotiation pause.
func (v *Verifier) Run(ctx context.Context) ([]types.ContentGroup, error) {
	st := &Stats{StartTime: time.Now(), Total: screener.Total(v.buckets)}
	v.stats = st
	v.ctrl.Begin(st.Total)

	index := make(map[groupKey]int)
	var acc [][]types.CandidateFile
	var keys []groupKey

	for _, b := range v.buckets {
		if b.Size < v.ctrl.MinSize() {
			v.skip(b, len(b.Files))
			continue
		}
		for i, f := range b.Files {
			if err := v.ctrl.Checkpoint(ctx); err != nil {
				return nil, err
			}
			// Threshold may have been raised during the pause
			if b.Size < v.ctrl.MinSize() {
				v.skip(b, len(b.Files)-i)
				break
			}

			digest, err := v.digester.Digest(f)
			if err != nil {
				st.Failed++
				v.logger.Debug("hash failed", "path", f.Path, "err", err)
				v.sendError(fmt.Errorf("%s: %w", f.Path, err))
			} else {
				st.Hashed++
				k := groupKey{size: b.Size, digest: digest}
				n, ok := index[k]
				if !ok {
					n = len(acc)
					index[k] = n
					acc = append(acc, nil)
					keys = append(keys, k)
				}
				acc[n] = append(acc[n], f)
			}
			v.ctrl.Advance(1)
		}
	}

	groups := make([]types.ContentGroup, 0, len(acc))
	for i, files := range acc {
		groups = append(groups, types.NewContentGroup(keys[i].size, keys[i].digest, files))
		if len(files) >= 2 {
			st.Groups++
		}
	}
	if bc, ok := v.digester.(byteCounter); ok {
		st.BytesHashed, st.BytesCached = bc.Bytes()
	}
	st.Elapsed = time.Since(st.StartTime)
	v.logger.Info("hashing finished", "hashed", st.Hashed, "failed", st.Failed,
		"skipped", st.Skipped, "groups", st.Groups)
	return groups, nil
}

// Stats returns statistics of the last Run, or nil before Run.
func (v *Verifier) Stats() *Stats { return v.stats }

// skip counts the last n files of b as done without hashing them.
func (v *Verifier) skip(b types.SizeBucket, n int) {
	v.stats.Skipped += n
	v.ctrl.Advance(n)
	v.logger.Debug("bucket below threshold", "size", fmtBytes(uint64(b.Size)), "files", n)
}

// sendError sends an error to the errors channel if it's not nil.
func (v *Verifier) sendError(err error) {
	if v.errCh != nil {
		v.errCh <- err
	}
}
