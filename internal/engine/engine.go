// Package engine runs scans and exposes their status and results.
//
// # Overview
//
// A Session owns one StatusTracker and at most one background worker. The
// worker runs the whole pipeline for a single scan:
//
//	Start(opts)
//	    │
//	    ├──► validate root, mode, excludes (synchronous errors)
//	    │
//	    └──► worker goroutine
//	             │
//	             ├──► scanner.Walk() ──► Strategy.Group()
//	             │                           │
//	             │        name:    namer ──► ranker.RankNames
//	             │        content: screener ──► verifier (budget-gated) ──► ranker.RankContent
//	             │
//	             └──► publish results, phase done (or error)
//
// Observers poll Status() at any time and answer a negotiation pause with
// Resume(). Results() is available once the phase is done.
//
// # Concurrency
//
// Only one worker runs per Session; Start while a scan is active returns
// ErrScanActive. Status, Resume and Results are safe from any goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/ivoronin/dupehound/internal/budget"
	"github.com/ivoronin/dupehound/internal/cache"
	"github.com/ivoronin/dupehound/internal/exclude"
	"github.com/ivoronin/dupehound/internal/placeholder"
	"github.com/ivoronin/dupehound/internal/scanner"
	"github.com/ivoronin/dupehound/internal/status"
	"github.com/ivoronin/dupehound/internal/types"
	"github.com/ivoronin/dupehound/internal/verifier"
)

var (
	ErrRootNotFound    = errors.New("root does not exist")
	ErrRootNotDir      = errors.New("root is not a directory")
	ErrScanActive      = errors.New("a scan is already in progress")
	ErrResultsNotReady = errors.New("results are not ready")
)

// Options are the recognized scan options.
type Options struct {
	Root         string
	MinSize      int64         // Files below this size never reach a group
	TimeBudget   time.Duration // Advisory; zero disables negotiation
	Excludes     []string      // Path prefixes or glob patterns
	IncludeCloud bool          // Read cloud placeholders (may trigger downloads)
	Mode         types.Mode
	IgnoreExt    bool // Name mode: drop the extension before normalizing
}

// Session runs scans one at a time.
type Session struct {
	// Config (immutable, set by New)
	fs            afero.Fs
	logger        *slog.Logger
	cache         *cache.Cache
	digester      verifier.Digester // nil = SHA-256 over fs
	isPlaceholder placeholder.Func
	errCh         chan error

	tracker *status.Tracker

	mu      sync.Mutex
	ctrl    *budget.Controller // current run, nil before the first content scan
	results []types.Group
	done    chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option { return func(s *Session) { s.fs = fsys } }

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithClock sets the time source used for elapsed time and the budget.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.tracker = status.New(now) }
}

// WithCache enables the persistent digest cache for content scans.
func WithCache(c *cache.Cache) Option { return func(s *Session) { s.cache = c } }

// WithDigester replaces content hashing.
func WithDigester(d verifier.Digester) Option { return func(s *Session) { s.digester = d } }

// WithPlaceholder replaces cloud placeholder detection.
func WithPlaceholder(fn placeholder.Func) Option {
	return func(s *Session) { s.isPlaceholder = fn }
}

// WithErrCh forwards non-fatal per-file errors. The caller must drain it.
func WithErrCh(ch chan error) Option { return func(s *Session) { s.errCh = ch } }

// New creates an idle Session.
func New(opts ...Option) *Session {
	s := &Session{
		fs:            afero.NewOsFs(),
		logger:        slog.Default(),
		isPlaceholder: placeholder.IsPlaceholder,
		tracker:       status.New(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.done = make(chan struct{})
	close(s.done)
	return s
}

// Start validates o and launches a worker. ctx bounds the worker's lifetime;
// cancelling it ends a paused scan with an error.
func (s *Session) Start(ctx context.Context, o Options) error {
	mode, err := types.ParseMode(string(o.Mode))
	if err != nil {
		return err
	}
	o.Mode = mode
	if err := s.checkRoot(o.Root); err != nil {
		return err
	}
	if err := exclude.Validate(o.Excludes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker.Phase().Active() {
		return ErrScanActive
	}

	s.tracker.Reset(status.ScanStatus{
		Phase:          types.PhaseScanning,
		Mode:           o.Mode,
		IgnoreExt:      o.IgnoreExt,
		Root:           o.Root,
		StartedAt:      s.tracker.Now(),
		Budget:         o.TimeBudget,
		CurrentMinSize: o.MinSize,
	})
	s.results = nil
	s.ctrl = budget.New(s.tracker, o.TimeBudget, s.logger)
	s.done = make(chan struct{})

	s.logger.Info("scan started", "root", o.Root, "mode", o.Mode, "min_size", o.MinSize,
		"budget", o.TimeBudget, "excludes", len(o.Excludes), "include_cloud", o.IncludeCloud)
	go s.run(ctx, o, s.strategy(o), s.done)
	return nil
}

func (s *Session) checkRoot(root string) error {
	info, err := s.fs.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}
	return nil
}

func (s *Session) strategy(o Options) Strategy {
	if o.Mode == types.ModeName {
		return nameStrategy{ignoreExt: o.IgnoreExt}
	}
	d := s.digester
	if d == nil {
		var dc verifier.DigestCache
		if s.cache.Enabled() {
			dc = s.cache
		}
		d = verifier.NewHasher(s.fs, dc, s.logger)
	}
	return contentStrategy{digester: d, ctrl: s.ctrl, errCh: s.errCh, logger: s.logger}
}

// run is the worker. It owns all intermediate state until publish.
func (s *Session) run(ctx context.Context, o Options, strat Strategy, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("panic: %v", r))
		}
	}()

	sc := scanner.New(s.fs, o.Root, scanner.Options{
		MinSize:       o.MinSize,
		Excludes:      exclude.New(o.Excludes),
		IncludeCloud:  o.IncludeCloud,
		IsPlaceholder: s.isPlaceholder,
		OnProgress:    s.reportWalk,
		ErrCh:         s.errCh,
		Logger:        s.logger,
	})

	groups, err := strat.Group(ctx, sc.Walk())
	s.reportWalk(sc.Counts())
	if err != nil {
		s.fail(err)
		return
	}
	s.publish(groups)
}

func (s *Session) reportWalk(c scanner.Counts) {
	s.tracker.Update(func(st *status.ScanStatus) {
		st.Scanned = int(c.Scanned)
		st.Skipped = int(c.Skipped)
		st.ScannedBytes = c.Bytes
	})
}

// publish stores results and marks the run done in one step.
func (s *Session) publish(groups []types.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = groups
	s.tracker.Update(func(st *status.ScanStatus) {
		st.Phase = types.PhaseDone
		st.ETA, st.HasETA = 0, false
		st.Message = ""
	})
	st := s.tracker.Snapshot()
	s.logger.Info("scan finished", "groups", len(groups), "scanned", st.Scanned,
		"skipped", st.Skipped, "elapsed", st.Elapsed.Round(time.Millisecond))
}

func (s *Session) fail(err error) {
	s.tracker.Update(func(st *status.ScanStatus) {
		st.Phase = types.PhaseError
		st.Error = err.Error()
		st.TuningSuggestion = 0
		st.ETA, st.HasETA = 0, false
	})
	s.logger.Error("scan failed", "err", err)
}

// Status returns a consistent snapshot. Valid before any scan starts.
func (s *Session) Status() status.ScanStatus {
	return s.tracker.Snapshot()
}

// Resume answers a negotiation pause. It fails with budget.ErrNotPaused
// unless the scan is in needs_tuning.
func (s *Session) Resume(d budget.Decision) error {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		return budget.ErrNotPaused
	}
	return ctrl.Submit(d)
}

// Results returns the ranked groups of the last scan once it is done.
func (s *Session) Results() ([]types.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker.Phase() != types.PhaseDone {
		return nil, ErrResultsNotReady
	}
	return slices.Clone(s.results), nil
}

// Done returns a channel closed when the current worker exits.
// Closed immediately if no scan was started.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Wait blocks until the current worker exits and returns its final status.
func (s *Session) Wait() status.ScanStatus {
	<-s.Done()
	return s.Status()
}
