// Package budget gates the hashing phase against an advisory time budget.
//
// # Negotiation Protocol
//
//	Checkpoint (before each file)
//	    │
//	    ├──► Update average cost per file (after a 5-file warm-up)
//	    │
//	    ├──► ETA = remaining files × average cost
//	    │
//	    ├──► ETA within remaining budget? ──► return, hash the file
//	    │
//	    └──► Pause: phase needs_tuning, publish suggested threshold
//	              │
//	              ▼
//	         block until Submit(Continue | Raise(n))
//	              │
//	              └──► rebase cost clock, return
//
// The budget never aborts work. The only ways forward are an operator
// decision to continue or a raised minimum size that shrinks what is left.
package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ivoronin/dupehound/internal/status"
	"github.com/ivoronin/dupehound/internal/types"
)

var (
	// ErrNotPaused is returned when a decision arrives outside needs_tuning.
	ErrNotPaused = errors.New("scan is not waiting for a decision")
	// ErrThresholdTooSmall is returned for a raise below MinRaise.
	ErrThresholdTooSmall = errors.New("minimum size too small")
	// ErrUnknownDecision is returned for an unrecognized action.
	ErrUnknownDecision = errors.New("unknown resume decision")
)

const (
	warmupFiles = 5 // Files hashed before the average is trusted

	// MinRaise is the smallest threshold a raise decision may install.
	MinRaise int64 = 1 << 20

	suggestFloor int64 = 50 << 20
)

// Action names a resume decision.
type Action string

const (
	ActionContinue Action = "continue" // Resume, accept the likely overrun
	ActionRaise    Action = "raise"    // Install a new minimum size, then resume
)

// Decision is the operator's answer to a negotiation pause.
type Decision struct {
	Action  Action
	MinSize int64 // Used by ActionRaise only
}

// Continue resumes hashing unchanged.
func Continue() Decision { return Decision{Action: ActionContinue} }

// Raise resumes hashing with a new minimum size.
func Raise(minSize int64) Decision { return Decision{Action: ActionRaise, MinSize: minSize} }

func (d Decision) String() string {
	if d.Action == ActionRaise {
		return fmt.Sprintf("raise to %s", humanize.IBytes(uint64(d.MinSize)))
	}
	return string(d.Action)
}

// Suggest returns the threshold proposed at a pause.
func Suggest(current int64) int64 {
	return max(current*2, suggestFloor)
}

// Controller tracks hashing progress against the budget.
//
// Begin, Advance and Checkpoint belong to the worker. Submit and MinSize are
// safe from any goroutine.
type Controller struct {
	tracker   *status.Tracker
	budget    time.Duration
	logger    *slog.Logger
	decisions chan Decision

	// Worker-owned
	total     int
	done      int
	hashStart time.Time
	avg       time.Duration
	warm      bool
}

// New creates a controller publishing into tracker. A zero budget never pauses.
func New(tracker *status.Tracker, budget time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		tracker:   tracker,
		budget:    budget,
		logger:    logger,
		decisions: make(chan Decision, 1),
	}
}

// Begin enters the hashing phase with total files to process.
func (c *Controller) Begin(total int) {
	c.total = total
	c.done = 0
	c.warm = false
	c.avg = 0
	c.hashStart = c.tracker.Now()
	c.tracker.Update(func(s *status.ScanStatus) {
		s.Phase = types.PhaseHashing
		s.HashTotal = total
		s.HashDone = 0
		s.ETA, s.HasETA = 0, false
	})
	c.logger.Info("hashing started", "files", total, "budget", c.budget)
}

// MinSize returns the current minimum size threshold.
func (c *Controller) MinSize() int64 { return c.tracker.MinSize() }

// Done returns the number of files accounted for so far.
func (c *Controller) Done() int { return c.done }

// Advance counts n files as done, hashed or skipped.
func (c *Controller) Advance(n int) {
	c.done += n
	eta, known := c.eta()
	c.tracker.Update(func(s *status.ScanStatus) {
		s.HashDone = c.done
		s.ETA, s.HasETA = eta, known
	})
}

func (c *Controller) eta() (time.Duration, bool) {
	if !c.warm || c.done >= c.total {
		return 0, false
	}
	return time.Duration(c.total-c.done) * c.avg, true
}

// Checkpoint runs before each file is hashed. It blocks while the scan waits
// for a decision and returns early only if ctx is cancelled.
func (c *Controller) Checkpoint(ctx context.Context) error {
	now := c.tracker.Now()
	if c.done > warmupFiles {
		c.avg = now.Sub(c.hashStart) / time.Duration(c.done)
		c.warm = true
	}
	eta, known := c.eta()

	var startedAt time.Time
	c.tracker.Update(func(s *status.ScanStatus) {
		s.HashDone = c.done
		s.ETA, s.HasETA = eta, known
		startedAt = s.StartedAt
	})

	remaining := c.budget - now.Sub(startedAt)
	if remaining <= 0 || !known || eta <= remaining {
		return nil
	}
	return c.pause(ctx, eta, remaining)
}

func (c *Controller) pause(ctx context.Context, eta, remaining time.Duration) error {
	var suggestion int64
	c.tracker.Update(func(s *status.ScanStatus) {
		suggestion = Suggest(s.CurrentMinSize)
		s.Phase = types.PhaseNeedsTuning
		s.TuningSuggestion = suggestion
		s.Message = "ETA exceeds time budget"
	})
	c.logger.Info("hashing paused",
		"eta", eta.Round(time.Second), "remaining", remaining.Round(time.Second),
		"done", c.done, "total", c.total, "suggested_min_size", suggestion)

	var d Decision
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d = <-c.decisions:
	}

	// Completed work must not count against the new timing window
	c.hashStart = c.tracker.Now().Add(-time.Duration(c.done) * c.avg)
	c.logger.Info("hashing resumed", "decision", d.String())
	return nil
}

// Submit delivers a decision to a paused scan. The phase returns to hashing
// and a raised threshold is visible before Submit returns.
func (c *Controller) Submit(d Decision) error {
	if c.tracker.Phase() != types.PhaseNeedsTuning {
		return ErrNotPaused
	}
	switch d.Action {
	case ActionContinue:
	case ActionRaise:
		if d.MinSize < MinRaise {
			return fmt.Errorf("%w: %s (need at least %s)", ErrThresholdTooSmall,
				humanize.IBytes(uint64(max(d.MinSize, 0))), humanize.IBytes(uint64(MinRaise)))
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDecision, d.Action)
	}

	ok := c.tracker.UpdateIf(types.PhaseNeedsTuning, func(s *status.ScanStatus) {
		s.Phase = types.PhaseHashing
		s.TuningSuggestion = 0
		s.Message = ""
		if d.Action == ActionRaise {
			s.CurrentMinSize = d.MinSize
		}
	})
	if !ok {
		return ErrNotPaused
	}
	// One accepted decision per pause, so the buffered send never blocks
	c.decisions <- d
	return nil
}
