// Package progress renders scan status snapshots on the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/ivoronin/dupehound/internal/status"
	"github.com/ivoronin/dupehound/internal/types"
)

const updateInterval = 50 * time.Millisecond

// Bar wraps progressbar with enabled/disabled handling.
// All methods are no-ops when disabled.
type Bar struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

// New creates a spinner writing to stderr.
// If enabled=false, returns a Bar where all methods are no-ops.
func New(enabled bool) *Bar {
	return NewWriter(enabled, os.Stderr)
}

// NewWriter creates a spinner writing to w.
func NewWriter(enabled bool, w io.Writer) *Bar {
	if !enabled {
		return &Bar{}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(false),
	)
	return &Bar{bar: bar, w: w}
}

// Describe renders a status snapshot as the spinner description.
func (b *Bar) Describe(st status.ScanStatus) {
	if b.bar != nil {
		b.bar.Describe(Snapshot(st).String())
		_ = b.bar.Add(1) // Spin
	}
}

// Clear erases the spinner line, e.g. before prompting.
func (b *Bar) Clear() {
	if b.bar != nil {
		_ = b.bar.Clear()
	}
}

// Finish completes the spinner and prints the final status.
func (b *Bar) Finish(st status.ScanStatus) {
	if b.bar != nil {
		_ = b.bar.Finish()
		mark := "✔ "
		if st.Phase == types.PhaseError {
			mark = "✘ "
		}
		fmt.Fprintln(b.w, mark+Snapshot(st).String())
	}
}

// Snapshot formats a ScanStatus as a single line.
type Snapshot status.ScanStatus

func (s Snapshot) String() string {
	elapsed := s.Elapsed.Truncate(time.Second)
	switch s.Phase {
	case types.PhaseIdle:
		return "Idle"
	case types.PhaseScanning:
		return fmt.Sprintf("Scanning: %d files (%s), %d skipped [%v]",
			s.Scanned, humanize.IBytes(uint64(s.ScannedBytes)), s.Skipped, elapsed)
	case types.PhaseHashing:
		line := fmt.Sprintf("Hashing: %d/%d files (%.0f%%)", s.HashDone, s.HashTotal, s.percent())
		if s.HasETA {
			line += fmt.Sprintf(", ETA %v", s.ETA.Truncate(time.Second))
		}
		if s.Budget > 0 {
			line += fmt.Sprintf(", budget %v/%v", elapsed, s.Budget)
		}
		return line + fmt.Sprintf(", min size %s", humanize.IBytes(uint64(s.CurrentMinSize)))
	case types.PhaseNeedsTuning:
		return fmt.Sprintf("Paused at %d/%d files: %s (ETA %v, elapsed %v of %v), suggested min size %s",
			s.HashDone, s.HashTotal, s.Message, s.ETA.Truncate(time.Second), elapsed, s.Budget,
			humanize.IBytes(uint64(s.TuningSuggestion)))
	case types.PhaseDone:
		line := fmt.Sprintf("Scanned %d files (%s), skipped %d", s.Scanned,
			humanize.IBytes(uint64(s.ScannedBytes)), s.Skipped)
		if s.Mode == types.ModeContent {
			line += fmt.Sprintf(", hashed %d", s.HashDone)
		}
		return line + fmt.Sprintf(" in %v", elapsed)
	case types.PhaseError:
		return "Failed: " + s.Error
	}
	return string(s.Phase)
}

func (s Snapshot) percent() float64 {
	if s.HashTotal == 0 {
		return 100
	}
	return float64(s.HashDone) / float64(s.HashTotal) * 100
}
