// Package types provides shared types used across the dupehound codebase.
package types

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// CandidateFile holds metadata for an admitted file. Produced by the walk, never modified.
type CandidateFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Mode selects the grouping strategy.
type Mode string

const (
	ModeName    Mode = "name"    // Group by normalized file name
	ModeContent Mode = "content" // Group by size, then SHA-256
)

// ParseMode parses a mode string (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeName, ModeContent:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeName, ModeContent)
}

// Phase is the state of a scan.
//
//	idle → scanning → hashing ⇄ needs_tuning → done
//	any  → error
//
// Name mode goes straight from scanning to done.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseScanning    Phase = "scanning"
	PhaseHashing     Phase = "hashing"
	PhaseNeedsTuning Phase = "needs_tuning"
	PhaseDone        Phase = "done"
	PhaseError       Phase = "error"
)

// Active reports whether a worker owns the scan in this phase.
func (p Phase) Active() bool {
	switch p {
	case PhaseScanning, PhaseHashing, PhaseNeedsTuning:
		return true
	}
	return false
}

// Sorted is an ordered collection. Once constructed, items are guaranteed to be
// ordered by the comparison function; equal items keep their input order.
type Sorted[T any] struct {
	items []T
}

// NewSorted creates a sorted collection from items using cmpFunc for ordering.
// Items are copied and stably sorted at construction time.
func NewSorted[T any](items []T, cmpFunc func(a, b T) int) Sorted[T] {
	sorted := make([]T, len(items))
	copy(sorted, items)
	slices.SortStableFunc(sorted, cmpFunc)
	return Sorted[T]{items: sorted}
}

// Items returns the sorted items.
func (s Sorted[T]) Items() []T { return s.items }
