// Package status holds the live state of a scan.
//
// A Tracker guards one fixed-shape ScanStatus record. The worker mutates it
// only through Update/UpdateIf; observers read whole copies via Snapshot, so
// a snapshot never mixes counters from two different instants.
package status

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ivoronin/dupehound/internal/types"
)

// ScanStatus is a point-in-time view of a scan. All fields are plain values.
type ScanStatus struct {
	Phase     types.Phase `json:"phase"`
	Mode      types.Mode  `json:"mode"`
	IgnoreExt bool        `json:"ignore_ext"`
	Root      string      `json:"root"`
	StartedAt time.Time   `json:"started_at"`

	Elapsed time.Duration `json:"-"` // JSON: elapsed_seconds
	Budget  time.Duration `json:"-"` // JSON: budget_seconds

	Scanned      int   `json:"scanned_count"`
	Skipped      int   `json:"skipped_count"`
	ScannedBytes int64 `json:"scanned_bytes"`

	HashTotal int           `json:"hash_total"`
	HashDone  int           `json:"hash_done"`
	ETA       time.Duration `json:"-"` // JSON: eta_seconds
	HasETA    bool          `json:"has_eta"` // false until the cost estimate warms up

	CurrentMinSize   int64  `json:"current_min_size"`
	TuningSuggestion int64  `json:"tuning_suggestion"` // set only while needs_tuning
	Message          string `json:"message"`
	Error            string `json:"error"`
}

// MarshalJSON encodes durations as whole seconds.
func (s ScanStatus) MarshalJSON() ([]byte, error) {
	type plain ScanStatus
	return json.Marshal(struct {
		plain
		ElapsedSeconds int64 `json:"elapsed_seconds"`
		BudgetSeconds  int64 `json:"budget_seconds"`
		ETASeconds     int64 `json:"eta_seconds"`
	}{
		plain:          plain(s),
		ElapsedSeconds: seconds(s.Elapsed),
		BudgetSeconds:  seconds(s.Budget),
		ETASeconds:     seconds(s.ETA),
	})
}

func seconds(d time.Duration) int64 {
	return int64(d.Round(time.Second) / time.Second)
}

// Tracker is the single guarded owner of a ScanStatus.
type Tracker struct {
	mu  sync.Mutex
	st  ScanStatus
	now func() time.Time
}

// New creates an idle tracker. A nil clock means time.Now.
func New(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{st: ScanStatus{Phase: types.PhaseIdle}, now: now}
}

// Now returns the tracker's clock reading.
func (t *Tracker) Now() time.Time { return t.now() }

// Reset replaces the whole record, starting a new run.
func (t *Tracker) Reset(st ScanStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = st
}

// Update applies fn to the record under the guard.
// Leaving an active phase freezes Elapsed at its final value.
func (t *Tracker) Update(fn func(*ScanStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(fn)
}

// UpdateIf applies fn only if the current phase is phase, reporting whether it did.
func (t *Tracker) UpdateIf(phase types.Phase, fn func(*ScanStatus)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.Phase != phase {
		return false
	}
	t.apply(fn)
	return true
}

func (t *Tracker) apply(fn func(*ScanStatus)) {
	wasActive := t.st.Phase.Active()
	fn(&t.st)
	if wasActive && !t.st.Phase.Active() && !t.st.StartedAt.IsZero() {
		t.st.Elapsed = t.now().Sub(t.st.StartedAt)
	}
}

// Snapshot returns a copy of the record. Elapsed is live while a run is active.
func (t *Tracker) Snapshot() ScanStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.st
	if st.Phase.Active() && !st.StartedAt.IsZero() {
		st.Elapsed = t.now().Sub(st.StartedAt)
	}
	return st
}

// Phase returns the current phase.
func (t *Tracker) Phase() types.Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st.Phase
}

// MinSize returns the current minimum size threshold.
func (t *Tracker) MinSize() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st.CurrentMinSize
}
