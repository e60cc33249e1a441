package types

import (
	"cmp"
	"testing"
)

// =============================================================================
// Section 1: Generic Sorted[T] Tests
// =============================================================================

// TestSortedBasic tests basic sorting with string keys.
func TestSortedBasic(t *testing.T) {
	items := []string{"charlie", "alpha", "bravo"}
	sorted := NewSorted(items, cmp.Compare[string])

	if len(sorted.Items()) != 3 {
		t.Errorf("expected 3 items, got %d", len(sorted.Items()))
	}

	expected := []string{"alpha", "bravo", "charlie"}
	for i, item := range sorted.Items() {
		if item != expected[i] {
			t.Errorf("Items()[%d] = %q, want %q", i, item, expected[i])
		}
	}
}

// TestSortedStable tests that equal items keep their input order.
func TestSortedStable(t *testing.T) {
	type pair struct {
		key int
		tag string
	}
	items := []pair{{2, "a"}, {1, "b"}, {2, "c"}, {1, "d"}}
	sorted := NewSorted(items, func(a, b pair) int { return cmp.Compare(a.key, b.key) })

	expected := []string{"b", "d", "a", "c"}
	for i, item := range sorted.Items() {
		if item.tag != expected[i] {
			t.Errorf("Items()[%d].tag = %q, want %q", i, item.tag, expected[i])
		}
	}
}

// TestSortedEmpty tests an empty collection.
func TestSortedEmpty(t *testing.T) {
	sorted := NewSorted([]string{}, cmp.Compare[string])

	if len(sorted.Items()) != 0 {
		t.Errorf("Items() on empty = %v, want none", sorted.Items())
	}
}

// TestSortedDoesNotMutateInput tests that input slice is not modified.
func TestSortedDoesNotMutateInput(t *testing.T) {
	original := []string{"charlie", "alpha", "bravo"}
	_ = NewSorted(original, cmp.Compare[string])

	if original[0] != "charlie" || original[1] != "alpha" || original[2] != "bravo" {
		t.Errorf("input was mutated: %v", original)
	}
}

// =============================================================================
// Section 2: Groups, Modes, Phases
// =============================================================================

func TestContentGroupSortedAndReclaim(t *testing.T) {
	g := NewContentGroup(100, "abc", []CandidateFile{
		{Path: "/z", Size: 100},
		{Path: "/a", Size: 100},
		{Path: "/m", Size: 100},
	})

	if g.Files[0].Path != "/a" || g.Files[2].Path != "/z" {
		t.Errorf("members not sorted by path: %v", g.Files)
	}
	if got := g.ReclaimBytes(); got != 200 {
		t.Errorf("ReclaimBytes() = %d, want 200", got)
	}
	if g.Label() != "abc" {
		t.Errorf("Label() = %q, want abc", g.Label())
	}
}

func TestNameGroupSizes(t *testing.T) {
	g := NameGroup{Key: "report", Files: []CandidateFile{
		{Path: "/a", Size: 30},
		{Path: "/b", Size: 50},
		{Path: "/c", Size: 20},
	}}

	if got := g.TotalSize(); got != 100 {
		t.Errorf("TotalSize() = %d, want 100", got)
	}
	if got := g.ReclaimBytes(); got != 50 {
		t.Errorf("ReclaimBytes() = %d, want 50 (largest kept)", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"name", ModeName, false},
		{"Content", ModeContent, false},
		{" content ", ModeContent, false},
		{"fuzzy", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhaseActive(t *testing.T) {
	for phase, want := range map[Phase]bool{
		PhaseIdle:        false,
		PhaseScanning:    true,
		PhaseHashing:     true,
		PhaseNeedsTuning: true,
		PhaseDone:        false,
		PhaseError:       false,
	} {
		if got := phase.Active(); got != want {
			t.Errorf("%s.Active() = %v, want %v", phase, got, want)
		}
	}
}
