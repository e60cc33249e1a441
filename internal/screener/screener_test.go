package screener

import (
	"slices"
	"testing"

	"github.com/ivoronin/dupehound/internal/types"
)

// =============================================================================
// Section 4.1: Core Screener Tests
// =============================================================================

// TestScreenerSizeGrouping tests that files are bucketed by size.
func TestScreenerSizeGrouping(t *testing.T) {
	files := []types.CandidateFile{
		{Path: "/a.txt", Size: 100},
		{Path: "/b.txt", Size: 100},
		{Path: "/c.txt", Size: 200}, // Different size
	}

	buckets := New(slices.Values(files)).Run()

	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Size != 100 || len(buckets[0].Files) != 2 {
		t.Errorf("bucket = %+v, want size 100 with 2 files", buckets[0])
	}
}

// TestScreenerOrder tests first-seen bucket order and walk order within buckets.
func TestScreenerOrder(t *testing.T) {
	files := []types.CandidateFile{
		{Path: "/1", Size: 300},
		{Path: "/2", Size: 100},
		{Path: "/3", Size: 300},
		{Path: "/4", Size: 100},
		{Path: "/5", Size: 300},
	}

	buckets := New(slices.Values(files)).Run()

	if len(buckets) != 2 || buckets[0].Size != 300 || buckets[1].Size != 100 {
		t.Fatalf("unexpected bucket order: %+v", buckets)
	}
	var got []string
	for _, f := range buckets[0].Files {
		got = append(got, f.Path)
	}
	if !slices.Equal(got, []string{"/1", "/3", "/5"}) {
		t.Errorf("bucket members = %v, want walk order", got)
	}
	if Total(buckets) != 5 {
		t.Errorf("Total() = %d, want 5", Total(buckets))
	}
}

// =============================================================================
// Section 4.2: Screener Edge Cases
// =============================================================================

// TestScreenerEmptyInput tests behavior with empty input.
func TestScreenerEmptyInput(t *testing.T) {
	s := New(slices.Values([]types.CandidateFile{}))
	if buckets := s.Run(); len(buckets) != 0 {
		t.Errorf("expected 0 buckets for empty input, got %d", len(buckets))
	}
	if s.Stats().InputFiles != 0 {
		t.Errorf("InputFiles = %d, want 0", s.Stats().InputFiles)
	}
}

// TestScreenerAllUniqueSizes tests that all unique sizes yield no buckets.
func TestScreenerAllUniqueSizes(t *testing.T) {
	files := []types.CandidateFile{
		{Path: "/a.txt", Size: 100},
		{Path: "/b.txt", Size: 200},
		{Path: "/c.txt", Size: 300},
	}

	s := New(slices.Values(files))
	if buckets := s.Run(); len(buckets) != 0 {
		t.Errorf("expected 0 buckets, got %d", len(buckets))
	}
	if s.Stats().InputFiles != 3 || s.Stats().CandidateFiles != 0 {
		t.Errorf("stats = %+v", s.Stats())
	}
}

// TestScreenerStats tests candidate accounting.
func TestScreenerStats(t *testing.T) {
	files := []types.CandidateFile{
		{Path: "/a", Size: 10},
		{Path: "/b", Size: 10},
		{Path: "/c", Size: 10},
		{Path: "/d", Size: 7},
	}

	s := New(slices.Values(files))
	s.Run()

	st := s.Stats()
	if st.CandidateFiles != 3 || st.CandidateBytes != 30 || st.Buckets != 1 {
		t.Errorf("stats = %+v, want 3 files, 30 bytes, 1 bucket", st)
	}
	if st.String() == "" {
		t.Error("String() should not be empty")
	}
}
