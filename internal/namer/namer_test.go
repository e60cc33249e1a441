package namer

import (
	"slices"
	"testing"

	"github.com/ivoronin/dupehound/internal/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		path      string
		ignoreExt bool
		want      string
	}{
		{"/photos/20230415-1230_Vacation Photo.jpg", true, "vacation photo"},
		{"/photos/20230415_Vacation_Photo.JPG", true, "vacation photo"},
		{"/photos/20230415_Vacation_Photo.JPG", false, "vacation photo jpg"},
		{"/a/20240101-0800_report.pdf", true, "report"},
		{"/b/report.pdf", true, "report"},
		{"/x/202401010800report.pdf", true, "report"},
		{"/x/20240101 0800 - report.pdf", true, "report"},
		{"/x/1234567_report.pdf", true, "1234567 report"}, // Seven digits: not a stamp
		{"/x/20240101.pdf", true, ""},
		{"/x/my--file__name...v2.txt", true, "my file name v2"},
		{"/x/  spaced   out  .txt", true, "spaced out"},
		{"/x/.bashrc", true, "bashrc"}, // Leading dot is not an extension
		{"/x/archive.tar.gz", true, "archive tar"},
		{"/x/STRASSE.doc", true, "strasse"},
		{"/x/20240101-0800_Report.PDF", false, "report pdf"},
		{"/x/vacation\u00a0photo.jpg", true, "vacation photo"},  // No-break space
		{"/x/vacation\u3000 photo.jpg", true, "vacation photo"}, // Ideographic space
		{"/x/\u0662\u0660\u0662\u0664\u0660\u0661\u0660\u0661_report.pdf", true, "report"}, // Arabic-Indic stamp
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Normalize(tt.path, tt.ignoreExt); got != tt.want {
				t.Errorf("Normalize(%q, %v) = %q, want %q", tt.path, tt.ignoreExt, got, tt.want)
			}
		})
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	a := Normalize("20230415-1230_Vacation Photo.jpg", true)
	b := Normalize("20230415_Vacation_Photo.JPG", true)
	if a != b {
		t.Errorf("expected equal keys, got %q and %q", a, b)
	}
}

func TestGroup(t *testing.T) {
	files := []types.CandidateFile{
		{Path: "/a/20240101-0800_report.pdf", Size: 10},
		{Path: "/z/notes.txt", Size: 5},
		{Path: "/b/report.pdf", Size: 10},
		{Path: "/c/Report.docx", Size: 7},
	}

	groups := NewGrouper(true).Group(slices.Values(files))

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}
	if groups[0].Key != "report" || groups[0].Len() != 3 {
		t.Errorf("first group = %q with %d members, want report with 3", groups[0].Key, groups[0].Len())
	}
	// Walk order preserved
	want := []string{"/a/20240101-0800_report.pdf", "/b/report.pdf", "/c/Report.docx"}
	for i, f := range groups[0].Files {
		if f.Path != want[i] {
			t.Errorf("member %d = %q, want %q", i, f.Path, want[i])
		}
	}
	if groups[1].Key != "notes" || groups[1].Len() != 1 {
		t.Errorf("second group = %q with %d members, want notes with 1", groups[1].Key, groups[1].Len())
	}
}

func TestGroupKeepExtension(t *testing.T) {
	files := []types.CandidateFile{
		{Path: "/a/report.pdf"},
		{Path: "/b/report.docx"},
	}

	groups := NewGrouper(false).Group(slices.Values(files))
	if len(groups) != 2 {
		t.Errorf("expected extensions to separate groups, got %d groups", len(groups))
	}
}
