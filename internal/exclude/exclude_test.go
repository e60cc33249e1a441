//go:build unix

package exclude

import (
	"errors"
	"os"
	"testing"
	"testing/fstest"
)

func TestExcludedPrefix(t *testing.T) {
	m := New([]string{"/data/Skip", "/tmp/"})

	tests := []struct {
		path string
		want bool
	}{
		{"/data/skip", true},
		{"/data/SKIP/nested/file.bin", true},
		{"/data/skipper/file.bin", false}, // Boundary-aware
		{"/data/keep/file.bin", false},
		{"/tmp", true},
		{"/tmp/x", true},
		{"/data/skip/../keep", false}, // Cleaned before matching
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := m.Excluded(tt.path); got != tt.want {
				t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExcludedRootPrefix(t *testing.T) {
	m := New([]string{"/"})
	if !m.Excluded("/anything/below") {
		t.Error("root exclude should exclude everything")
	}
}

func TestExcludedGlob(t *testing.T) {
	m := New([]string{"**/node_modules", "*.PARTIAL"})

	tests := []struct {
		path string
		want bool
	}{
		{"/src/app/node_modules", true},
		{"/src/app/node_modules_backup", false},
		{"/downloads/movie.partial", true},
		{"/downloads/movie.mkv", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := m.Excluded(tt.path); got != tt.want {
				t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExcludedEmpty(t *testing.T) {
	var nilMatcher *Matcher
	if nilMatcher.Excluded("/a") {
		t.Error("nil matcher should exclude nothing")
	}
	m := New([]string{"", "   "})
	if m.Len() != 0 {
		t.Errorf("blank entries should be ignored, Len() = %d", m.Len())
	}
	if m.Excluded("/a") {
		t.Error("empty matcher should exclude nothing")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]string{"/plain/path", "**/*.tmp"}); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	err := Validate([]string{"[unclosed"})
	var perr *PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("Validate() error = %v, want *PatternError", err)
	}
	if perr.Pattern != "[unclosed" {
		t.Errorf("PatternError.Pattern = %q", perr.Pattern)
	}
}

func TestOneDrivePaths(t *testing.T) {
	env := map[string]string{
		"OneDrive":           "/home/u/OneDrive",
		"OneDriveConsumer":   "/home/u/onedrive", // Same as above, case-insensitive
		"USERPROFILE":        "/home/u",
		"OneDriveCommercial": "",
	}
	profile := fstest.MapFS{
		"OneDrive - Work/doc.txt": {Data: []byte("x")},
		"Documents/doc.txt":       {Data: []byte("x")},
		"onedrive.txt":            {Data: []byte("not a dir")},
	}
	readDir := func(dir string) ([]os.DirEntry, error) {
		if dir != "/home/u" {
			return nil, os.ErrNotExist
		}
		return profile.ReadDir(".")
	}

	got := OneDrivePaths(func(k string) string { return env[k] }, readDir)

	want := []string{"/home/u/OneDrive", "/home/u/OneDrive - Work"}
	if len(got) != len(want) {
		t.Fatalf("OneDrivePaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OneDrivePaths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefaultsIncludeSystemDirs(t *testing.T) {
	defaults := Defaults()
	if len(defaults) < len(systemDirs) {
		t.Fatalf("Defaults() returned %d entries, want at least %d", len(defaults), len(systemDirs))
	}
	for i, dir := range systemDirs {
		if defaults[i] != dir {
			t.Errorf("Defaults()[%d] = %q, want %q", i, defaults[i], dir)
		}
	}
}
