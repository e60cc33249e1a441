package exclude

import (
	"os"
	"path/filepath"
	"strings"
)

// systemDirs are excluded by default: scanning them is slow and nothing in them is
// safe to trash.
var systemDirs = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
	`C:\ProgramData`,
	`C:\$Recycle.Bin`,
	`C:\Recovery`,
	`C:\PerfLogs`,
}

// oneDriveEnv lists environment variables pointing at OneDrive roots.
var oneDriveEnv = []string{"OneDrive", "OneDriveCommercial", "OneDriveConsumer"}

// Defaults returns the default exclude list: system directories plus detected
// OneDrive roots.
func Defaults() []string {
	out := make([]string, 0, len(systemDirs)+4)
	out = append(out, systemDirs...)
	return append(out, OneDrivePaths(os.Getenv, os.ReadDir)...)
}

// OneDrivePaths detects OneDrive roots from environment variables and from
// "OneDrive*" directories in the user's profile. Duplicates (case-insensitive)
// are removed, first occurrence wins.
func OneDrivePaths(getenv func(string) string, readDir func(string) ([]os.DirEntry, error)) []string {
	var paths []string
	for _, v := range oneDriveEnv {
		if p := getenv(v); p != "" {
			paths = append(paths, filepath.Clean(p))
		}
	}

	if profile := profileDir(getenv); profile != "" {
		if entries, err := readDir(profile); err == nil {
			for _, e := range entries {
				if e.IsDir() && strings.HasPrefix(strings.ToLower(e.Name()), "onedrive") {
					paths = append(paths, filepath.Join(profile, e.Name()))
				}
			}
		}
	}

	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		k := normalize(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

func profileDir(getenv func(string) string) string {
	if p := getenv("USERPROFILE"); p != "" {
		return p
	}
	if user := getenv("USERNAME"); user != "" {
		return `C:\Users\` + user
	}
	return ""
}
