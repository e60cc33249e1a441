// Package placeholder detects cloud placeholder files: entries whose content lives
// remotely and would be downloaded if read.
//
// Detection only inspects metadata already returned by lstat, so the check itself
// never triggers a download. It fails open: if attributes are missing or cannot be
// read, the file is treated as local.
package placeholder

import "io/fs"

// Func reports whether info describes a placeholder.
type Func func(info fs.FileInfo) bool

// IsPlaceholder reports whether info carries remote-only storage markers.
func IsPlaceholder(info fs.FileInfo) bool {
	if info == nil || info.Sys() == nil {
		return false
	}
	return hasRemoteAttributes(info)
}
