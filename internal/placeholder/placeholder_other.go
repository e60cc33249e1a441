//go:build !windows && !darwin

package placeholder

import "io/fs"

func hasRemoteAttributes(fs.FileInfo) bool { return false }
