//go:build darwin

package placeholder

import (
	"io/fs"
	"syscall"
)

// sfDataless is set on iCloud Drive files evicted to the cloud.
const sfDataless = 0x40000000

func hasRemoteAttributes(info fs.FileInfo) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return st.Flags&sfDataless != 0
}
