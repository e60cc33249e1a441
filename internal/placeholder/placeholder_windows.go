//go:build windows

package placeholder

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/windows"
)

// remoteAttributes mark OneDrive/Files-On-Demand style stubs.
const remoteAttributes = windows.FILE_ATTRIBUTE_OFFLINE |
	windows.FILE_ATTRIBUTE_RECALL_ON_OPEN |
	windows.FILE_ATTRIBUTE_RECALL_ON_DATA_ACCESS

func hasRemoteAttributes(info fs.FileInfo) bool {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return false
	}
	return attrs.FileAttributes&remoteAttributes != 0
}
