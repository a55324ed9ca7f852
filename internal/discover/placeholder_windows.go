//go:build windows

package discover

import (
	"os"

	"golang.org/x/sys/windows"
)

// isCloudPlaceholder reports whether path is a dataless cloud-sync
// stub. On Windows this is the FILE_ATTRIBUTE_RECALL_ON_DATA_ACCESS /
// FILE_ATTRIBUTE_OFFLINE bit OneDrive and similar clients set on
// not-yet-downloaded files, per spec §4.2's "dataless file flag"
// signal; a reported size of zero is kept as a fallback for sync
// clients that don't set the attribute.
func isCloudPlaceholder(path string, info os.FileInfo) bool {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return info.Size() == 0
	}
	attrs, err := windows.GetFileAttributes(pathPtr)
	if err != nil {
		return info.Size() == 0
	}
	const recallOnDataAccess = 0x00400000
	const offline = 0x00001000
	if attrs&(recallOnDataAccess|offline) != 0 {
		return true
	}
	return info.Size() == 0
}
