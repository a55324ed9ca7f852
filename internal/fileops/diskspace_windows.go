//go:build windows

package fileops

import "golang.org/x/sys/windows"

// getFreeSpace returns available disk space at path, the same
// GetDiskFreeSpaceEx call the teacher's diskspace_windows.go makes.
func getFreeSpace(path string) (uint64, error) {
	var freeBytesAvailable, totalNumberOfBytes, totalNumberOfFreeBytes uint64

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}

	err = windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalNumberOfBytes, &totalNumberOfFreeBytes)
	if err != nil {
		return 0, err
	}

	return freeBytesAvailable, nil
}
