//go:build windows

package fileops

import (
	"syscall"
	"unsafe"
)

// shFileOperation mirrors the SHFILEOPSTRUCTW layout used by
// SHFileOperationW, the same shell32 entry point Explorer's own
// "Delete" uses, so a trashed file lands in the Recycle Bin and stays
// restorable exactly like a manual delete.
type shFileOperation struct {
	hwnd                  uintptr
	wFunc                 uint32
	pFrom                 *uint16
	pTo                   *uint16
	fFlags                uint16
	fAnyOperationsAborted int32
	hNameMappings         uintptr
	lpszProgressTitle     *uint16
}

const (
	foDelete        = 0x0003
	fofAllowUndo    = 0x0040
	fofNoConfirm    = 0x0010
	fofSilent       = 0x0004
	fofNoErrorUI    = 0x0400
)

var (
	modshell32           = syscall.NewLazyDLL("shell32.dll")
	procSHFileOperationW = modshell32.NewProc("SHFileOperationW")
)

// trashFile sends path to the Windows Recycle Bin via SHFileOperationW
// with FOF_ALLOWUNDO, per spec §4.8 ("sends files to the OS recycle
// facility (platform-specific)").
func trashFile(path string) error {
	// pFrom must be double-null-terminated.
	from, err := syscall.UTF16FromString(path)
	if err != nil {
		return err
	}
	from = append(from, 0)

	op := shFileOperation{
		wFunc:  foDelete,
		pFrom:  &from[0],
		fFlags: fofAllowUndo | fofNoConfirm | fofSilent | fofNoErrorUI,
	}

	ret, _, _ := procSHFileOperationW.Call(uintptr(unsafe.Pointer(&op)))
	if ret != 0 {
		return syscall.Errno(ret)
	}
	return nil
}
