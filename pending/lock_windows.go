//go:build windows

package pending

import (
	"os"

	"golang.org/x/sys/windows"
)

// openExclusive opens path with no sharing permitted for write — any other
// handle attempting to open it for write fails, per spec.md §4.2 "opens the
// file with exclusive-write sharing disallowed".
func openExclusive(path string) (*os.File, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ, // no FILE_SHARE_WRITE: exclusive-write
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, err
	}

	return os.NewFile(uintptr(handle), path), nil
}
