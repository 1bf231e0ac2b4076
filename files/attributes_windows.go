//go:build windows

package files

import "golang.org/x/sys/windows"

// normalizeAttributes clears FILE_ATTRIBUTE_READONLY, _HIDDEN, and
// _SYSTEM on path.
func normalizeAttributes(path string) error {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}

	attrs, err := windows.GetFileAttributes(pathPtr)
	if err != nil {
		return err
	}

	cleared := attrs &^ (windows.FILE_ATTRIBUTE_READONLY | windows.FILE_ATTRIBUTE_HIDDEN | windows.FILE_ATTRIBUTE_SYSTEM)
	if cleared == attrs {
		return nil
	}
	return windows.SetFileAttributes(pathPtr, cleared)
}
