//go:build !windows

package files

import "os"

// normalizeAttributes clears the POSIX write-protection bits Chocolatey's
// Windows read-only attribute most closely corresponds to, so local
// development and CI builds of this otherwise Windows-centric core can
// exercise the same code path.
func normalizeAttributes(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode()|0o200)
}
