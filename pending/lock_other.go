//go:build !windows

package pending

import (
	"os"

	"golang.org/x/sys/unix"
)

// openExclusive opens path and takes an advisory exclusive flock, the
// nearest non-Windows equivalent of spec.md §4.2's exclusive-write sharing
// mode, used for local development and CI builds of this otherwise
// Windows-centric core.
func openExclusive(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}
