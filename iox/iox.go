// Package iox provides I/O helpers for resource cleanup and the
// per-file error-tolerant steps spec.md §4.5–§4.6 call for (sideload
// deletion, file capture): log and continue rather than abort the whole
// package operation over one unreadable file.
package iox

import (
	"io"
	"os"
)

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup and b.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and discards the returned error.
// Use for non-Close cleanup calls (e.g. Flush) where errors are unactionable:
//
//	defer iox.DiscardErr(w.Flush)
func DiscardErr(fn func() error) { _ = fn() }

// BestEffortRemove removes path and reports whether it existed and was
// removed. Missing paths are not an error. Callers that need to log a
// warning on failure (the per-file error tolerance spec.md §4.6 requires
// for the extensions deletion protocol) should check the returned error.
func BestEffortRemove(path string) (removed bool, err error) {
	err = os.Remove(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// BestEffortRemoveAll removes path and its children, swallowing a
// not-exist error the same way BestEffortRemove does.
func BestEffortRemoveAll(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(path)
}
