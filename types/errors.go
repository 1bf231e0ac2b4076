package types

import "errors"

// Sentinel errors for the fatal conditions spec.md §7 and §5 ("Cancellation")
// name. Callers match them with errors.Is; the coordinator does so to stop
// its per-package loop. The CLI takes the process exit code from
// Coordinator.ExitCode and the summary's failure count, not from these.
var (
	// ErrRebootRequired is raised when a package's exit code signals a
	// pending reboot and ExitOnRebootDetected is set.
	ErrRebootRequired = errors.New("reboot required")

	// ErrStopOnFirstFailure is raised when StopOnFirstPackageFailure aborts
	// the remainder of a command's per-package sequence.
	ErrStopOnFirstFailure = errors.New("stopping on first package failure")

	// ErrListDocumentMissing is raised when a *.config list-document entry
	// cannot be located on disk.
	ErrListDocumentMissing = errors.New("list document not found")

	// ErrListDocumentInCommand is raised when a *.config entry is supplied
	// to upgrade or uninstall, which do not accept list documents.
	ErrListDocumentInCommand = errors.New("list document not supported for this command")

	// ErrLockAcquisition is raised when the Pending Marker cannot acquire
	// its exclusive lock.
	ErrLockAcquisition = errors.New("failed to acquire pending lock")

	// ErrNoSources is raised when a command names no resolvable source.
	ErrNoSources = errors.New("no sources configured")

	// ErrInvalidPackageName is raised by the Name Validator.
	ErrInvalidPackageName = errors.New("invalid package name")

	// ErrUnknownSourceType marks a dispatch miss. It is never fatal on its
	// own — the Source Dispatcher logs it as a warning and returns a no-op
	// result (spec.md §4.4, §7 "Runner errors") — but is named here so
	// callers can recognize the condition via errors.Is rather than string
	// matching a log line.
	ErrUnknownSourceType = errors.New("unknown source type")
)
