// Package procstate makes the process-wide mutable state spec.md §5 and
// the "Global mutable state → explicit" Design Note call out an explicit,
// injectable collaborator rather than package-level globals: the
// pending-lock map, process environment variable writes, and the process
// exit code. Tests construct their own ProcessState to observe writes
// deterministically.
package procstate

import (
	"os"
	"strings"
	"sync"
)

// ProcessState is the single process-wide mutable state the coordinator
// touches. Exactly one writer (the coordinator) owns the lock map; lookups
// happen only from pending.Guard.Release.
type ProcessState struct {
	mu       sync.Mutex
	handles  map[string]handleEntry
	exitCode int
}

// handleEntry pairs a retained lock handle with the operation ID of the
// invocation that acquired it, so a lock held across a crash can still be
// traced back to the command run that opened it.
type handleEntry struct {
	handle      any
	operationID string
}

// New creates an empty ProcessState.
func New() *ProcessState {
	return &ProcessState{handles: make(map[string]handleEntry)}
}

// StoreHandle retains an opaque lock handle under the lowercased package
// name, per spec.md §4.2 ("retains the handle in a process-local map keyed
// by lowercased package name"), alongside the operationID of the
// invocation that acquired it.
func (p *ProcessState) StoreHandle(packageName string, handle any, operationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handles[strings.ToLower(packageName)] = handleEntry{handle: handle, operationID: operationID}
}

// TakeHandle removes and returns the retained handle and its companion
// operation ID for packageName, if any.
func (p *ProcessState) TakeHandle(packageName string) (handle any, operationID string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := strings.ToLower(packageName)
	e, found := p.handles[key]
	if found {
		delete(p.handles, key)
	}
	return e.handle, e.operationID, found
}

// SetEnv sets a process environment variable. Child processes (the
// scripting host, shutdown /a) inherit process environment, so this is
// intentionally process-wide per spec.md §5 "Shared resources".
func (p *ProcessState) SetEnv(key, value string) error {
	return os.Setenv(key, value)
}

// GetEnv reads a process environment variable.
func (p *ProcessState) GetEnv(key string) string {
	return os.Getenv(key)
}

// UnsetEnv clears a process environment variable, used by the coordinator's
// resetEnvironment step so per-package variables from a prior package in
// the same invocation never leak into the next (spec.md §4.5 step 1).
func (p *ProcessState) UnsetEnv(key string) error {
	return os.Unsetenv(key)
}

// SetExitCode records the process exit code. Later calls only raise the
// code, never lower it back to 0 — spec.md §4.7 "Ensures ExitCode ≠ 0" and
// §4.8 "set the process exit code to 1 when previously 0" both describe a
// monotonic ratchet, never silently clearing a prior failure code.
func (p *ProcessState) SetExitCode(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if code > p.exitCode {
		p.exitCode = code
	}
}

// ExitCode returns the current process exit code.
func (p *ProcessState) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}
