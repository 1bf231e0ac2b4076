// Package pending implements the Pending Marker (spec.md §4.2): a
// per-package "operation in progress" file, optionally held under an
// exclusive OS lock for the open interval [pipeline start, pipeline end].
//
// The acquisition primitive is a scoped owning guard (Design Notes: "The
// pending file handle must be released on every exit path from the
// post-pipeline, including panics; guarantee this with a scoped acquisition
// primitive") rather than ad hoc try/finally blocks.
package pending

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/justapithecus/chocoflow/layout"
	"github.com/justapithecus/chocoflow/procstate"
	"github.com/justapithecus/chocoflow/types"
)

// MarkerFileName is the pending marker's well-known filename.
const MarkerFileName = ".chocolateyPending"

// Guard owns an acquired pending marker and its optional exclusive file
// handle. Release is idempotent and safe to call multiple times or via
// defer immediately after a successful Acquire.
type Guard struct {
	path        string
	packageName string
	handle      *os.File
	state       *procstate.ProcessState
	released    bool
}

// Marker writes and clears pending-marker files for packages under a given
// set of roots.
type Marker struct {
	roots layout.Roots
	state *procstate.ProcessState
}

// New creates a Marker.
func New(roots layout.Roots, state *procstate.ProcessState) *Marker {
	return &Marker{roots: roots, state: state}
}

// Acquire implements setPending(R, C): it rejects install locations equal
// to the protected roots (recording an error on r and returning a nil
// guard without writing), otherwise writes the marker file and, if
// lockTransactional is set, opens it with exclusive-write sharing
// disallowed and retains the handle, tagged with operationID so a handle
// still held across a crash can be traced back to the invocation that
// opened it.
func (m *Marker) Acquire(r *types.PackageResult, installLocation string, lockTransactional bool, operationID string) (*Guard, error) {
	if m.roots.IsProtectedRoot(installLocation) {
		r.AddMessage(types.MessageError, "refusing to set pending marker at a protected root: "+installLocation)
		return nil, nil
	}

	if err := os.MkdirAll(installLocation, 0o755); err != nil {
		return nil, fmt.Errorf("pending: create install location: %w", err)
	}

	path := filepath.Join(installLocation, MarkerFileName)
	if err := os.WriteFile(path, []byte(r.Name), 0o644); err != nil {
		return nil, fmt.Errorf("pending: write marker: %w", err)
	}

	guard := &Guard{path: path, packageName: r.Name, state: m.state}

	if lockTransactional {
		f, err := openExclusive(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", types.ErrLockAcquisition, err)
		}
		guard.handle = f
		if m.state != nil {
			m.state.StoreHandle(r.Name, f, operationID)
		}
	}

	return guard, nil
}

// Release implements removePending(R, C): applies the same protected-root
// guard, closes and drops the retained handle (if any), and deletes the
// marker file only when r.Success.
func (m *Marker) Release(g *Guard, r *types.PackageResult, installLocation string) error {
	if m.roots.IsProtectedRoot(installLocation) {
		r.AddMessage(types.MessageError, "refusing to clear pending marker at a protected root: "+installLocation)
		return nil
	}
	if g == nil {
		return nil
	}
	return g.Release(r.Success)
}

// Release closes the retained handle (if any) and, when success is true,
// deletes the marker file. Safe to call more than once.
func (g *Guard) Release(success bool) error {
	if g == nil || g.released {
		return nil
	}
	g.released = true

	if g.handle != nil {
		_ = g.handle.Close()
		if g.state != nil {
			g.state.TakeHandle(g.packageName)
		}
	}

	if !success {
		return nil
	}
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pending: remove marker: %w", err)
	}
	return nil
}
