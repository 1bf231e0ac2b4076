// Package failure implements the Failure Handler (spec.md §4.7): on any
// package operation failure it ensures a non-zero exit code, optionally
// quarantines the install directory under the package-failures root, and
// optionally rolls back from a package-backup snapshot.
package failure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/justapithecus/chocoflow/iox"
	"github.com/justapithecus/chocoflow/layout"
	"github.com/justapithecus/chocoflow/log"
	"github.com/justapithecus/chocoflow/types"
)

// userCancelExitCodes suppress the rollback confirmation prompt — the user
// already made their intent clear by cancelling the underlying installer.
var userCancelExitCodes = map[int]bool{1602: true, 15608: true}

// Prompt is the InteractivePrompt collaborator (spec.md §6), narrowed to
// the single yes/no confirmation the Failure Handler needs.
type Prompt interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Options controls which remediation steps Handle performs.
type Options struct {
	Move     bool
	Rollback bool
}

// Handler runs the failure remediation steps for one package result.
type Handler struct {
	roots  layout.Roots
	logger *log.Logger
	prompt Prompt
}

// New builds a Handler. prompt may be nil, in which case rollback proceeds
// without asking for confirmation.
func New(roots layout.Roots, logger *log.Logger, prompt Prompt) *Handler {
	return &Handler{roots: roots, logger: logger, prompt: prompt}
}

// Handle ensures r.ExitCode is non-zero, logs every error-kind message on
// r, and performs the requested move/rollback steps unless r.InstallLocation
// is a protected root.
func (h *Handler) Handle(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, opts Options) error {
	if r.ExitCode == 0 {
		r.ExitCode = 1
	}

	for _, m := range r.Messages {
		if m.Kind == types.MessageError && h.logger != nil {
			h.logger.Error(m.Text, map[string]any{"package": r.Name})
		}
	}

	if h.roots.IsProtectedRoot(r.InstallLocation) {
		r.AddMessage(types.MessageError, "install location is a protected root; clean up manually: "+r.InstallLocation)
		return nil
	}

	var errs error
	if opts.Move {
		if err := h.moveToFailures(r); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if opts.Rollback {
		if err := h.rollback(ctx, r, cfg); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (h *Handler) moveToFailures(r *types.PackageResult) error {
	rel, err := filepath.Rel(h.roots.PackagesRoot, r.InstallLocation)
	if err != nil {
		return fmt.Errorf("failure: relative path to packages root: %w", err)
	}

	dst := filepath.Join(h.roots.PackageFailuresRoot, rel)
	if _, err := os.Stat(r.InstallLocation); os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failure: prepare package-failures dir: %w", err)
	}
	_ = iox.BestEffortRemoveAll(dst)
	if err := os.Rename(r.InstallLocation, dst); err != nil {
		return fmt.Errorf("failure: move to package-failures: %w", err)
	}
	return nil
}

func (h *Handler) rollback(ctx context.Context, r *types.PackageResult, cfg *types.Configuration) error {
	backupDir, ok := h.findBackupDir(r.Name)
	if !ok {
		return nil
	}

	confirmed := true
	if !userCancelExitCodes[r.ExitCode] && cfg.Features.PromptForConfirmation && h.prompt != nil {
		ok, err := h.prompt.Confirm(ctx, fmt.Sprintf("Restore %s from backup?", r.Name))
		if err != nil {
			return fmt.Errorf("failure: rollback confirmation: %w", err)
		}
		confirmed = ok
	}

	if confirmed {
		if err := os.MkdirAll(filepath.Dir(r.InstallLocation), 0o755); err != nil {
			return fmt.Errorf("failure: prepare rollback destination: %w", err)
		}
		_ = iox.BestEffortRemoveAll(r.InstallLocation)
		if err := os.Rename(backupDir, r.InstallLocation); err != nil {
			return fmt.Errorf("failure: restore from backup: %w", err)
		}
	}

	return ClearRollbackDirectory(h.roots, r.Name)
}

// findBackupDir locates the backup snapshot for name: the exact mirror
// path under the backup root if present, else the lexicographically
// greatest "<name>*" sibling. The chosen path must sit strictly inside the
// backup root — defense against a crafted sibling name escaping it.
func (h *Handler) findBackupDir(name string) (string, bool) {
	backupRoot := filepath.Clean(h.roots.PackageBackupRoot)
	mirror := filepath.Join(backupRoot, name)
	if fi, err := os.Stat(mirror); err == nil && fi.IsDir() {
		return mirror, true
	}

	matches, err := filepath.Glob(filepath.Join(backupRoot, name+"*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	chosen := filepath.Clean(matches[len(matches)-1])

	if chosen == backupRoot || !strings.HasPrefix(chosen, backupRoot+string(filepath.Separator)) {
		return "", false
	}
	if fi, err := os.Stat(chosen); err != nil || !fi.IsDir() {
		return "", false
	}
	return chosen, true
}

// ClearRollbackDirectory removes any remaining package-backup entries for
// name — called both after a completed rollback and, on a successful
// install (spec.md §4.5 step 15), to drop a now-irrelevant backup.
func ClearRollbackDirectory(roots layout.Roots, name string) error {
	matches, err := filepath.Glob(filepath.Join(roots.PackageBackupRoot, name+"*"))
	if err != nil {
		return err
	}
	var errs error
	for _, m := range matches {
		if err := iox.BestEffortRemoveAll(m); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
