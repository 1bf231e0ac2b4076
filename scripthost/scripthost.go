// Package scripthost implements the ScriptingHost (spec.md §6): the
// process that actually runs a package's embedded PowerShell lifecycle
// scripts (chocolateyInstall.ps1, chocolateyUninstall.ps1,
// chocolateyBeforeModify.ps1). The core only needs to know whether a
// script ran and what exit code it produced; the script's own effects are
// an external collaborator's concern (spec.md §1: "it does not execute
// embedded scripts" — that's this package's job, on the coordinator's
// behalf, not the coordinator's own).
package scripthost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/justapithecus/chocoflow/scripthost/bundle"
	"github.com/justapithecus/chocoflow/types"
)

const (
	installScript       = "chocolateyInstall.ps1"
	uninstallScript      = "chocolateyUninstall.ps1"
	beforeModifyScript   = "chocolateyBeforeModify.ps1"
	systemPowershellExe  = "powershell.exe"
	portablePowershellExe = "pwsh"
)

// Host invokes a package's lifecycle scripts through the bootstrap harness.
type Host struct {
	bootstrapDir string
}

// New prepares a Host, materializing the embedded bootstrap harness into
// dir (a scratch directory the caller owns, typically the cache location).
func New(dir string) (*Host, error) {
	path := filepath.Join(dir, "bootstrap.ps1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scripthost: prepare bootstrap dir: %w", err)
	}
	if err := os.WriteFile(path, bundle.Bootstrap, 0o644); err != nil {
		return nil, fmt.Errorf("scripthost: write bootstrap: %w", err)
	}
	return &Host{bootstrapDir: dir}, nil
}

// Install runs chocolateyInstall.ps1 under r.InstallLocation/tools, if
// present. Returns whether it ran.
func (h *Host) Install(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return h.run(ctx, installScript, cfg, r)
}

// Uninstall runs chocolateyUninstall.ps1, if present.
func (h *Host) Uninstall(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return h.run(ctx, uninstallScript, cfg, r)
}

// BeforeModify runs chocolateyBeforeModify.ps1 ahead of an upgrade or
// uninstall, if present.
func (h *Host) BeforeModify(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return h.run(ctx, beforeModifyScript, cfg, r)
}

// InstallNoop and UninstallNoop report a script would have
// run without actually running it (--whatif / noop dispatch paths).
func (h *Host) InstallNoop(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return h.scriptExists(installScript, r), nil
}

func (h *Host) UninstallNoop(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return h.scriptExists(uninstallScript, r), nil
}

func (h *Host) scriptExists(name string, r *types.PackageResult) bool {
	_, err := os.Stat(filepath.Join(r.InstallLocation, "tools", name))
	return err == nil
}

func (h *Host) run(ctx context.Context, scriptName string, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	scriptPath := filepath.Join(r.InstallLocation, "tools", scriptName)
	if !h.scriptExists(scriptName, r) {
		return false, nil
	}

	exePath := portablePowershellExe
	if cfg.Features.UseSystemPowershell {
		exePath = systemPowershellExe
	}

	cmd := exec.CommandContext(ctx, exePath, "-NonInteractive", "-File", filepath.Join(h.bootstrapDir, "bootstrap.ps1"), scriptPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return true, fmt.Errorf("scripthost: stdin pipe: %w", err)
	}

	input := struct {
		Configuration *types.Configuration `json:"configuration"`
		Result        *types.PackageResult `json:"result"`
	}{Configuration: cfg, Result: r}

	stderrBuf, err := cmd.StderrPipe()
	if err != nil {
		return true, fmt.Errorf("scripthost: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return true, fmt.Errorf("scripthost: start %s: %w", scriptName, err)
	}

	if encodeErr := json.NewEncoder(stdin).Encode(input); encodeErr != nil {
		_ = cmd.Process.Kill()
		return true, fmt.Errorf("scripthost: write input: %w", encodeErr)
	}
	_ = stdin.Close()

	stderrBytes, _ := io.ReadAll(stderrBuf)

	exitCode, waitErr := waitExitCode(cmd)
	if waitErr != nil {
		return true, fmt.Errorf("scripthost: %s: %w", scriptName, waitErr)
	}

	if exitCode != 0 {
		r.AddMessage(types.MessageError, fmt.Sprintf("%s exited %d: %s", scriptName, exitCode, string(stderrBytes)))
	}

	return true, nil
}

func waitExitCode(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus(), nil
		}
		return -1, nil
	}
	return -1, err
}
