package coordinator

import (
	"context"
	"fmt"
	"os"

	"github.com/justapithecus/chocoflow/failure"
	"github.com/justapithecus/chocoflow/iox"
	"github.com/justapithecus/chocoflow/sideload"
	"github.com/justapithecus/chocoflow/types"
)

// UninstallPostPipeline runs the uninstall pipeline (spec.md §4.5,
// "Uninstall pipeline" paragraph) for one package. It is passed to
// source.Runner.UninstallRun as the PerPackageCallback.
//
// It always returns a non-nil error when r.Success is false at the end of
// the pipeline, so the calling source runner halts the remainder of its
// package removal — the one pipeline where a per-package failure is
// unconditionally fatal to the command, not just gated by
// StopOnFirstPackageFailure.
func (co *Coordinator) UninstallPostPipeline(ctx context.Context, r *types.PackageResult, cfg *types.Configuration) error {
	co.resetEnvironment()

	guard, err := co.pending.Acquire(r, r.InstallLocation, cfg.Features.LockTransactionalInstallFiles, cfg.OperationID)
	if err != nil {
		return fmt.Errorf("coordinator: acquire pending marker for %s: %w", r.Name, err)
	}

	if _, statErr := os.Stat(r.InstallLocation); os.IsNotExist(statErr) && r.Metadata.Version != "" {
		r.InstallLocation = r.InstallLocation + "." + r.Metadata.Version
	}

	if err := co.shims.Uninstall(ctx, r, cfg, co.roots.ShimRoot); err != nil {
		r.AddMessage(types.MessageWarning, "shim uninstall: "+err.Error())
	}

	if !cfg.Features.SkipPackageInstallProvider {
		if _, err := co.scriptHost.Uninstall(ctx, cfg, r); err != nil {
			co.metrics.IncScriptHostLaunchFailure()
			r.AddMessage(types.MessageWarning, "scripting host uninstall: "+err.Error())
		} else {
			co.metrics.IncScriptHostLaunchSuccess()
		}
	}

	if r.Success {
		if err := co.autoUninstaller.Run(ctx, r, cfg); err != nil {
			r.AddMessage(types.MessageWarning, "auto-uninstaller: "+err.Error())
		}
	}

	if cfg.Platform.IsWindows {
		cancelPendingShutdown(ctx)
	}

	if r.Success {
		co.uninstallCleanup(ctx, r, cfg)
	} else {
		if err := co.failure.Handle(ctx, r, cfg, failure.Options{Move: false, Rollback: false}); err != nil {
			r.AddMessage(types.MessageWarning, "failure handler: "+err.Error())
		}
	}

	co.publishCompleted(ctx, cfg.CommandName, r)
	if err := co.pending.Release(guard, r, r.InstallLocation); err != nil {
		r.AddMessage(types.MessageWarning, "release pending marker: "+err.Error())
	}

	if r.RebootCode() && cfg.Features.ExitOnRebootDetected {
		co.state.SetExitCode(types.ExitCodeInstallSuspend)
		return fmt.Errorf("%s: %w", r.Name, types.ErrRebootRequired)
	}

	if !r.Success {
		co.state.SetExitCode(types.ExitCodeGenericFailure)
		return fmt.Errorf("coordinator: uninstall %s failed: %s", r.Name, r.FirstMessage(types.MessageError))
	}

	return nil
}

// uninstallCleanup implements the "On success" branch of the uninstall
// pipeline paragraph: drop the durable record if configured, clean the
// failure-quarantine path, remove any rollback snapshot, unlink a sideload
// stage, and force-delete the package directory when requested.
func (co *Coordinator) uninstallCleanup(ctx context.Context, r *types.PackageResult, cfg *types.Configuration) {
	if cfg.Features.RemovePackageInformationOnUninstall {
		if err := co.packageInfo.Remove(ctx, r.Metadata); err != nil {
			r.AddMessage(types.MessageWarning, "remove package info: "+err.Error())
		}
	}

	co.ensureBadPackagePathClean(r)

	if err := failure.ClearRollbackDirectory(co.roots, r.Name); err != nil {
		r.AddMessage(types.MessageWarning, "clear rollback directory: "+err.Error())
	}

	if sideload.Applies(r.Name) {
		if err := co.sideload.Run(ctx, r, cfg, r.InstallLocation); err != nil {
			co.metrics.IncSideloadInstallFailure()
			r.AddMessage(types.MessageWarning, "sideload unlink: "+err.Error())
		} else {
			co.metrics.IncSideloadInstallSuccess()
		}
	}

	if cfg.Features.Force && !co.roots.IsProtectedRoot(r.InstallLocation) {
		if err := iox.BestEffortRemoveAll(r.InstallLocation); err != nil {
			r.AddMessage(types.MessageWarning, "force-delete package directory: "+err.Error())
		}
	}
}
