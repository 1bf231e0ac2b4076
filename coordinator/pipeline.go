package coordinator

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/justapithecus/chocoflow/eventbus"
	"github.com/justapithecus/chocoflow/failure"
	"github.com/justapithecus/chocoflow/iox"
	"github.com/justapithecus/chocoflow/log"
	"github.com/justapithecus/chocoflow/sideload"
	"github.com/justapithecus/chocoflow/state"
	"github.com/justapithecus/chocoflow/types"
)

// Process environment variable names the coordinator reads and writes, per
// spec.md §6 "Environment variables read/written".
const (
	envToolsLocation   = "ChocolateyToolsLocation"
	envInstallLocation = "ChocolateyPackageInstallLocation"
	envInstallerType   = "ChocolateyPackageInstallerType"
)

type base64ArgumentsEncoder struct{}

func (base64ArgumentsEncoder) Encode(plaintext string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

// PostPipeline runs the install/upgrade post-pipeline (spec.md §4.5, steps
// 1-15) for one materialized package. It is passed to source.Runner as the
// PerPackageCallback; runners invoke it once per package before advancing
// to the next one.
func (co *Coordinator) PostPipeline(ctx context.Context, r *types.PackageResult, cfg *types.Configuration) error {
	// Step 1: resetEnvironment(C).
	co.resetEnvironment()

	// Step 2: setPending(R, C).
	guard, err := co.pending.Acquire(r, r.InstallLocation, cfg.Features.LockTransactionalInstallFiles, cfg.OperationID)
	if err != nil {
		return fmt.Errorf("coordinator: acquire pending marker for %s: %w", r.Name, err)
	}
	// Release is idempotent, so this deferred call only takes effect on a
	// return before step 12's release, or on a panic.
	if guard != nil {
		defer func() { _ = co.pending.Release(guard, r, r.InstallLocation) }()
	}

	// Step 3: log success/failure banner.
	co.logBanner(r)

	// Step 4: load I.
	info, ok, err := co.packageInfo.Get(ctx, r.Metadata)
	if err != nil {
		co.metrics.IncPackageInfoWriteFailure()
		return fmt.Errorf("coordinator: load package info for %s: %w", r.Name, err)
	}
	if !ok {
		info = types.PackageInformation{Metadata: r.Metadata}
	}
	if cfg.Features.AllowMultipleVersions {
		info.IsSideBySide = true
	}

	scriptHostRan := false
	var installerDiff types.RegistrySnapshot

	// Steps 5, 7, 8 are Windows-only (step 9).
	if r.Success && cfg.Platform.IsWindows && !cfg.Features.SkipPackageInstallProvider {
		scriptHostRan, installerDiff = co.runScriptingHostInstall(ctx, r, cfg, &info)
	}

	// Step 6: file normalization, config transform, capture. On Windows
	// this always runs; off Windows it runs only when R.success (step 9).
	if cfg.Platform.IsWindows || r.Success {
		if err := co.files.NormalizeAttributes(r, cfg); err != nil {
			r.AddMessage(types.MessageWarning, "normalize attributes: "+err.Error())
		}
		if err := co.configXform.Run(ctx, r, cfg); err != nil {
			r.AddMessage(types.MessageWarning, "config transform: "+err.Error())
		}
		snapshot, err := co.files.Capture(r, cfg)
		if err != nil {
			r.AddMessage(types.MessageWarning, "capture files: "+err.Error())
		}
		info.FilesSnapshot = &snapshot
	}

	if cfg.Platform.IsWindows {
		// Step 7: architecture ignore rule.
		ignore, err := applyArchitectureIgnoreRule(r.InstallLocation, cfg.Platform)
		if err != nil {
			r.AddMessage(types.MessageWarning, "architecture ignore rule: "+err.Error())
			ignore = func(string) bool { return false }
		}

		// Step 8: shim generation.
		if err := co.shims.Install(ctx, r, cfg, co.roots.ShimRoot, ignore); err != nil {
			r.AddMessage(types.MessageWarning, "shim install: "+err.Error())
		}
	}

	// Step 10: sideload handling, argument replay, pinning.
	if r.Success {
		if sideload.Applies(r.Name) {
			if err := co.sideload.Run(ctx, r, cfg, r.InstallLocation); err != nil {
				co.metrics.IncSideloadInstallFailure()
				r.AddMessage(types.MessageWarning, "sideload: "+err.Error())
			} else {
				co.metrics.IncSideloadInstallSuccess()
			}
		}

		encoded, err := co.argsEncoder.Encode(cfg.InstallArguments + " " + cfg.PackageParameters)
		if err != nil {
			r.AddMessage(types.MessageWarning, "encode argument replay: "+err.Error())
		} else {
			info.ArgumentsEncrypted = encoded
		}
		info.IsPinned = cfg.Features.PinPackage
	}

	// Step 11: resolve ChocolateyPackageInstallLocation.
	co.resolveInstallLocationEnv(r, scriptHostRan, installerDiff)

	// Step 12: persist I, clean quarantine, publish event, release pending.
	info.UpdatedAt = time.Now()
	if err := co.packageInfo.Save(ctx, info); err != nil {
		co.metrics.IncPackageInfoWriteFailure()
		r.AddMessage(types.MessageError, "save package info: "+err.Error())
	} else {
		co.metrics.IncPackageInfoWriteSuccess()
	}
	co.ensureBadPackagePathClean(r)
	co.publishCompleted(ctx, cfg.CommandName, r)
	if err := co.pending.Release(guard, r, r.InstallLocation); err != nil {
		r.AddMessage(types.MessageWarning, "release pending marker: "+err.Error())
	}

	// Step 13: reboot-required exit.
	if r.RebootCode() && cfg.Features.ExitOnRebootDetected {
		co.state.SetExitCode(types.ExitCodeInstallSuspend)
		return fmt.Errorf("%s: %w", r.Name, types.ErrRebootRequired)
	}

	// Step 14: failure handling.
	if !r.Success {
		if err := co.failure.Handle(ctx, r, cfg, failure.Options{Move: true, Rollback: true}); err != nil {
			r.AddMessage(types.MessageWarning, "failure handler: "+err.Error())
		}
		co.state.SetExitCode(types.ExitCodeGenericFailure)
		if cfg.Features.StopOnFirstPackageFailure {
			return fmt.Errorf("%s: %w", r.Name, types.ErrStopOnFirstFailure)
		}
		return nil
	}

	// Step 15: success cleanup.
	if err := failure.ClearRollbackDirectory(co.roots, r.Name); err != nil {
		r.AddMessage(types.MessageWarning, "clear rollback directory: "+err.Error())
	}
	if co.logger != nil {
		co.logger.Info("install location", map[string]any{"package": r.Name, "installLocation": r.InstallLocation})
	}
	return nil
}

// BeforeModify is the OnBeforeModify hook invoked ahead of an upgrade or
// uninstall run, before any per-package callback. It resets the
// per-invocation environment the same way step 1 of the post-pipeline
// does, so a prior command's leftovers never leak into this one.
func (co *Coordinator) BeforeModify(ctx context.Context, cfg *types.Configuration) error {
	co.resetEnvironment()
	return nil
}

// resetEnvironment implements step 1: clear the per-package env vars the
// scripting host and sideload installer set, so a package from earlier in
// this invocation never leaks its values into the next (spec.md §5 "Shared
// resources": process environment is process-wide).
func (co *Coordinator) resetEnvironment() {
	if co.state == nil {
		return
	}
	_ = co.state.UnsetEnv(envInstallLocation)
	_ = co.state.UnsetEnv(envInstallerType)
}

func (co *Coordinator) logBanner(r *types.PackageResult) {
	if co.logger == nil {
		return
	}
	fields := map[string]any{"package": r.Name, "exitCode": r.ExitCode}
	if r.Success {
		co.logger.Info("package operation succeeded", fields)
	} else {
		co.logger.Error("package operation failed", fields)
	}
}

// runScriptingHostInstall runs step 5: launch the scripting host, cancel
// any reboot it may have scheduled, diff the installer registry and
// environment against the before-snapshot, and fold the results into info.
func (co *Coordinator) runScriptingHostInstall(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, info *types.PackageInformation) (ran bool, diff types.RegistrySnapshot) {
	installersBefore, _ := co.snapshotter.SnapshotInstallers()
	envBefore, _ := co.snapshotter.SnapshotEnv()

	ran, err := co.scriptHost.Install(ctx, cfg, r)
	if err != nil {
		co.metrics.IncScriptHostLaunchFailure()
		r.AddMessage(types.MessageWarning, "scripting host install: "+err.Error())
	} else {
		co.metrics.IncScriptHostLaunchSuccess()
	}

	if ran {
		cancelPendingShutdown(ctx)
	}

	installersAfter, _ := co.snapshotter.SnapshotInstallers()
	diff = state.DiffInstallers(installersBefore, installersAfter)
	if len(diff.Entries) > 0 {
		info.RegistrySnapshot = &diff
		if diff.Entries[0].HasQuietUninstall {
			info.HasSilentUninstall = true
		}
	}

	envAfter, _ := co.snapshotter.SnapshotEnv()
	addedOrChanged, _ := state.DiffEnv(envBefore, envAfter)
	if len(addedOrChanged.Vars) > 0 && co.logger != nil {
		co.logger.Info("environment changed by scripting host", map[string]any{
			"package": r.Name,
			"changes": log.EnvFields(addedOrChanged.Vars, cfg.Features.LogEnvironmentValues),
		})
	}

	return ran, diff
}

// cancelPendingShutdown invokes "shutdown /a" to cancel a reboot request a
// package's scripts may have initiated (spec.md §4.5 step 5b). Its exit
// code is ignored; failures here never fail the package operation.
func cancelPendingShutdown(ctx context.Context) {
	_ = exec.CommandContext(ctx, "shutdown", "/a").Run()
}

// resolveInstallLocationEnv implements step 11.
func (co *Coordinator) resolveInstallLocationEnv(r *types.PackageResult, scriptHostRan bool, diff types.RegistrySnapshot) {
	if co.state == nil {
		return
	}

	// Start from the materialized location; a tools-location subdirectory
	// that exists on disk replaces it, the value the scripting host set (if
	// it ran) replaces that, and the last registry-diff entry carrying an
	// install location replaces them all.
	candidate := r.InstallLocation

	if toolsLocation := co.state.GetEnv(envToolsLocation); toolsLocation != "" {
		candidatePath := filepath.Join(toolsLocation, r.Name)
		if _, err := os.Stat(candidatePath); err == nil {
			candidate = candidatePath
		}
	}

	if scriptHostRan {
		if fromHost := co.state.GetEnv(envInstallLocation); fromHost != "" {
			candidate = fromHost
		}
	}

	for _, e := range diff.Entries {
		if e.InstallLocation != "" {
			candidate = e.InstallLocation
		}
	}

	if candidate != "" {
		_ = co.state.SetEnv(envInstallLocation, candidate)
	}
}

// ensureBadPackagePathClean drops any stale quarantine copy of r left over
// from a previous failed attempt, now that this attempt has run its
// pipeline to completion (spec.md §4.5 step 12).
func (co *Coordinator) ensureBadPackagePathClean(r *types.PackageResult) {
	badPath := filepath.Join(co.roots.PackageFailuresRoot, r.Name)
	_ = iox.BestEffortRemoveAll(badPath)
}

// publishCompleted publishes a PackageOperationEvent for r, if an EventBus
// adapter is configured.
func (co *Coordinator) publishCompleted(ctx context.Context, commandName string, r *types.PackageResult) {
	if co.eventBus == nil {
		return
	}
	event := eventbus.NewPackageOperationEvent(commandName, r, time.Now().UTC().Format(time.RFC3339), 0)
	if err := co.eventBus.Publish(ctx, event); err != nil {
		co.metrics.IncEventBusPublishFailure()
		r.AddMessage(types.MessageWarning, "publish event: "+err.Error())
		return
	}
	co.metrics.IncEventBusPublishSuccess()
}
