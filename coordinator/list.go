package coordinator

import (
	"context"
	"fmt"

	"github.com/justapithecus/chocoflow/dispatch"
	"github.com/justapithecus/chocoflow/listdoc"
	"github.com/justapithecus/chocoflow/report"
	"github.com/justapithecus/chocoflow/source"
	"github.com/justapithecus/chocoflow/types"
)

// List resolves cmd's source type and returns its ListRun results as a
// report.Summary, bypassing the install/upgrade/uninstall pipelines
// entirely — list is read-only and never touches the Pending Marker, the
// State Snapshotter, or any post-materialization step.
func (co *Coordinator) List(ctx context.Context, cmd *types.Configuration, dispatcher *dispatch.Dispatcher) (report.Summary, error) {
	runner, ok := dispatcher.Resolve(cmd.SourceType)
	if !ok {
		return report.Summary{}, fmt.Errorf("coordinator: list: %w: %q", types.ErrUnknownSourceType, cmd.SourceType)
	}

	results, err := runner.ListRun(ctx, cmd)
	if err != nil {
		return report.Summary{}, fmt.Errorf("coordinator: list: %w", err)
	}

	return report.Summarize(cmd.CommandName, results), nil
}

// Outdated runs get_outdated against cmd's resolved source type, or every
// registered runner when cmd.SourceType is empty (spec.md §4.4's dispatcher
// already resolves per-source-kind; restricting to one is the
// "--source"-scoped variant this command also supports). The returned
// report.Summary's Failures count doubles as the outdated-package count the
// CLI uses to choose ExitCodeOutdatedFound.
func (co *Coordinator) Outdated(ctx context.Context, cmd *types.Configuration, dispatcher *dispatch.Dispatcher) (report.Summary, error) {
	var runners []source.Runner
	if cmd.SourceType != "" {
		runner, ok := dispatcher.Resolve(cmd.SourceType)
		if !ok {
			return report.Summary{}, fmt.Errorf("coordinator: outdated: %w: %q", types.ErrUnknownSourceType, cmd.SourceType)
		}
		runners = []source.Runner{runner}
	} else {
		runners = dispatcher.All()
	}

	aggregate := make(map[string]*types.PackageResult)
	for _, runner := range runners {
		results, err := runner.GetOutdated(ctx, cmd)
		if err != nil {
			return report.Summary{}, fmt.Errorf("coordinator: outdated: %s: %w", runner.SourceType(), err)
		}
		for name, r := range results {
			aggregate[name] = r
		}
	}

	return report.Summarize(cmd.CommandName, aggregate), nil
}

// Pin sets cmd.Features.PinPackage and runs it through Install, exactly the
// same Config Expander + Coordinator path a normal install takes — pin is a
// thin CLI command layered on the existing coordinator (SPEC_FULL.md
// "Supplemented features"), not a new core component.
func (co *Coordinator) Pin(ctx context.Context, cmd *types.Configuration, listSvc listdoc.Service, dispatcher *dispatch.Dispatcher) (report.Summary, error) {
	cmd.Features.PinPackage = true
	return co.Install(ctx, cmd, listSvc, dispatcher)
}

// PinnedPackages returns every persisted PackageInformation record with
// IsPinned set, for the "pin list" subcommand (SPEC_FULL.md "Supplemented
// features"). It reads straight from the Package Info Recorder, bypassing
// dispatch entirely since pin state is local, not source-provided.
func (co *Coordinator) PinnedPackages(ctx context.Context) ([]types.PackageInformation, error) {
	all, err := co.packageInfo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("coordinator: pinned packages: %w", err)
	}

	pinned := make([]types.PackageInformation, 0, len(all))
	for _, info := range all {
		if info.IsPinned {
			pinned = append(pinned, info)
		}
	}
	return pinned, nil
}
