package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justapithecus/chocoflow/dispatch"
	"github.com/justapithecus/chocoflow/expand"
	"github.com/justapithecus/chocoflow/listdoc"
	"github.com/justapithecus/chocoflow/report"
	"github.com/justapithecus/chocoflow/source"
	"github.com/justapithecus/chocoflow/types"
)

// Install runs the Package Config Expander over cmd, dispatches each
// resulting per-package Configuration's install to its source runner via
// dispatcher, and folds every runner's ResultSet into one command-level
// report.Summary.
func (co *Coordinator) Install(ctx context.Context, cmd *types.Configuration, listSvc listdoc.Service, dispatcher *dispatch.Dispatcher) (report.Summary, error) {
	return co.run(ctx, cmd, listSvc, dispatcher, func(r source.Runner, c *types.Configuration) (source.ResultSet, error) {
		return r.InstallRun(ctx, c, co.PostPipeline)
	})
}

// Upgrade mirrors Install for the upgrade operation: every dispatched
// runner also receives BeforeModify as its OnBeforeModify hook.
func (co *Coordinator) Upgrade(ctx context.Context, cmd *types.Configuration, listSvc listdoc.Service, dispatcher *dispatch.Dispatcher) (report.Summary, error) {
	if containsListDocument(cmd.PackageNames) {
		return report.Summary{}, fmt.Errorf("coordinator: upgrade: %w", types.ErrListDocumentInCommand)
	}
	return co.run(ctx, cmd, listSvc, dispatcher, func(r source.Runner, c *types.Configuration) (source.ResultSet, error) {
		return r.UpgradeRun(ctx, c, co.PostPipeline, co.BeforeModify)
	})
}

// Uninstall mirrors Install for the uninstall operation, using the
// uninstall pipeline instead of the install/upgrade one.
func (co *Coordinator) Uninstall(ctx context.Context, cmd *types.Configuration, listSvc listdoc.Service, dispatcher *dispatch.Dispatcher) (report.Summary, error) {
	if containsListDocument(cmd.PackageNames) {
		return report.Summary{}, fmt.Errorf("coordinator: uninstall: %w", types.ErrListDocumentInCommand)
	}
	return co.run(ctx, cmd, listSvc, dispatcher, func(r source.Runner, c *types.Configuration) (source.ResultSet, error) {
		return r.UninstallRun(ctx, c, co.UninstallPostPipeline, co.BeforeModify)
	})
}

type dispatchFunc func(r source.Runner, c *types.Configuration) (source.ResultSet, error)

// run drives expand.Expand over cmd, dispatches each item to its source
// runner via invoke, and accumulates every runner's ResultSet into one
// report.Summary. A per-package Configuration whose source type has no
// registered runner is recorded as a failed PackageResult rather than
// dropped silently (spec.md §4.4).
//
// The accumulator itself is a plain map assembled entirely inside this one
// goroutine; every runner call completes before the next begins, so there
// is no concurrent writer to guard against. Multiple readers (the eventual
// JSON reporter, the metrics collector) only ever see the finished
// report.Summary snapshot this method returns, which satisfies spec.md
// §5's "tolerate concurrent readers" property for the result aggregate
// without needing a literal sync.Map here.
func (co *Coordinator) run(ctx context.Context, cmd *types.Configuration, listSvc listdoc.Service, dispatcher *dispatch.Dispatcher, invoke dispatchFunc) (report.Summary, error) {
	aggregate := make(map[string]*types.PackageResult)
	failuresBySource := make(map[string]int64)

	resolver := func(src string) (string, bool) {
		r, ok := dispatcher.Resolve(src)
		if !ok {
			return "", false
		}
		return r.SourceType(), true
	}

	var stopErr error
	for item := range expand.Expand(cmd, listSvc, resolver) {
		if item.MissingDoc != nil {
			aggregate[item.MissingDoc.Name] = item.MissingDoc
			continue
		}

		c := item.Config
		runner, ok := dispatcher.Resolve(c.SourceType)
		if !ok {
			co.metrics.IncSourceDispatchFailure()
			miss := &types.PackageResult{Name: c.PackageNames}
			miss.AddMessage(types.MessageError, fmt.Sprintf("unknown source type %q", c.SourceType))
			aggregate[miss.Name] = miss
			failuresBySource[c.SourceType]++
			continue
		}
		co.metrics.IncSourceDispatchSuccess()

		results, err := invoke(runner, c)
		for name, r := range results {
			aggregate[name] = r
			if !r.Success {
				failuresBySource[runner.SourceType()]++
			}
		}

		if err != nil {
			stopErr = err
			if errors.Is(err, types.ErrStopOnFirstFailure) || errors.Is(err, types.ErrRebootRequired) {
				break
			}
		}
	}

	summary := report.Summarize(cmd.CommandName, aggregate)
	co.metrics.AbsorbSummary(
		int64(summary.Total),
		int64(summary.Successes),
		int64(summary.Failures),
		int64(summary.Warnings),
		int64(summary.RebootRequired),
		failuresBySource,
	)

	return summary, stopErr
}

// containsListDocument reports whether packageNames names a packages.config
// list document. Only install accepts these (spec.md §4.3); upgrade and
// uninstall reject them outright rather than expanding them.
func containsListDocument(packageNames string) bool {
	for _, token := range strings.Split(packageNames, ";") {
		if strings.HasSuffix(strings.ToLower(strings.TrimSpace(token)), ".config") {
			return true
		}
	}
	return false
}
