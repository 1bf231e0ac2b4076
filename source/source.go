// Package source declares the SourceRunner collaborator (spec.md §6): the
// out-of-scope backend that materializes packages from one kind of source
// (normal package feed, OS feature provider, external vendor catalog, …)
// and performs dependency resolution. The core only dispatches to it.
package source

import (
	"context"

	"github.com/justapithecus/chocoflow/types"
)

// PerPackageCallback is invoked by a Runner once per materialized package,
// before the runner advances to the next one; it runs the Operation
// Coordinator's post-materialization pipeline and mutates r in place.
type PerPackageCallback func(ctx context.Context, r *types.PackageResult, cfg *types.Configuration) error

// OnBeforeModify is invoked immediately before a runner begins modifying a
// package already on disk (upgrade/uninstall), ahead of any callback.
type OnBeforeModify func(ctx context.Context, cfg *types.Configuration) error

// ResultSet maps package name to its outcome.
type ResultSet = map[string]*types.PackageResult

// Runner is the capability interface a source kind must implement.
type Runner interface {
	// SourceType is this runner's declared source-kind tag.
	SourceType() string

	InstallRun(ctx context.Context, cfg *types.Configuration, onResult PerPackageCallback) (ResultSet, error)
	UpgradeRun(ctx context.Context, cfg *types.Configuration, onResult PerPackageCallback, onBeforeModify OnBeforeModify) (ResultSet, error)
	UninstallRun(ctx context.Context, cfg *types.Configuration, onResult PerPackageCallback, onBeforeModify OnBeforeModify) (ResultSet, error)

	InstallNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error)
	UpgradeNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error)
	ListNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error)
	UninstallNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error)

	ListRun(ctx context.Context, cfg *types.Configuration) (ResultSet, error)
	CountRun(ctx context.Context, cfg *types.Configuration) (int, error)
	GetOutdated(ctx context.Context, cfg *types.Configuration) (ResultSet, error)

	EnsureSourceAppInstalled(ctx context.Context, cfg *types.Configuration) error
	RemoveRollbackDirectoryIfExists(name string) error
}
