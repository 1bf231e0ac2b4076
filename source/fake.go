package source

import (
	"context"

	"github.com/justapithecus/chocoflow/types"
)

// Fake is a minimal, deterministic Runner used by tests that exercise the
// Source Dispatcher and Operation Coordinator without a real feed client.
type Fake struct {
	Type    string
	Results ResultSet
}

// NewFake returns a Fake runner declaring sourceType, pre-seeded with
// results ready to be returned from InstallRun.
func NewFake(sourceType string, results ResultSet) *Fake {
	return &Fake{Type: sourceType, Results: results}
}

func (f *Fake) SourceType() string { return f.Type }

func (f *Fake) InstallRun(ctx context.Context, cfg *types.Configuration, onResult PerPackageCallback) (ResultSet, error) {
	return f.runAll(ctx, cfg, onResult)
}

func (f *Fake) UpgradeRun(ctx context.Context, cfg *types.Configuration, onResult PerPackageCallback, onBeforeModify OnBeforeModify) (ResultSet, error) {
	if onBeforeModify != nil {
		if err := onBeforeModify(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return f.runAll(ctx, cfg, onResult)
}

func (f *Fake) UninstallRun(ctx context.Context, cfg *types.Configuration, onResult PerPackageCallback, onBeforeModify OnBeforeModify) (ResultSet, error) {
	if onBeforeModify != nil {
		if err := onBeforeModify(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return f.runAll(ctx, cfg, onResult)
}

func (f *Fake) runAll(ctx context.Context, cfg *types.Configuration, onResult PerPackageCallback) (ResultSet, error) {
	for name, r := range f.Results {
		if onResult != nil {
			if err := onResult(ctx, r, cfg); err != nil {
				return f.Results, err
			}
		}
		f.Results[name] = r
	}
	return f.Results, nil
}

func (f *Fake) InstallNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error)   { return f.Results, nil }
func (f *Fake) UpgradeNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error)   { return f.Results, nil }
func (f *Fake) ListNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error)      { return f.Results, nil }
func (f *Fake) UninstallNoop(ctx context.Context, cfg *types.Configuration) (ResultSet, error) { return f.Results, nil }

func (f *Fake) ListRun(ctx context.Context, cfg *types.Configuration) (ResultSet, error) { return f.Results, nil }
func (f *Fake) CountRun(ctx context.Context, cfg *types.Configuration) (int, error)      { return len(f.Results), nil }
func (f *Fake) GetOutdated(ctx context.Context, cfg *types.Configuration) (ResultSet, error) {
	return ResultSet{}, nil
}

func (f *Fake) EnsureSourceAppInstalled(ctx context.Context, cfg *types.Configuration) error { return nil }
func (f *Fake) RemoveRollbackDirectoryIfExists(name string) error                            { return nil }
