package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justapithecus/chocoflow/dispatch"
	"github.com/justapithecus/chocoflow/log"
	"github.com/justapithecus/chocoflow/source"
	"github.com/justapithecus/chocoflow/types"
)

// fakeListdoc never resolves a list document; none of these tests
// reference one.
type fakeListdoc struct{}

func (fakeListdoc) Load(path string) ([]types.PackageSpec, error) { return nil, nil }

// fakeRunner is a minimal source.Runner whose InstallRun/UpgradeRun/
// UninstallRun invoke the supplied PerPackageCallback once per configured
// name and return the results it mutates.
type fakeRunner struct {
	sourceType string
	names      []string
	exitCodes  map[string]int
}

func (f *fakeRunner) SourceType() string { return f.sourceType }

func (f *fakeRunner) run(ctx context.Context, cfg *types.Configuration, onResult source.PerPackageCallback) (source.ResultSet, error) {
	results := make(source.ResultSet, len(f.names))
	for _, name := range f.names {
		code := f.exitCodes[name]
		r := &types.PackageResult{Name: name, Success: code == 0, ExitCode: code, Metadata: types.Metadata{ID: name, Version: "1.0.0"}}
		if onResult != nil {
			if err := onResult(ctx, r, cfg); err != nil {
				results[name] = r
				return results, err
			}
		}
		results[name] = r
	}
	return results, nil
}

func (f *fakeRunner) InstallRun(ctx context.Context, cfg *types.Configuration, onResult source.PerPackageCallback) (source.ResultSet, error) {
	return f.run(ctx, cfg, onResult)
}

func (f *fakeRunner) UpgradeRun(ctx context.Context, cfg *types.Configuration, onResult source.PerPackageCallback, onBeforeModify source.OnBeforeModify) (source.ResultSet, error) {
	if onBeforeModify != nil {
		if err := onBeforeModify(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return f.run(ctx, cfg, onResult)
}

func (f *fakeRunner) UninstallRun(ctx context.Context, cfg *types.Configuration, onResult source.PerPackageCallback, onBeforeModify source.OnBeforeModify) (source.ResultSet, error) {
	if onBeforeModify != nil {
		if err := onBeforeModify(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return f.run(ctx, cfg, onResult)
}

func (f *fakeRunner) InstallNoop(ctx context.Context, cfg *types.Configuration) (source.ResultSet, error) {
	return nil, nil
}
func (f *fakeRunner) UpgradeNoop(ctx context.Context, cfg *types.Configuration) (source.ResultSet, error) {
	return nil, nil
}
func (f *fakeRunner) ListNoop(ctx context.Context, cfg *types.Configuration) (source.ResultSet, error) {
	return nil, nil
}
func (f *fakeRunner) UninstallNoop(ctx context.Context, cfg *types.Configuration) (source.ResultSet, error) {
	return nil, nil
}
func (f *fakeRunner) ListRun(ctx context.Context, cfg *types.Configuration) (source.ResultSet, error) {
	return nil, nil
}
func (f *fakeRunner) CountRun(ctx context.Context, cfg *types.Configuration) (int, error) {
	return len(f.names), nil
}
func (f *fakeRunner) GetOutdated(ctx context.Context, cfg *types.Configuration) (source.ResultSet, error) {
	return nil, nil
}
func (f *fakeRunner) EnsureSourceAppInstalled(ctx context.Context, cfg *types.Configuration) error {
	return nil
}
func (f *fakeRunner) RemoveRollbackDirectoryIfExists(name string) error { return nil }

func TestCoordinator_Install_AggregatesAcrossPackages(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)

	runner := &fakeRunner{sourceType: "normal", names: []string{"curl", "jq"}}
	dispatcher := dispatch.New(nil, runner)

	cfg := testConfig()
	cfg.SourceType = "normal"

	summary, err := co.Install(context.Background(), cfg, fakeListdoc{}, dispatcher)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Successes)
}

func TestCoordinator_Install_UnknownSourceTypeRecordsFailureWithoutPanicking(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)

	dispatcher := dispatch.New(nil)

	cfg := testConfig()
	cfg.SourceType = "mystery"

	summary, err := co.Install(context.Background(), cfg, fakeListdoc{}, dispatcher)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Failures)
}

func TestCoordinator_Install_StopsEarlyOnFirstPackageFailure(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)

	runner := &fakeRunner{
		sourceType: "normal",
		names:      []string{"curl"},
		exitCodes:  map[string]int{"curl": 1},
	}
	dispatcher := dispatch.New(nil, runner)

	cfg := testConfig()
	cfg.SourceType = "normal"
	cfg.Features.StopOnFirstPackageFailure = true

	summary, err := co.Install(context.Background(), cfg, fakeListdoc{}, dispatcher)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStopOnFirstFailure)
	assert.Equal(t, 1, summary.Failures)
}

func TestCoordinator_Upgrade_RejectsListDocument(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)
	dispatcher := dispatch.New(nil)

	cfg := testConfig()
	cfg.PackageNames = "packages.config"

	_, err := co.Upgrade(context.Background(), cfg, fakeListdoc{}, dispatcher)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrListDocumentInCommand)
}

func TestCoordinator_Uninstall_RejectsListDocument(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)
	dispatcher := dispatch.New(nil)

	cfg := testConfig()
	cfg.PackageNames = "packages.config"

	_, err := co.Uninstall(context.Background(), cfg, fakeListdoc{}, dispatcher)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrListDocumentInCommand)
}

func TestCoordinator_Uninstall_RunsUninstallPipeline(t *testing.T) {
	co, _, _, shimsFake, _, _, _ := newTestCoordinator(t)

	runner := &fakeRunner{sourceType: "normal", names: []string{"curl"}}
	dispatcher := dispatch.New(nil, runner)

	cfg := testConfig()
	cfg.CommandName = "uninstall"
	cfg.SourceType = "normal"

	summary, err := co.Uninstall(context.Background(), cfg, fakeListdoc{}, dispatcher)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successes)
	assert.True(t, shimsFake.uninstalled)
}

func TestDispatcher_UnknownSourceTypeLogsAndReportsFalse(t *testing.T) {
	logger := log.NewLogger(log.OperationMeta{})
	dispatcher := dispatch.New(logger)

	_, ok := dispatcher.Resolve("mystery")
	assert.False(t, ok)
}
