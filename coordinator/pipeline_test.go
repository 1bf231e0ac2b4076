package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justapithecus/chocoflow/failure"
	"github.com/justapithecus/chocoflow/layout"
	"github.com/justapithecus/chocoflow/metrics"
	"github.com/justapithecus/chocoflow/pending"
	"github.com/justapithecus/chocoflow/procstate"
	"github.com/justapithecus/chocoflow/types"
)

// fakePending is a PendingMarker that records its calls instead of taking a
// real lock.
type fakePending struct {
	acquireErr error
	released   bool
}

func (f *fakePending) Acquire(r *types.PackageResult, installLocation string, lockTransactional bool, operationID string) (*pending.Guard, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return &pending.Guard{}, nil
}

func (f *fakePending) Release(g *pending.Guard, r *types.PackageResult, installLocation string) error {
	f.released = true
	return nil
}

type fakeSnapshotter struct {
	env        types.EnvironmentSnapshot
	installers types.RegistrySnapshot
}

func (f *fakeSnapshotter) SnapshotEnv() (types.EnvironmentSnapshot, error) { return f.env, nil }
func (f *fakeSnapshotter) SnapshotInstallers() (types.RegistrySnapshot, error) {
	return f.installers, nil
}

type fakeFiles struct {
	captured types.FilesSnapshot
}

func (f *fakeFiles) NormalizeAttributes(r *types.PackageResult, cfg *types.Configuration) error {
	return nil
}

func (f *fakeFiles) Capture(r *types.PackageResult, cfg *types.Configuration) (types.FilesSnapshot, error) {
	return f.captured, nil
}

type fakeSideload struct {
	ran bool
	err error
}

func (f *fakeSideload) Run(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, installLocation string) error {
	f.ran = true
	return f.err
}

type fakeFailureHandler struct {
	opts    failure.Options
	handled bool
}

func (f *fakeFailureHandler) Handle(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, opts failure.Options) error {
	f.handled = true
	f.opts = opts
	return nil
}

type fakeScriptHost struct {
	installRan bool
	err        error
}

func (f *fakeScriptHost) Install(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return f.installRan, f.err
}

func (f *fakeScriptHost) Uninstall(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return f.installRan, f.err
}

func (f *fakeScriptHost) BeforeModify(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error) {
	return false, nil
}

type fakeShims struct {
	installed, uninstalled bool
}

func (f *fakeShims) Install(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, shimRoot string, ignore func(string) bool) error {
	f.installed = true
	return nil
}

func (f *fakeShims) Uninstall(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, shimRoot string) error {
	f.uninstalled = true
	return nil
}

type fakePackageInfo struct {
	saved   []types.PackageInformation
	removed []types.Metadata
	getErr  error
}

func (f *fakePackageInfo) Get(ctx context.Context, metadata types.Metadata) (types.PackageInformation, bool, error) {
	if f.getErr != nil {
		return types.PackageInformation{}, false, f.getErr
	}
	return types.PackageInformation{Metadata: metadata}, false, nil
}

func (f *fakePackageInfo) Save(ctx context.Context, info types.PackageInformation) error {
	f.saved = append(f.saved, info)
	return nil
}

func (f *fakePackageInfo) Remove(ctx context.Context, metadata types.Metadata) error {
	f.removed = append(f.removed, metadata)
	return nil
}

func (f *fakePackageInfo) List(ctx context.Context) ([]types.PackageInformation, error) {
	return f.saved, nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakePending, *fakeFailureHandler, *fakeShims, *fakeScriptHost, *fakeSideload, *fakePackageInfo) {
	t.Helper()

	pendingFake := &fakePending{}
	failureFake := &fakeFailureHandler{}
	shimsFake := &fakeShims{}
	scriptHostFake := &fakeScriptHost{}
	sideloadFake := &fakeSideload{}
	packageInfoFake := &fakePackageInfo{}

	co := New(Collaborators{
		Roots:       layout.DefaultRoots(t.TempDir()),
		State:       procstate.New(),
		Pending:     pendingFake,
		PackageInfo: packageInfoFake,
		Files:       &fakeFiles{},
		Shims:       shimsFake,
		ScriptHost:  scriptHostFake,
		Sideload:    sideloadFake,
		Failure:     failureFake,
		Snapshotter: &fakeSnapshotter{},
		Metrics:     metrics.NewCollector("install", "normal", "test-run"),
	})

	return co, pendingFake, failureFake, shimsFake, scriptHostFake, sideloadFake, packageInfoFake
}

func testConfig() *types.Configuration {
	return &types.Configuration{
		CommandName: "install",
		PackageNames: "curl",
		Platform:    types.PlatformInfo{IsWindows: false},
	}
}

func TestPostPipeline_SuccessClearsRollbackAndPersistsInfo(t *testing.T) {
	co, pendingFake, failureFake, _, _, _, packageInfoFake := newTestCoordinator(t)

	r := &types.PackageResult{Name: "curl", Success: true, ExitCode: 0, Metadata: types.Metadata{ID: "curl", Version: "1.0.0"}}
	err := co.PostPipeline(context.Background(), r, testConfig())

	require.NoError(t, err)
	assert.True(t, pendingFake.released)
	assert.False(t, failureFake.handled)
	assert.Len(t, packageInfoFake.saved, 1)
}

func TestPostPipeline_FailureInvokesFailureHandlerWithMoveAndRollback(t *testing.T) {
	co, _, failureFake, _, _, _, _ := newTestCoordinator(t)

	r := &types.PackageResult{Name: "curl", Success: false, ExitCode: 1}
	err := co.PostPipeline(context.Background(), r, testConfig())

	require.NoError(t, err)
	assert.True(t, failureFake.handled)
	assert.True(t, failureFake.opts.Move)
	assert.True(t, failureFake.opts.Rollback)
}

func TestPostPipeline_StopOnFirstFailureReturnsSentinel(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)

	cfg := testConfig()
	cfg.Features.StopOnFirstPackageFailure = true
	r := &types.PackageResult{Name: "curl", Success: false, ExitCode: 1}

	err := co.PostPipeline(context.Background(), r, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStopOnFirstFailure)
}

func TestPostPipeline_RebootRequiredSetsInstallSuspendExitCode(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)

	cfg := testConfig()
	cfg.Features.ExitOnRebootDetected = true
	r := &types.PackageResult{Name: "curl", Success: true, ExitCode: 3010}

	err := co.PostPipeline(context.Background(), r, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRebootRequired)
	assert.Equal(t, types.ExitCodeInstallSuspend, co.state.ExitCode())
}

func TestPostPipeline_WindowsRunsScriptHostAndShims(t *testing.T) {
	co, _, _, shimsFake, scriptHostFake, _, _ := newTestCoordinator(t)
	scriptHostFake.installRan = true

	cfg := testConfig()
	cfg.Platform.IsWindows = true
	r := &types.PackageResult{Name: "curl", Success: true, ExitCode: 0, InstallLocation: t.TempDir()}

	err := co.PostPipeline(context.Background(), r, cfg)
	require.NoError(t, err)
	assert.True(t, shimsFake.installed)
}

func TestPostPipeline_SideloadOnlyRunsForSideloadNames(t *testing.T) {
	co, _, _, _, _, sideloadFake, _ := newTestCoordinator(t)

	r := &types.PackageResult{Name: "curl", Success: true, ExitCode: 0}
	err := co.PostPipeline(context.Background(), r, testConfig())

	require.NoError(t, err)
	assert.False(t, sideloadFake.ran)
}

func TestBeforeModify_ResetsEnvironment(t *testing.T) {
	co, _, _, _, _, _, _ := newTestCoordinator(t)
	_ = co.state.SetEnv(envInstallLocation, "C:\\stale")

	err := co.BeforeModify(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Empty(t, co.state.GetEnv(envInstallLocation))
}

func TestApplyArchitectureIgnoreRule_MarksOffArchitectureExes(t *testing.T) {
	dir := t.TempDir()
	x86Dir := filepath.Join(dir, "tools", "x86")
	x64Dir := filepath.Join(dir, "tools", "x64")
	require.NoError(t, os.MkdirAll(x86Dir, 0o755))
	require.NoError(t, os.MkdirAll(x64Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(x86Dir, "thing.exe"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(x64Dir, "thing.exe"), nil, 0o644))

	ignore, err := applyArchitectureIgnoreRule(dir, types.PlatformInfo{IsWindows: true, Is64Bit: true})
	require.NoError(t, err)

	assert.True(t, ignore(filepath.Join(x86Dir, "thing.exe")))
	assert.False(t, ignore(filepath.Join(x64Dir, "thing.exe")))
}

func TestApplyArchitectureIgnoreRule_SingleArchitectureException(t *testing.T) {
	dir := t.TempDir()
	x86Dir := filepath.Join(dir, "tools", "x86")
	require.NoError(t, os.MkdirAll(x86Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(x86Dir, "only.exe"), nil, 0o644))

	ignore, err := applyArchitectureIgnoreRule(dir, types.PlatformInfo{IsWindows: true, Is64Bit: true})
	require.NoError(t, err)

	assert.False(t, ignore(filepath.Join(x86Dir, "only.exe")))
}
