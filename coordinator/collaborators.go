// Package coordinator implements the Operation Coordinator (spec.md §4.5):
// the per-package install/upgrade post-pipeline, the uninstall pipeline,
// and the command-level orchestration that ties the Package Config
// Expander, Source Dispatcher, and Reporter into one command invocation.
// It plays the role the teacher's RunOrchestrator plays for one executor
// invocation — a single-writer struct holding injected collaborators,
// driving one ordered sequence of steps with best-effort cleanup on every
// exit path — narrowed here to a per-package pipeline instead of a
// per-process one.
package coordinator

import (
	"context"

	"github.com/justapithecus/chocoflow/eventbus"
	"github.com/justapithecus/chocoflow/failure"
	"github.com/justapithecus/chocoflow/layout"
	"github.com/justapithecus/chocoflow/log"
	"github.com/justapithecus/chocoflow/metrics"
	"github.com/justapithecus/chocoflow/packageinfo"
	"github.com/justapithecus/chocoflow/pending"
	"github.com/justapithecus/chocoflow/procstate"
	"github.com/justapithecus/chocoflow/shim"
	"github.com/justapithecus/chocoflow/types"
)

// PendingMarker is the Pending Marker collaborator. *pending.Marker
// satisfies this.
type PendingMarker interface {
	Acquire(r *types.PackageResult, installLocation string, lockTransactional bool, operationID string) (*pending.Guard, error)
	Release(g *pending.Guard, r *types.PackageResult, installLocation string) error
}

// Snapshotter is the State Snapshotter collaborator. *state.Snapshotter
// satisfies this.
type Snapshotter interface {
	SnapshotEnv() (types.EnvironmentSnapshot, error)
	SnapshotInstallers() (types.RegistrySnapshot, error)
}

// FilesService is the FilesService collaborator. *files.Service satisfies
// this.
type FilesService interface {
	NormalizeAttributes(r *types.PackageResult, cfg *types.Configuration) error
	Capture(r *types.PackageResult, cfg *types.Configuration) (types.FilesSnapshot, error)
}

// ConfigTransformer runs a package's config-transform files against a
// freshly materialized install directory. spec.md §4.5 step 6 names this
// collaborator once and never defines its transform format, and no example
// repo in the corpus parses one either; NoopConfigTransformer is the
// default, leaving room for a real transformer to be wired in without
// touching the pipeline.
type ConfigTransformer interface {
	Run(ctx context.Context, r *types.PackageResult, cfg *types.Configuration) error
}

// NoopConfigTransformer is the default ConfigTransformer.
type NoopConfigTransformer struct{}

// Run does nothing.
func (NoopConfigTransformer) Run(context.Context, *types.PackageResult, *types.Configuration) error {
	return nil
}

// SideloadInstaller is the Sideload Installer collaborator. *sideload.Installer
// satisfies this.
type SideloadInstaller interface {
	Run(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, installLocation string) error
}

// FailureHandler is the Failure Handler collaborator. *failure.Handler
// satisfies this.
type FailureHandler interface {
	Handle(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, opts failure.Options) error
}

// ScriptHost is the ScriptingHost collaborator. *scripthost.Host satisfies
// this.
type ScriptHost interface {
	Install(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error)
	Uninstall(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error)
	BeforeModify(ctx context.Context, cfg *types.Configuration, r *types.PackageResult) (bool, error)
}

// AutoUninstaller runs the registry-driven automatic uninstaller against a
// package's detected installer entry. The uninstall pipeline paragraph of
// spec.md §4.5 names it in passing ("the auto-uninstaller if R.success")
// without describing its mechanics; NoopAutoUninstaller is the default.
type AutoUninstaller interface {
	Run(ctx context.Context, r *types.PackageResult, cfg *types.Configuration) error
}

// NoopAutoUninstaller is the default AutoUninstaller.
type NoopAutoUninstaller struct{}

// Run does nothing.
func (NoopAutoUninstaller) Run(context.Context, *types.PackageResult, *types.Configuration) error {
	return nil
}

// ArgumentsEncoder encodes the install/package-parameter argument string
// persisted on PackageInformation.ArgumentsEncrypted for later replay.
// spec.md §4.5 step 10 names "encrypted argument-replay" without
// specifying an algorithm or key-management scheme, and nothing in the
// corpus carries a secrets-management dependency; the default is a
// reversible base64 encoding, leaving room for a real cipher to be wired in
// once a key source is defined.
type ArgumentsEncoder interface {
	Encode(plaintext string) (string, error)
}

// Collaborators bundles every dependency the coordinator wires together,
// mirroring the teacher's RunConfig: one struct of injected collaborators
// rather than a long constructor parameter list.
type Collaborators struct {
	Roots       layout.Roots
	State       *procstate.ProcessState
	Pending     PendingMarker
	PackageInfo packageinfo.Service
	Files       FilesService
	ConfigXform ConfigTransformer
	Shims       shim.Service
	ScriptHost  ScriptHost
	Sideload    SideloadInstaller
	Failure     FailureHandler
	Snapshotter Snapshotter
	AutoUninstaller AutoUninstaller
	ArgsEncoder ArgumentsEncoder
	// EventBus is optional; a nil value disables event publishing.
	EventBus eventbus.Adapter
	Logger   *log.Logger
	Metrics  *metrics.Collector
}

// Coordinator implements the Operation Coordinator.
type Coordinator struct {
	roots           layout.Roots
	state           *procstate.ProcessState
	pending         PendingMarker
	packageInfo     packageinfo.Service
	files           FilesService
	configXform     ConfigTransformer
	shims           shim.Service
	scriptHost      ScriptHost
	sideload        SideloadInstaller
	failure         FailureHandler
	snapshotter     Snapshotter
	autoUninstaller AutoUninstaller
	argsEncoder     ArgumentsEncoder
	eventBus        eventbus.Adapter
	logger          *log.Logger
	metrics         *metrics.Collector
}

// ExitCode returns the process exit code the coordinator has accumulated
// so far via its ProcessState (spec.md §4.7/§4.8's monotonic ratchet: it
// only ever rises, never falls back to 0 once a failure has set it).
func (co *Coordinator) ExitCode() int {
	if co.state == nil {
		return types.ExitCodeSuccess
	}
	return co.state.ExitCode()
}

// New builds a Coordinator from c. ConfigXform, AutoUninstaller, and
// ArgsEncoder each default to a pass-through implementation when left nil.
func New(c Collaborators) *Coordinator {
	if c.ConfigXform == nil {
		c.ConfigXform = NoopConfigTransformer{}
	}
	if c.AutoUninstaller == nil {
		c.AutoUninstaller = NoopAutoUninstaller{}
	}
	if c.ArgsEncoder == nil {
		c.ArgsEncoder = base64ArgumentsEncoder{}
	}

	return &Coordinator{
		roots:           c.Roots,
		state:           c.State,
		pending:         c.Pending,
		packageInfo:     c.PackageInfo,
		files:           c.Files,
		configXform:     c.ConfigXform,
		shims:           c.Shims,
		scriptHost:      c.ScriptHost,
		sideload:        c.Sideload,
		failure:         c.Failure,
		snapshotter:     c.Snapshotter,
		autoUninstaller: c.AutoUninstaller,
		argsEncoder:     c.ArgsEncoder,
		eventBus:        c.EventBus,
		logger:          c.Logger,
		metrics:         c.Metrics,
	}
}
