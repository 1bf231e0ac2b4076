// Package cli wires the persisted-state packages, collaborators, and the
// Operation Coordinator into one bootstrap step the command layer calls
// once per invocation, mirroring the teacher's own cli/cmd bootstrap of
// adapters, proxy, and policy from a single Config value.
package cli

import (
	"context"
	"fmt"

	"github.com/justapithecus/chocoflow/config"
	"github.com/justapithecus/chocoflow/coordinator"
	"github.com/justapithecus/chocoflow/dispatch"
	"github.com/justapithecus/chocoflow/eventbus"
	redisbus "github.com/justapithecus/chocoflow/eventbus/redis"
	"github.com/justapithecus/chocoflow/eventbus/webhook"
	"github.com/justapithecus/chocoflow/failure"
	"github.com/justapithecus/chocoflow/files"
	"github.com/justapithecus/chocoflow/layout"
	"github.com/justapithecus/chocoflow/log"
	"github.com/justapithecus/chocoflow/metrics"
	"github.com/justapithecus/chocoflow/packageinfo"
	"github.com/justapithecus/chocoflow/pending"
	"github.com/justapithecus/chocoflow/procstate"
	"github.com/justapithecus/chocoflow/prompt"
	"github.com/justapithecus/chocoflow/scripthost"
	"github.com/justapithecus/chocoflow/shim"
	"github.com/justapithecus/chocoflow/sideload"
	"github.com/justapithecus/chocoflow/source"
	"github.com/justapithecus/chocoflow/state"
	"github.com/justapithecus/chocoflow/types"
)

// Runtime bundles everything a command action needs beyond its own flags:
// the coordinator, the dispatcher it drives packages through, and the
// metrics collector the command reports from on exit.
type Runtime struct {
	Coordinator *coordinator.Coordinator
	Dispatcher  *dispatch.Dispatcher
	Metrics     *metrics.Collector
	Roots       layout.Roots
}

// BuildRuntime assembles a Runtime for commandName from cfg (already
// overlaid with chocoflow.yaml defaults and CLI flags) and fileCfg, the raw
// chocoflow.yaml (nil if none was loaded). installRoot is the top-level
// chocoflow install directory, cacheLocation the scratch directory the
// Scripting Host materializes its bootstrap harness into.
//
// The SourceRunner itself is named out of scope in spec.md §1 ("the
// feed/provider client... materializes packages"); no repo in the example
// pack ships one either, so BuildRuntime registers source.Fake under the
// "normal" source type as the in-tree stand-in a real feed client would
// replace.
func BuildRuntime(ctx context.Context, commandName string, cfg *types.Configuration, fileCfg *config.Config, installRoot, cacheLocation string) (*Runtime, error) {
	roots := layout.DefaultRoots(installRoot)
	procState := procstate.New()
	logger := log.NewLogger(log.OperationMeta{Command: commandName, OperationID: cfg.OperationID})

	scriptHost, err := scripthost.New(cacheLocation)
	if err != nil {
		return nil, fmt.Errorf("cli: prepare scripting host: %w", err)
	}

	store, err := buildPackageInfoStore(ctx, roots, fileCfg)
	if err != nil {
		return nil, err
	}

	var bus eventbus.Adapter
	if fileCfg != nil {
		bus, err = buildEventBus(fileCfg.EventBus)
		if err != nil {
			return nil, err
		}
	}

	failureHandler := failure.New(roots, logger, prompt.New())
	metricsCollector := metrics.NewCollector(commandName, cfg.SourceType, "")

	co := coordinator.New(coordinator.Collaborators{
		Roots:       roots,
		State:       procState,
		Pending:     pending.New(roots, procState),
		PackageInfo: packageinfo.New(store),
		Files:       files.New(),
		Shims:       shim.New(),
		ScriptHost:  scriptHost,
		Sideload:    sideload.New(roots, procState),
		Failure:     failureHandler,
		Snapshotter: state.NewSnapshotter(),
		EventBus:    bus,
		Logger:      logger,
		Metrics:     metricsCollector,
	})

	dispatcher := dispatch.New(logger, source.NewFake("normal", source.ResultSet{}))

	return &Runtime{Coordinator: co, Dispatcher: dispatcher, Metrics: metricsCollector, Roots: roots}, nil
}

// buildPackageInfoStore selects the local file store, unless fileCfg names
// "s3" as the package_info.backend.
func buildPackageInfoStore(ctx context.Context, roots layout.Roots, fileCfg *config.Config) (packageinfo.Store, error) {
	if fileCfg == nil || fileCfg.PackageInfo.Backend != "s3" {
		return packageinfo.NewFileStore(roots.InstallRoot), nil
	}

	pic := fileCfg.PackageInfo
	s3store, err := packageinfo.NewS3Store(ctx, packageinfo.S3Config{
		Bucket:       pic.Bucket,
		Prefix:       pic.Prefix,
		Region:       pic.Region,
		Endpoint:     pic.Endpoint,
		UsePathStyle: pic.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("cli: build S3 package-info store: %w", err)
	}
	return s3store, nil
}

// buildEventBus constructs the configured EventBus adapter, or nil if
// cfg.Type is empty (publishing stays disabled, per eventbus.Adapter's
// optional-collaborator contract).
func buildEventBus(cfg config.EventBusConfig) (eventbus.Adapter, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "redis":
		return redisbus.New(redisbus.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: derefRetries(cfg.Retries),
		})
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: derefRetries(cfg.Retries),
		})
	default:
		return nil, fmt.Errorf("cli: unknown event_bus.type %q", cfg.Type)
	}
}

func derefRetries(r *int) int {
	if r == nil {
		return 0
	}
	return *r
}
