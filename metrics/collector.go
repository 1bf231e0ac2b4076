// Package metrics provides per-invocation metrics collection for a chocoflow
// command run. The Collector accumulates counters during a single install,
// upgrade, or uninstall invocation. It is a leaf package with no internal
// dependencies. Per-package outcome metrics are absorbed from a
// report.Summary at command completion rather than recorded live, avoiding
// double-counting against the Reporter's own tallies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all collected metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Command lifecycle
	CommandsStarted   int64
	CommandsCompleted int64
	CommandsFailed    int64
	CommandsCrashed   int64

	// Per-package outcomes (absorbed from a report.Summary)
	PackagesProcessed      int64
	PackagesSucceeded      int64
	PackagesFailed         int64
	PackagesWarned         int64
	PackagesRebootRequired int64
	FailuresBySource       map[string]int64

	// Source Dispatcher
	SourceDispatchSuccess int64
	SourceDispatchFailure int64

	// Sideload Installer
	SideloadInstallSuccess int64
	SideloadInstallFailure int64

	// Script Host launches
	ScriptHostLaunchSuccess int64
	ScriptHostLaunchFailure int64

	// PackageInfoService record writes
	PackageInfoWriteSuccess int64
	PackageInfoWriteFailure int64

	// EventBus publishes
	EventBusPublishSuccess int64
	EventBusPublishFailure int64

	// Dimensions (informational, set at construction)
	CommandName string
	SourceType  string
	RunID       string
}

// Collector accumulates metrics during a single command invocation.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	commandsStarted   int64
	commandsCompleted int64
	commandsFailed    int64
	commandsCrashed   int64

	sourceDispatchSuccess int64
	sourceDispatchFailure int64

	sideloadInstallSuccess int64
	sideloadInstallFailure int64

	scriptHostLaunchSuccess int64
	scriptHostLaunchFailure int64

	packageInfoWriteSuccess int64
	packageInfoWriteFailure int64

	eventBusPublishSuccess int64
	eventBusPublishFailure int64

	// Absorbed once via AbsorbSummary
	packagesProcessed      int64
	packagesSucceeded      int64
	packagesFailed         int64
	packagesWarned         int64
	packagesRebootRequired int64
	failuresBySource       map[string]int64

	commandName string
	sourceType  string
	runID       string
}

// NewCollector creates a Collector with dimension labels. commandName and
// sourceType identify the invocation; runID is an optional correlation ID
// for log/event correlation.
func NewCollector(commandName, sourceType, runID string) *Collector {
	return &Collector{
		failuresBySource: make(map[string]int64),
		commandName:      commandName,
		sourceType:       sourceType,
		runID:            runID,
	}
}

// --- Command lifecycle ---

// IncCommandStarted records the start of a command invocation.
func (c *Collector) IncCommandStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsStarted++
	c.mu.Unlock()
}

// IncCommandCompleted records a command invocation that finished with exit
// code 0 or 1 (failures-only, no crash).
func (c *Collector) IncCommandCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsCompleted++
	c.mu.Unlock()
}

// IncCommandFailed records a command invocation that returned a fatal
// sentinel error (stop-on-first-failure, reboot required, lock acquisition).
func (c *Collector) IncCommandFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsFailed++
	c.mu.Unlock()
}

// IncCommandCrashed records a command invocation that panicked.
func (c *Collector) IncCommandCrashed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsCrashed++
	c.mu.Unlock()
}

// --- Source Dispatcher ---

// IncSourceDispatchSuccess records a successful Dispatcher.Resolve + fetch.
func (c *Collector) IncSourceDispatchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sourceDispatchSuccess++
	c.mu.Unlock()
}

// IncSourceDispatchFailure records a failed source dispatch (unknown type
// or runner error).
func (c *Collector) IncSourceDispatchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sourceDispatchFailure++
	c.mu.Unlock()
}

// --- Sideload Installer ---

// IncSideloadInstallSuccess records a successful sideload install/uninstall.
func (c *Collector) IncSideloadInstallSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sideloadInstallSuccess++
	c.mu.Unlock()
}

// IncSideloadInstallFailure records a failed sideload install/uninstall.
func (c *Collector) IncSideloadInstallFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sideloadInstallFailure++
	c.mu.Unlock()
}

// --- Script Host ---

// IncScriptHostLaunchSuccess records a successful PowerShell script host
// launch.
func (c *Collector) IncScriptHostLaunchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.scriptHostLaunchSuccess++
	c.mu.Unlock()
}

// IncScriptHostLaunchFailure records a script host launch failure.
func (c *Collector) IncScriptHostLaunchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.scriptHostLaunchFailure++
	c.mu.Unlock()
}

// --- PackageInfoService ---

// IncPackageInfoWriteSuccess records a successful PackageInformation save.
func (c *Collector) IncPackageInfoWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.packageInfoWriteSuccess++
	c.mu.Unlock()
}

// IncPackageInfoWriteFailure records a failed PackageInformation save.
func (c *Collector) IncPackageInfoWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.packageInfoWriteFailure++
	c.mu.Unlock()
}

// --- EventBus ---

// IncEventBusPublishSuccess records a successful PackageOperationEvent publish.
func (c *Collector) IncEventBusPublishSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventBusPublishSuccess++
	c.mu.Unlock()
}

// IncEventBusPublishFailure records a failed PackageOperationEvent publish
// (all retries exhausted).
func (c *Collector) IncEventBusPublishFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventBusPublishFailure++
	c.mu.Unlock()
}

// --- Per-package outcomes (absorbed from report.Summary) ---

// AbsorbSummary copies per-package outcome counters from a report.Summary
// into the collector. Called once after the command's report.Summarize
// call with the final counts. failuresBySource keys are source-type strings
// to keep this package free of dependencies on the types or source packages.
func (c *Collector) AbsorbSummary(processed, succeeded, failed, warned, rebootRequired int64, failuresBySource map[string]int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.packagesProcessed = processed
	c.packagesSucceeded = succeeded
	c.packagesFailed = failed
	c.packagesWarned = warned
	c.packagesRebootRequired = rebootRequired
	c.failuresBySource = make(map[string]int64, len(failuresBySource))
	for k, v := range failuresBySource {
		c.failuresBySource[k] = v
	}
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics. The
// returned Snapshot is safe to read concurrently; the Collector can continue
// to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var failuresBySource map[string]int64
	if c.failuresBySource != nil {
		failuresBySource = make(map[string]int64, len(c.failuresBySource))
		for k, v := range c.failuresBySource {
			failuresBySource[k] = v
		}
	}

	return Snapshot{
		CommandsStarted:   c.commandsStarted,
		CommandsCompleted: c.commandsCompleted,
		CommandsFailed:    c.commandsFailed,
		CommandsCrashed:   c.commandsCrashed,

		PackagesProcessed:      c.packagesProcessed,
		PackagesSucceeded:      c.packagesSucceeded,
		PackagesFailed:         c.packagesFailed,
		PackagesWarned:         c.packagesWarned,
		PackagesRebootRequired: c.packagesRebootRequired,
		FailuresBySource:       failuresBySource,

		SourceDispatchSuccess: c.sourceDispatchSuccess,
		SourceDispatchFailure: c.sourceDispatchFailure,

		SideloadInstallSuccess: c.sideloadInstallSuccess,
		SideloadInstallFailure: c.sideloadInstallFailure,

		ScriptHostLaunchSuccess: c.scriptHostLaunchSuccess,
		ScriptHostLaunchFailure: c.scriptHostLaunchFailure,

		PackageInfoWriteSuccess: c.packageInfoWriteSuccess,
		PackageInfoWriteFailure: c.packageInfoWriteFailure,

		EventBusPublishSuccess: c.eventBusPublishSuccess,
		EventBusPublishFailure: c.eventBusPublishFailure,

		CommandName: c.commandName,
		SourceType:  c.sourceType,
		RunID:       c.runID,
	}
}
