// Package eventbus defines the EventBus boundary: publishing a
// package-operation-completed notification to a downstream system once a
// package's post-pipeline finishes. The coordinator owns adapter lifecycle;
// callers supply configuration for the adapter they want wired in.
package eventbus

import (
	"context"

	"github.com/justapithecus/chocoflow/types"
)

// PackageOperationEvent is the payload published when one package's
// post-pipeline finishes, success or failure.
type PackageOperationEvent struct {
	CommandName     string             `json:"command_name"`
	PackageName     string             `json:"package_name"`
	Version         string             `json:"version"`
	Outcome         string             `json:"outcome"` // success, failure, reboot_required
	ExitCode        int                `json:"exit_code"`
	InstallLocation string             `json:"install_location"`
	Messages        []types.Message    `json:"messages,omitempty"`
	Timestamp       string             `json:"timestamp"` // ISO 8601
	DurationMs      int64              `json:"duration_ms"`
}

// NewPackageOperationEvent derives an event from a finished PackageResult.
func NewPackageOperationEvent(commandName string, r *types.PackageResult, timestamp string, duration int64) *PackageOperationEvent {
	outcome := "failure"
	switch {
	case r.RebootCode():
		outcome = "reboot_required"
	case r.Success:
		outcome = "success"
	}

	return &PackageOperationEvent{
		CommandName:     commandName,
		PackageName:     r.Name,
		Version:         r.Metadata.Version,
		Outcome:         outcome,
		ExitCode:        r.ExitCode,
		InstallLocation: r.InstallLocation,
		Messages:        r.Messages,
		Timestamp:       timestamp,
		DurationMs:      duration,
	}
}

// Adapter publishes package-operation-completed events to a downstream
// system. Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends an event to the downstream system. Must respect
	// context cancellation and deadlines.
	Publish(ctx context.Context, event *PackageOperationEvent) error

	// Close releases adapter resources.
	Close() error
}
