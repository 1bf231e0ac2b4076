// Package report implements the Reporter (spec.md §4.8): it aggregates
// per-package PackageResults from one command into a summary and the
// failure count the caller uses to set the process exit code.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/justapithecus/chocoflow/types"
)

// enumerateSuccessThreshold is the minimum result-set size, with at least
// one success, before individual successes are enumerated (spec.md §4.8).
const enumerateSuccessThreshold = 5

// Summary is the aggregated outcome of one command invocation.
type Summary struct {
	CommandName    string   `json:"command"`
	Total          int      `json:"total"`
	Successes      int      `json:"successes"`
	Failures       int      `json:"failures"`
	Warnings       int      `json:"warnings"`
	RebootRequired int      `json:"reboot_required"`
	SuccessLines   []string `json:"success_lines,omitempty"`
	WarningLines   []string `json:"warning_lines,omitempty"`
	RebootLines    []string `json:"reboot_lines,omitempty"`
	FailureLines   []string `json:"failure_lines,omitempty"`
}

// FailureCount is the count the caller uses to ratchet the process exit
// code to 1 when it was previously 0.
func (s Summary) FailureCount() int { return s.Failures }

// Summarize builds a Summary from a command's per-package results, keyed
// by package name. Iteration order is sorted by name so the rendered
// report is deterministic even though the source map may have concurrent
// readers (spec.md §5).
func Summarize(commandName string, results map[string]*types.PackageResult) Summary {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	summary := Summary{CommandName: commandName, Total: len(results)}

	for _, name := range names {
		r := results[name]
		if r.Success {
			summary.Successes++
		} else {
			summary.Failures++
		}
		if r.Warning {
			summary.Warnings++
		}
		if r.RebootCode() {
			summary.RebootRequired++
		}
	}

	enumerateSuccesses := len(results) >= enumerateSuccessThreshold && summary.Successes >= 1

	for _, name := range names {
		r := results[name]
		if r.Success && enumerateSuccesses {
			summary.SuccessLines = append(summary.SuccessLines, fmt.Sprintf("%s v%s", r.Name, r.Metadata.Version))
		}
		if r.Warning {
			summary.WarningLines = append(summary.WarningLines, fmt.Sprintf("%s - %s", r.Name, r.FirstMessage(types.MessageWarning)))
		}
		if r.RebootCode() {
			summary.RebootLines = append(summary.RebootLines, r.Name)
		}
		if !r.Success {
			summary.FailureLines = append(summary.FailureLines, fmt.Sprintf("%s (exited %d) - %s", r.Name, r.ExitCode, r.FirstMessage(types.MessageError)))
		}
	}

	return summary
}

// Write renders summary as JSON to path. Pass "-" to write to w instead of
// a file.
func Write(summary Summary, path string, w io.Writer) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal summary: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
