// Package dispatch implements the Source Dispatcher (spec.md §4.4): an
// immutable registry of source-kind to SourceRunner, built once at startup
// and resolved by the Operation Coordinator per per-package Configuration.
//
// The registry/lookup shape follows the same register-then-select pattern
// as a pool selector keyed by name, generalized here to a closed set of
// runners resolved at construction instead of a mutable pool map.
package dispatch

import (
	"strings"

	"github.com/justapithecus/chocoflow/log"
	"github.com/justapithecus/chocoflow/source"
)

// Dispatcher resolves a sourceType tag to its registered SourceRunner.
type Dispatcher struct {
	runners map[string]source.Runner
	logger  *log.Logger
}

// New builds an immutable Dispatcher from the given runners, keyed by each
// runner's own declared SourceType().
func New(logger *log.Logger, runners ...source.Runner) *Dispatcher {
	registry := make(map[string]source.Runner, len(runners))
	for _, r := range runners {
		registry[strings.ToLower(r.SourceType())] = r
	}
	return &Dispatcher{runners: registry, logger: logger}
}

// Resolve returns the runner registered for sourceType, tolerant of a
// trailing plural "s" in either direction (spec.md §4.4: "returns the
// runner whose declared type equals sourceType or equals sourceType +
// 's'"). Unknown source-kinds log a warning and report ok=false so the
// caller can treat the operation as a no-op while preserving its exit code.
func (d *Dispatcher) Resolve(sourceType string) (source.Runner, bool) {
	key := strings.ToLower(sourceType)

	if r, ok := d.runners[key]; ok {
		return r, true
	}
	if r, ok := d.runners[key+"s"]; ok {
		return r, true
	}
	if strings.HasSuffix(key, "s") {
		if r, ok := d.runners[strings.TrimSuffix(key, "s")]; ok {
			return r, true
		}
	}

	if d.logger != nil {
		d.logger.Warn("unknown source type", map[string]any{"sourceType": sourceType})
	}
	return nil, false
}

// All returns every registered runner, for commands that must fan out
// across every source kind rather than resolve a single one (e.g.
// "outdated" with no --source restriction).
func (d *Dispatcher) All() []source.Runner {
	runners := make([]source.Runner, 0, len(d.runners))
	for _, r := range d.runners {
		runners = append(runners, r)
	}
	return runners
}
