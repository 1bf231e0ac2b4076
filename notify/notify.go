// Package notify implements the Notifier (spec.md §4.9): occasional
// promotional messaging, gated behind a random roll so it doesn't appear on
// every run. No library in the example corpus performs probabilistic text
// selection, so this is built directly on math/rand, with the two RNGs the
// Design Notes call for ("Randomness... Inject a source of randomness so
// tests can force deterministic outcomes") injected rather than global.
package notify

import "math/rand"

// DefaultMessages is the fixed pool of promotional messages chosen from
// when the caller doesn't supply one of its own.
var DefaultMessages = []string{
	"Did you know Chocolatey for Business adds private feed hosting and package auditing?",
	"Chocolatey Central Management gives you endpoint visibility across your fleet.",
	"Upgrade to Chocolatey for Business for self-service install support.",
}

const triggerDenominator = 10
const triggerValue = 3

// Notifier decides whether and what to notify, given injected RNGs so
// tests can force deterministic outcomes.
type Notifier struct {
	triggerRand *rand.Rand
	messageRand *rand.Rand
	messages    []string
}

// New builds a Notifier using math/rand's package-level source, seeded by
// the caller's process. Use NewWithSources for deterministic tests.
func New() *Notifier {
	return NewWithSources(rand.New(rand.NewSource(rand.Int63())), rand.New(rand.NewSource(rand.Int63())), DefaultMessages)
}

// NewWithSources builds a Notifier with explicit RNGs and message pool.
func NewWithSources(triggerRand, messageRand *rand.Rand, messages []string) *Notifier {
	return &Notifier{triggerRand: triggerRand, messageRand: messageRand, messages: messages}
}

// Notify returns the message to display (if any) for one run. It fires
// roughly one in ten runs, and only when the run is unlicensed and output
// is regular (spec.md §4.9). override, if non-empty, is shown instead of a
// randomly chosen pool message.
func (n *Notifier) Notify(licensed bool, regularOutput bool, override string) (string, bool) {
	if licensed || !regularOutput {
		return "", false
	}
	if n.triggerRand.Intn(triggerDenominator)+1 != triggerValue {
		return "", false
	}

	if override != "" {
		return override, true
	}
	if len(n.messages) == 0 {
		return "", false
	}

	idx := n.messageRand.Intn(len(n.messages))
	if idx >= len(n.messages) {
		idx = len(n.messages) - 1
	}
	return n.messages[idx], true
}
