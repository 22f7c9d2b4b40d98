// Package breath paces breathing patterns phase by phase on a one-second tick.
package breath

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/tuicalm/internal/model"
)

// Phase is one sub-interval of a breath cycle.
type Phase int

// Phases in cycle order.
const (
	PhaseInhale Phase = iota
	PhaseHold
	PhaseExhale
	PhasePause
)

const phaseCount = 4

func (p Phase) String() string {
	switch p {
	case PhaseInhale:
		return "inhale"
	case PhaseHold:
		return "hold"
	case PhaseExhale:
		return "exhale"
	case PhasePause:
		return "pause"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Pattern holds the per-phase durations in seconds.
type Pattern struct {
	Inhale int `json:"inhale"`
	Hold   int `json:"hold"`
	Exhale int `json:"exhale"`
	Pause  int `json:"pause"`
}

// Duration returns the configured seconds for a phase.
func (p Pattern) Duration(ph Phase) int {
	switch ph {
	case PhaseInhale:
		return p.Inhale
	case PhaseHold:
		return p.Hold
	case PhaseExhale:
		return p.Exhale
	case PhasePause:
		return p.Pause
	default:
		return 0
	}
}

// CycleSeconds is the length of one full cycle.
func (p Pattern) CycleSeconds() int {
	return p.Inhale + p.Hold + p.Exhale + p.Pause
}

// Validate rejects patterns the machine cannot start with.
func (p Pattern) Validate() error {
	if p.Inhale <= 0 {
		return fmt.Errorf("%w: inhale must be > 0", model.ErrInvalidConfig)
	}
	if p.Hold < 0 || p.Exhale < 0 || p.Pause < 0 {
		return fmt.Errorf("%w: phase durations must be >= 0", model.ErrInvalidConfig)
	}
	return nil
}

var builtinPatterns = map[string]Pattern{
	"box":      {Inhale: 4, Hold: 4, Exhale: 4, Pause: 4},
	"478":      {Inhale: 4, Hold: 7, Exhale: 8, Pause: 0},
	"coherent": {Inhale: 5, Hold: 0, Exhale: 5, Pause: 0},
}

// LookupPattern returns a built-in pattern by name.
func LookupPattern(name string) (Pattern, bool) {
	p, ok := builtinPatterns[name]
	return p, ok
}

// PatternNames lists the built-in pattern names in sorted order.
func PatternNames() []string {
	names := make([]string, 0, len(builtinPatterns))
	for name := range builtinPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
