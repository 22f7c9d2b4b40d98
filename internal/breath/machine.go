package breath

import (
	"fmt"
	"time"

	"github.com/verte-zerg/tuicalm/internal/model"
)

// Event reports what a tick did.
type Event int

// Tick outcomes.
const (
	EventNone Event = iota
	EventTick
	EventPhaseChange
	EventCycleComplete
	EventSessionComplete
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventTick:
		return "tick"
	case EventPhaseChange:
		return "phase-change"
	case EventCycleComplete:
		return "cycle-complete"
	case EventSessionComplete:
		return "session-complete"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// State is a snapshot of the machine.
type State struct {
	Active           bool
	PatternName      string
	Pattern          Pattern
	Phase            Phase
	Cycle            int
	TotalCycles      int
	SecondsIntoPhase int
	PhaseDuration    int
	Elapsed          int
}

// Machine advances a breathing pattern one second per Tick.
// Callers must serialize calls.
type Machine struct {
	state State
}

// NewMachine returns an inactive machine.
func NewMachine() *Machine {
	return &Machine{}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// Active reports whether a run is in progress.
func (m *Machine) Active() bool {
	return m.state.Active
}

// Remaining is the number of seconds left in the current phase.
func (m *Machine) Remaining() int {
	if !m.state.Active {
		return 0
	}
	return m.state.PhaseDuration - m.state.SecondsIntoPhase
}

// Start begins a run. Invalid input leaves the state untouched.
func (m *Machine) Start(name string, pattern Pattern, totalCycles int) error {
	if totalCycles <= 0 {
		return fmt.Errorf("%w: cycles must be > 0", model.ErrInvalidConfig)
	}
	if err := pattern.Validate(); err != nil {
		return err
	}
	m.state = State{
		Active:        true,
		PatternName:   name,
		Pattern:       pattern,
		Phase:         PhaseInhale,
		TotalCycles:   totalCycles,
		PhaseDuration: pattern.Inhale,
	}
	return nil
}

// Tick advances one second. It is a no-op while inactive.
func (m *Machine) Tick() Event {
	if !m.state.Active {
		return EventNone
	}
	m.state.SecondsIntoPhase++
	m.state.Elapsed++
	if m.state.SecondsIntoPhase < m.state.PhaseDuration {
		return EventTick
	}

	next, wrapped := nextPhase(m.state.Pattern, m.state.Phase)
	m.state.SecondsIntoPhase = 0
	if !wrapped {
		m.state.Phase = next
		m.state.PhaseDuration = m.state.Pattern.Duration(next)
		return EventPhaseChange
	}

	m.state.Cycle++
	m.state.Phase = PhaseInhale
	if m.state.Cycle >= m.state.TotalCycles {
		m.state.Active = false
		m.state.PhaseDuration = 0
		return EventSessionComplete
	}
	m.state.PhaseDuration = m.state.Pattern.Inhale
	return EventCycleComplete
}

// Stop ends any run. Calling it repeatedly has no further effect.
func (m *Machine) Stop() {
	m.state.Active = false
	m.state.Cycle = 0
	m.state.Phase = PhaseInhale
	m.state.SecondsIntoPhase = 0
}

// Summary builds the record for a run that reached its last cycle.
func (m *Machine) Summary(startedAt, endedAt time.Time) model.BreathSession {
	return model.BreathSession{
		Pattern:         m.state.PatternName,
		Cycles:          m.state.Cycle,
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		DurationSeconds: m.state.Elapsed,
	}
}

// nextPhase walks the cycle order skipping zero-length phases.
// wrapped is true when the walk lands back on inhale.
func nextPhase(p Pattern, from Phase) (Phase, bool) {
	next := from
	for i := 0; i < phaseCount; i++ {
		next = (next + 1) % phaseCount
		if next == PhaseInhale {
			return PhaseInhale, true
		}
		if p.Duration(next) > 0 {
			return next, false
		}
	}
	return PhaseInhale, true
}
