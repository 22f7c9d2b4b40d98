package relax

import (
	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/model"
)

// Runner steps a technique session through its phases on a one-second tick
// and reports into a Tracker.
type Runner struct {
	tracker       *Tracker
	techniqueID   string
	level         model.Level
	targetMinutes int
	phases        []catalog.Phase

	playing      bool
	done         bool
	phaseIndex   int
	phaseSeconds int
	elapsed      int
}

// NewRunner starts a live session on the tracker for technique and returns
// its runner, plus any live session the start discarded.
func NewRunner(tracker *Tracker, technique catalog.Technique, level model.Level, targetMinutes int) (*Runner, *model.Session) {
	if targetMinutes <= 0 {
		targetMinutes = technique.DefaultDuration()
	}
	_, discarded := tracker.StartSession(technique.ID, level, targetMinutes)
	r := &Runner{
		tracker:       tracker,
		techniqueID:   technique.ID,
		level:         level,
		targetMinutes: targetMinutes,
		phases:        technique.SessionPhases(targetMinutes),
		playing:       true,
	}
	tracker.UpdateProgress(0, r.PhaseName())
	return r, discarded
}

// Tick advances one second. It returns the completion when the last phase ends.
func (r *Runner) Tick() (Completion, bool) {
	if !r.playing || r.done {
		return Completion{}, false
	}
	r.phaseSeconds++
	r.elapsed++

	if r.phaseSeconds >= r.phases[r.phaseIndex].Minutes*60 {
		if r.phaseIndex == len(r.phases)-1 {
			r.done = true
			r.playing = false
			c := r.tracker.CompleteSession(r.techniqueID, r.level, float64(r.targetMinutes), r.tracker.clock.Now())
			return c, true
		}
		r.phaseIndex++
		r.phaseSeconds = 0
	}
	r.tracker.UpdateProgress(r.Percent(), r.PhaseName())
	return Completion{}, false
}

// Pause stops ticks from advancing.
func (r *Runner) Pause() {
	r.playing = false
}

// Resume lets ticks advance again.
func (r *Runner) Resume() {
	if !r.done {
		r.playing = true
	}
}

// Playing reports whether ticks advance.
func (r *Runner) Playing() bool {
	return r.playing
}

// Done reports whether the session completed.
func (r *Runner) Done() bool {
	return r.done
}

// Exit abandons the session without recording it.
func (r *Runner) Exit() *model.Session {
	r.playing = false
	r.done = true
	return r.tracker.AbandonSession()
}

// PhaseName is the name of the current phase.
func (r *Runner) PhaseName() string {
	return r.phases[r.phaseIndex].Name
}

// Phase returns the current phase.
func (r *Runner) Phase() catalog.Phase {
	return r.phases[r.phaseIndex]
}

// PhaseIndex is the zero-based index of the current phase.
func (r *Runner) PhaseIndex() int {
	return r.phaseIndex
}

// Phases returns the session plan.
func (r *Runner) Phases() []catalog.Phase {
	return r.phases
}

// Percent is elapsed time over the target duration, capped at 100.
func (r *Runner) Percent() float64 {
	total := r.targetMinutes * 60
	if total <= 0 {
		return 0
	}
	pct := float64(r.elapsed) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Remaining is the number of target seconds not yet elapsed.
func (r *Runner) Remaining() int {
	rem := r.targetMinutes*60 - r.elapsed
	if rem < 0 {
		return 0
	}
	return rem
}

// TechniqueID is the technique being practised.
func (r *Runner) TechniqueID() string {
	return r.techniqueID
}

// Level is the session level.
func (r *Runner) Level() model.Level {
	return r.level
}

// TargetMinutes is the planned duration.
func (r *Runner) TargetMinutes() int {
	return r.targetMinutes
}
