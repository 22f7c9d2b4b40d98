// Package relax tracks relaxation technique sessions and folds them into progress.
package relax

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuicalm/internal/achieve"
	"github.com/verte-zerg/tuicalm/internal/clock"
	"github.com/verte-zerg/tuicalm/internal/model"
)

// HistoryLimit caps the completed-session history.
const HistoryLimit = 100

// Completion is the result of folding one completed session.
type Completion struct {
	TechniqueID   string                  `json:"technique_id"`
	Record        model.CompletedSession  `json:"record"`
	Progress      model.TechniqueProgress `json:"progress"`
	PreviousLevel model.Level             `json:"previous_level"`
	Unlocked      []achieve.Definition    `json:"unlocked,omitempty"`
}

// Promoted reports whether the session moved the technique up a level.
func (c Completion) Promoted() bool {
	return c.Progress.Level != c.PreviousLevel
}

// Tracker owns the live session, per-technique progress and the history.
// It is not safe for concurrent use.
type Tracker struct {
	clock    clock.Clock
	loc      *time.Location
	defs     []achieve.Definition
	newID    func() string
	progress map[string]*model.TechniqueProgress
	history  []model.CompletedSession
	current  *model.Session
	week     time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithLocation sets the calendar location used for streaks and weeks.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithAchievements replaces the achievement definitions.
func WithAchievements(defs []achieve.Definition) Option {
	return func(t *Tracker) {
		t.defs = defs
	}
}

// WithIDs replaces the session id generator.
func WithIDs(fn func() string) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// NewTracker returns an empty tracker.
func NewTracker(clk clock.Clock, opts ...Option) *Tracker {
	if clk == nil {
		clk = clock.System{}
	}
	t := &Tracker{
		clock:    clk,
		loc:      time.Local,
		defs:     achieve.Defaults,
		newID:    uuid.NewString,
		progress: map[string]*model.TechniqueProgress{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.week = WeekStart(clk.Now(), t.loc)
	return t
}

// Restore replaces progress and history with persisted state.
func (t *Tracker) Restore(progress map[string]model.TechniqueProgress, history []model.CompletedSession) {
	t.progress = make(map[string]*model.TechniqueProgress, len(progress))
	for id, p := range progress {
		p := p
		p.Level = achieve.Promote(p.Level, p.CompletedSessions)
		if p.WeeklyGoal <= 0 {
			p.WeeklyGoal = model.DefaultWeeklyGoal
		}
		t.progress[id] = &p
	}
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	t.history = append([]model.CompletedSession(nil), history...)
}

// StartSession makes a new live session. A live session already in progress
// is discarded without being recorded and returned to the caller.
func (t *Tracker) StartSession(techniqueID string, level model.Level, targetMinutes int) (model.Session, *model.Session) {
	discarded := t.current
	s := &model.Session{
		ID:            t.newID(),
		TechniqueID:   techniqueID,
		Level:         level,
		TargetMinutes: targetMinutes,
		StartedAt:     t.clock.Now(),
		PhaseName:     "preparation",
	}
	t.current = s
	return *s, discarded
}

// Current returns a copy of the live session.
func (t *Tracker) Current() (model.Session, bool) {
	if t.current == nil {
		return model.Session{}, false
	}
	return *t.current, true
}

// UpdateProgress records the live session's position. It returns false
// without a live session.
func (t *Tracker) UpdateProgress(percent float64, phaseName string) bool {
	if t.current == nil {
		return false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.current.ProgressPercent = percent
	t.current.PhaseName = phaseName
	return true
}

// AbandonSession clears the live session without recording it.
func (t *Tracker) AbandonSession() *model.Session {
	s := t.current
	t.current = nil
	return s
}

// CompleteSession folds a finished session into the technique's progress.
// Inputs are recorded as given.
func (t *Tracker) CompleteSession(techniqueID string, level model.Level, durationMinutes float64, completedAt time.Time) Completion {
	p, ok := t.progress[techniqueID]
	if !ok {
		fresh := model.NewTechniqueProgress()
		p = &fresh
		t.progress[techniqueID] = p
	}
	before := *p

	p.CompletedSessions++
	p.TotalMinutes += durationMinutes

	p.Streak = NextStreak(p.Streak, p.LastSessionAt, p.HasLastSession(), completedAt, t.loc)
	if !p.HasLastSession() || completedAt.After(p.LastSessionAt) {
		p.LastSessionAt = completedAt
	}

	if InWeek(completedAt, t.clock.Now(), t.loc) {
		p.WeeklyProgress++
	}

	p.Level = achieve.Promote(p.Level, p.CompletedSessions)

	record := model.CompletedSession{
		ID:              t.newID(),
		TechniqueID:     techniqueID,
		Level:           level,
		DurationMinutes: durationMinutes,
		CompletedAt:     completedAt,
		ProgressPercent: 100,
	}
	t.history = append([]model.CompletedSession{record}, t.history...)
	if len(t.history) > HistoryLimit {
		t.history = t.history[:HistoryLimit]
	}

	t.current = nil

	return Completion{
		TechniqueID:   techniqueID,
		Record:        record,
		Progress:      *p,
		PreviousLevel: before.Level,
		Unlocked:      achieve.Unlocked(before, *p, t.defs),
	}
}

// Progress returns a copy of one technique's progress.
func (t *Tracker) Progress(techniqueID string) (model.TechniqueProgress, bool) {
	p, ok := t.progress[techniqueID]
	if !ok {
		return model.TechniqueProgress{}, false
	}
	return *p, true
}

// AllProgress returns a copy of every progress entry.
func (t *Tracker) AllProgress() map[string]model.TechniqueProgress {
	out := make(map[string]model.TechniqueProgress, len(t.progress))
	for id, p := range t.progress {
		out[id] = *p
	}
	return out
}

// TechniqueIDs lists tracked techniques in sorted order.
func (t *Tracker) TechniqueIDs() []string {
	ids := make([]string, 0, len(t.progress))
	for id := range t.progress {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// History returns completed sessions, newest first.
func (t *Tracker) History() []model.CompletedSession {
	out := make([]model.CompletedSession, len(t.history))
	copy(out, t.history)
	return out
}

// Achievements evaluates the tracker's definitions for one technique.
func (t *Tracker) Achievements(techniqueID string) []achieve.Status {
	p, ok := t.progress[techniqueID]
	if !ok {
		return achieve.Evaluate(model.NewTechniqueProgress(), t.defs)
	}
	return achieve.Evaluate(*p, t.defs)
}

// SetWeeklyGoal changes the weekly target of an existing technique entry.
func (t *Tracker) SetWeeklyGoal(techniqueID string, goal int) (model.TechniqueProgress, error) {
	if goal <= 0 {
		return model.TechniqueProgress{}, fmt.Errorf("%w: weekly goal must be > 0", model.ErrInvalidConfig)
	}
	p, ok := t.progress[techniqueID]
	if !ok {
		return model.TechniqueProgress{}, fmt.Errorf("%w: no progress for %q", model.ErrUnknownTechnique, techniqueID)
	}
	p.WeeklyGoal = goal
	return *p, nil
}

// ResetWeeklyProgress zeroes weekly progress for every technique.
func (t *Tracker) ResetWeeklyProgress() {
	for _, p := range t.progress {
		p.WeeklyProgress = 0
	}
}

// RolloverWeek resets weekly progress when the calendar week has changed
// since the tracker last looked. It reports whether a reset happened.
func (t *Tracker) RolloverWeek(lastSeen time.Time) bool {
	current := WeekStart(t.clock.Now(), t.loc)
	if !lastSeen.IsZero() {
		t.week = WeekStart(lastSeen, t.loc)
	}
	if !current.After(t.week) {
		return false
	}
	t.ResetWeeklyProgress()
	t.week = current
	return true
}

// Week is the start of the week the tracker is counting.
func (t *Tracker) Week() time.Time {
	return t.week
}
