// Package model defines shared data structures.
package model

import "time"

// Level is a practice level for a technique.
type Level string

// Practice levels in promotion order.
const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Rank orders levels; unknown levels rank below beginner.
func (l Level) Rank() int {
	switch l {
	case LevelBeginner:
		return 1
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	default:
		return 0
	}
}

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	if l.Rank() == 0 {
		return "", false
	}
	return l, true
}

// DefaultWeeklyGoal is the weekly session target for a new technique entry.
const DefaultWeeklyGoal = 3

// TechniqueProgress accumulates completed sessions for one technique.
type TechniqueProgress struct {
	Level             Level     `json:"level"`
	CompletedSessions int       `json:"completed_sessions"`
	TotalMinutes      float64   `json:"total_minutes"`
	Streak            int       `json:"streak"`
	LastSessionAt     time.Time `json:"last_session_at,omitempty"`
	WeeklyGoal        int       `json:"weekly_goal"`
	WeeklyProgress    int       `json:"weekly_progress"`
}

// NewTechniqueProgress returns the zero-valued progress entry.
func NewTechniqueProgress() TechniqueProgress {
	return TechniqueProgress{
		Level:      LevelBeginner,
		WeeklyGoal: DefaultWeeklyGoal,
	}
}

// HasLastSession reports whether a session was ever recorded.
func (p TechniqueProgress) HasLastSession() bool {
	return !p.LastSessionAt.IsZero()
}

// Session is the single live relaxation session.
type Session struct {
	ID              string    `json:"id"`
	TechniqueID     string    `json:"technique_id"`
	Level           Level     `json:"level"`
	TargetMinutes   int       `json:"target_minutes"`
	StartedAt       time.Time `json:"started_at"`
	ProgressPercent float64   `json:"progress_percent"`
	PhaseName       string    `json:"phase_name"`
}

// CompletedSession is an immutable history record.
type CompletedSession struct {
	ID              string    `json:"id"`
	TechniqueID     string    `json:"technique_id"`
	Level           Level     `json:"level"`
	DurationMinutes float64   `json:"duration_minutes"`
	CompletedAt     time.Time `json:"completed_at"`
	ProgressPercent float64   `json:"progress_percent"`
}

// BreathSession captures a completed breathwork run.
type BreathSession struct {
	Pattern         string    `json:"pattern"`
	Cycles          int       `json:"cycles"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

// BreathFilter narrows breath session listings.
type BreathFilter struct {
	Pattern string
	Since   *time.Time
	Last    int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Technique   string
	Since       *time.Time
	Last        int
	HistoryDays int
}

// QueueItem is an outbound record waiting for remote sync.
type QueueItem struct {
	ID        int64
	Kind      string
	Payload   []byte
	CreatedAt time.Time
	Attempts  int
}
