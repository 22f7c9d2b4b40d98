// Package achieve maps accumulated technique progress to levels and achievements.
package achieve

import (
	"math"

	"github.com/verte-zerg/tuicalm/internal/model"
)

// Metric selects which progress counter an achievement measures.
type Metric string

// Supported metrics.
const (
	MetricSessions Metric = "sessions"
	MetricStreak   Metric = "streak"
	MetricMinutes  Metric = "minutes"
)

// Session counts at which a technique is promoted.
const (
	IntermediateSessions = 10
	AdvancedSessions     = 25
)

// Definition is a static achievement.
type Definition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Threshold   float64 `json:"threshold"`
	Metric      Metric  `json:"metric"`
}

// Status is a definition evaluated against one progress snapshot.
type Status struct {
	Definition
	Current float64 `json:"current"`
	Earned  bool    `json:"earned"`
	Percent float64 `json:"percent"`
}

// Defaults are the built-in achievements.
var Defaults = []Definition{
	{ID: "first_session", Name: "First Steps", Description: "Complete your first session", Threshold: 1, Metric: MetricSessions},
	{ID: "consistent", Name: "Consistent Practice", Description: "Complete 7 sessions", Threshold: 7, Metric: MetricSessions},
	{ID: "dedicated", Name: "Dedicated Practitioner", Description: "Complete 30 sessions", Threshold: 30, Metric: MetricSessions},
	{ID: "master", Name: "Master Level", Description: "Complete 100 sessions", Threshold: 100, Metric: MetricSessions},
	{ID: "streak_7", Name: "Weekly Warrior", Description: "Maintain 7-day streak", Threshold: 7, Metric: MetricStreak},
	{ID: "streak_30", Name: "Monthly Master", Description: "Maintain 30-day streak", Threshold: 30, Metric: MetricStreak},
	{ID: "time_60", Name: "Hour of Practice", Description: "Complete 60 minutes", Threshold: 60, Metric: MetricMinutes},
	{ID: "time_300", Name: "Five Hour Club", Description: "Complete 5 hours", Threshold: 300, Metric: MetricMinutes},
}

// MetricValue reads the counter a metric refers to.
func MetricValue(p model.TechniqueProgress, m Metric) float64 {
	switch m {
	case MetricStreak:
		return float64(p.Streak)
	case MetricMinutes:
		return p.TotalMinutes
	default:
		return float64(p.CompletedSessions)
	}
}

// Evaluate computes every definition against progress. It has no side effects.
func Evaluate(p model.TechniqueProgress, defs []Definition) []Status {
	out := make([]Status, 0, len(defs))
	for _, def := range defs {
		current := MetricValue(p, def.Metric)
		st := Status{Definition: def, Current: current}
		if def.Threshold <= 0 {
			st.Earned = true
			st.Percent = 100
		} else {
			st.Earned = current >= def.Threshold
			st.Percent = math.Min(100, current/def.Threshold*100)
		}
		out = append(out, st)
	}
	return out
}

// Unlocked lists definitions earned by after but not by before.
func Unlocked(before, after model.TechniqueProgress, defs []Definition) []Definition {
	prev := Evaluate(before, defs)
	next := Evaluate(after, defs)
	var out []Definition
	for i := range next {
		if next[i].Earned && !prev[i].Earned {
			out = append(out, next[i].Definition)
		}
	}
	return out
}

// EarnedCount counts earned statuses.
func EarnedCount(statuses []Status) int {
	n := 0
	for _, st := range statuses {
		if st.Earned {
			n++
		}
	}
	return n
}

// LevelFor returns the level implied by a completed-session count.
func LevelFor(sessions int) model.Level {
	switch {
	case sessions >= AdvancedSessions:
		return model.LevelAdvanced
	case sessions >= IntermediateSessions:
		return model.LevelIntermediate
	default:
		return model.LevelBeginner
	}
}

// Promote returns the higher of current and the level implied by sessions.
// Levels never go down.
func Promote(current model.Level, sessions int) model.Level {
	implied := LevelFor(sessions)
	if implied.Rank() > current.Rank() {
		return implied
	}
	if current.Rank() == 0 {
		return model.LevelBeginner
	}
	return current
}

// NextLevel returns the following level and the session count it needs.
func NextLevel(l model.Level) (model.Level, int, bool) {
	switch l {
	case model.LevelBeginner:
		return model.LevelIntermediate, IntermediateSessions, true
	case model.LevelIntermediate:
		return model.LevelAdvanced, AdvancedSessions, true
	default:
		return "", 0, false
	}
}

// LevelProgress is the percentage toward the next level, 100 at the top level.
func LevelProgress(p model.TechniqueProgress) float64 {
	_, need, ok := NextLevel(p.Level)
	if !ok {
		return 100
	}
	return math.Min(100, float64(p.CompletedSessions)/float64(need)*100)
}

// WeeklyPercent is the share of the weekly goal reached, capped at 100.
func WeeklyPercent(p model.TechniqueProgress) float64 {
	if p.WeeklyGoal <= 0 {
		return 100
	}
	return math.Min(100, float64(p.WeeklyProgress)/float64(p.WeeklyGoal)*100)
}
