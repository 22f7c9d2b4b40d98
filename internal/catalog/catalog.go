// Package catalog holds the static relaxation technique reference data.
package catalog

import (
	"sort"

	"github.com/verte-zerg/tuicalm/internal/model"
)

// Category groups techniques.
type Category string

// Known categories.
const (
	CategoryMindfulness Category = "mindfulness"
	CategoryBreathwork  Category = "breathwork"
	CategoryBody        Category = "body"
	CategoryMindBody    Category = "mind-body"
	CategoryCompassion  Category = "compassion"
)

// Instruction is the level-specific guidance for a technique.
type Instruction struct {
	Audio  string `json:"audio,omitempty"`
	Visual string `json:"visual,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Phase is a named, minutes-long step of a technique session.
type Phase struct {
	Name        string `json:"name"`
	Minutes     int    `json:"minutes"`
	Instruction string `json:"instruction"`
}

// Technique is one relaxation practice.
type Technique struct {
	ID           string                      `json:"id"`
	Name         string                      `json:"name"`
	Category     Category                    `json:"category"`
	Durations    []int                       `json:"durations"`
	Levels       []model.Level               `json:"levels"`
	Description  string                      `json:"description"`
	Benefits     []string                    `json:"benefits,omitempty"`
	Pattern      string                      `json:"pattern,omitempty"`
	Instructions map[model.Level]Instruction `json:"instructions,omitempty"`
	Phases       []Phase                     `json:"phases,omitempty"`
}

// SupportsLevel reports whether the technique is offered at l.
func (t Technique) SupportsLevel(l model.Level) bool {
	for _, lv := range t.Levels {
		if lv == l {
			return true
		}
	}
	return false
}

// DefaultDuration is the shortest offered duration.
func (t Technique) DefaultDuration() int {
	if len(t.Durations) == 0 {
		return 10
	}
	return t.Durations[0]
}

// SessionPhases returns the technique phases, or a generic three-step plan
// for techniques without their own.
func (t Technique) SessionPhases(targetMinutes int) []Phase {
	if len(t.Phases) > 0 {
		out := make([]Phase, len(t.Phases))
		copy(out, t.Phases)
		return out
	}
	return DefaultPhases(targetMinutes)
}

// DefaultPhases is the generic plan for a session of targetMinutes.
func DefaultPhases(targetMinutes int) []Phase {
	main := targetMinutes - 4
	if main < 1 {
		main = 1
	}
	return []Phase{
		{Name: "Preparation", Minutes: 2, Instruction: "Get comfortable and centered"},
		{Name: "Main Practice", Minutes: main, Instruction: "Follow the guidance"},
		{Name: "Integration", Minutes: 2, Instruction: "Prepare to return"},
	}
}

var allLevels = []model.Level{model.LevelBeginner, model.LevelIntermediate, model.LevelAdvanced}

var techniques = map[string]Technique{
	MBSR.ID:              MBSR,
	PMR.ID:               PMR,
	Autogenic.ID:         Autogenic,
	BoxBreathing.ID:      BoxBreathing,
	CoherentBreathing.ID: CoherentBreathing,
	BodyScan.ID:          BodyScan,
	LovingKindness.ID:    LovingKindness,
}

// Lookup finds a technique by id.
func Lookup(id string) (Technique, bool) {
	t, ok := techniques[id]
	return t, ok
}

// List returns all techniques sorted by id.
func List() []Technique {
	out := make([]Technique, 0, len(techniques))
	for _, t := range techniques {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
