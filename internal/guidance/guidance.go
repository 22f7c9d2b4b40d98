// Package guidance resolves the instruction text shown during a session.
package guidance

import (
	"hash/fnv"
	"strings"

	"github.com/verte-zerg/tuicalm/internal/breath"
	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/model"
)

// DefaultInstruction is returned when no provider has an answer.
const DefaultInstruction = "Breathe slowly and let your body settle."

// Mode selects which level instruction a catalog lookup prefers.
type Mode string

const (
	ModeText   Mode = "text"
	ModeAudio  Mode = "audio"
	ModeVisual Mode = "visual"
)

// Provider answers instruction lookups. ok is false when it has nothing.
type Provider interface {
	Instruction(techniqueID string, level model.Level, phase string) (string, bool)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(techniqueID string, level model.Level, phase string) (string, bool)

// Instruction implements Provider.
func (f ProviderFunc) Instruction(techniqueID string, level model.Level, phase string) (string, bool) {
	return f(techniqueID, level, phase)
}

// CatalogProvider reads instructions from the technique catalog.
type CatalogProvider struct {
	Mode Mode
}

// Instruction implements Provider. The level instruction for the mode wins
// over the phase instruction.
func (c CatalogProvider) Instruction(techniqueID string, level model.Level, phase string) (string, bool) {
	t, ok := catalog.Lookup(techniqueID)
	if !ok {
		return "", false
	}
	if ins, ok := t.Instructions[level]; ok {
		if text := pick(ins, c.Mode); text != "" {
			return text, true
		}
	}
	for _, ph := range t.SessionPhases(t.DefaultDuration()) {
		if strings.EqualFold(ph.Name, phase) && ph.Instruction != "" {
			return ph.Instruction, true
		}
	}
	return "", false
}

func pick(ins catalog.Instruction, mode Mode) string {
	switch mode {
	case ModeAudio:
		return ins.Audio
	case ModeVisual:
		return ins.Visual
	default:
		return ins.Text
	}
}

// Pools holds fallback lines per category.
var Pools = map[catalog.Category][]string{
	catalog.CategoryBreathwork: {
		"Begin by finding a comfortable position. Let your breathing be natural and easy.",
		"Focus on lengthening your exhale. This activates your body's relaxation response.",
		"Breathe in calm, breathe out tension. You're doing beautifully.",
		"Notice how your body feels with each breath. There's no right or wrong way.",
		"Your breath is always available to bring you back to the present moment.",
	},
	catalog.CategoryMindfulness: {
		"Take a moment to breathe deeply. Let your shoulders relax and your mind settle into this peaceful space.",
		"Focus on your breath as it flows naturally. Each inhale brings calm, each exhale releases tension.",
		"You are exactly where you need to be in this moment. Allow yourself to simply be present.",
		"Notice any thoughts that arise without judgment. Let them pass like clouds in the sky.",
		"Feel your body supported and safe. This is your time to rest and restore.",
	},
}

// PoolProvider picks a fallback line by category. The choice is stable for
// a given technique, level and phase.
type PoolProvider struct {
	Pools map[catalog.Category][]string
}

// Instruction implements Provider.
func (p PoolProvider) Instruction(techniqueID string, level model.Level, phase string) (string, bool) {
	pools := p.Pools
	if pools == nil {
		pools = Pools
	}
	category := catalog.CategoryMindfulness
	if t, ok := catalog.Lookup(techniqueID); ok {
		category = t.Category
	}
	lines := pools[category]
	if len(lines) == 0 {
		lines = pools[catalog.CategoryMindfulness]
	}
	if len(lines) == 0 {
		return "", false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(techniqueID + "|" + string(level) + "|" + phase))
	return lines[h.Sum32()%uint32(len(lines))], true
}

// Chain tries providers in order.
type Chain []Provider

// DefaultChain is catalog text first, then the category pools.
func DefaultChain(mode Mode) Chain {
	return Chain{CatalogProvider{Mode: mode}, PoolProvider{}}
}

// GetInstruction never returns an empty string.
func (c Chain) GetInstruction(techniqueID string, level model.Level, phase string) string {
	for _, p := range c {
		if p == nil {
			continue
		}
		if text, ok := p.Instruction(techniqueID, level, phase); ok && strings.TrimSpace(text) != "" {
			return text
		}
	}
	return DefaultInstruction
}

// PhaseCue is the short prompt shown for a breath phase.
func PhaseCue(ph breath.Phase) string {
	switch ph {
	case breath.PhaseInhale:
		return "Breathe in"
	case breath.PhaseHold:
		return "Hold"
	case breath.PhaseExhale:
		return "Breathe out"
	case breath.PhasePause:
		return "Rest"
	default:
		return DefaultInstruction
	}
}
