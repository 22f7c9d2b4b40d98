package catalog

import "github.com/verte-zerg/tuicalm/internal/model"

var (
	MBSR = Technique{
		ID:          "mbsr",
		Name:        "Mindfulness-Based Stress Reduction (MBSR)",
		Category:    CategoryMindfulness,
		Durations:   []int{10, 20, 30, 45},
		Levels:      allLevels,
		Description: "Evidence-based program combining mindfulness meditation and yoga",
		Benefits: []string{
			"Decreases anxiety and depression",
			"Enhances emotional regulation",
		},
		Instructions: map[model.Level]Instruction{
			model.LevelBeginner: {
				Audio:  "Focus on your breath. Notice each inhale and exhale without trying to change anything.",
				Visual: "breathing-circle",
				Text:   "Sit comfortably and close your eyes. Begin by noticing your natural breath.",
			},
			model.LevelIntermediate: {
				Audio:  "Expand your awareness to include body sensations, thoughts, and emotions.",
				Visual: "body-scan",
				Text:   "After establishing breath awareness, gently expand your attention.",
			},
			model.LevelAdvanced: {
				Audio:  "Practice choiceless awareness, observing whatever arises without attachment.",
				Visual: "open-awareness",
				Text:   "Rest in open awareness, allowing all experiences to come and go.",
			},
		},
		Phases: []Phase{
			{Name: "Centering", Minutes: 2, Instruction: "Find your comfortable position"},
			{Name: "Breath Awareness", Minutes: 5, Instruction: "Focus on natural breathing"},
			{Name: "Body Scan", Minutes: 8, Instruction: "Scan from head to toe"},
			{Name: "Open Awareness", Minutes: 10, Instruction: "Observe without judgment"},
			{Name: "Integration", Minutes: 5, Instruction: "Prepare to return"},
		},
	}

	PMR = Technique{
		ID:          "pmr",
		Name:        "Progressive Muscle Relaxation (PMR)",
		Category:    CategoryBody,
		Durations:   []int{10, 15, 20, 30},
		Levels:      allLevels,
		Description: "Systematic tensing and relaxing of muscle groups to reduce physical tension",
		Benefits: []string{
			"Improves sleep onset time",
			"Lowers blood pressure",
		},
		Instructions: map[model.Level]Instruction{
			model.LevelBeginner: {
				Audio:  "Tense your fists for 5 seconds, then release and feel the relaxation.",
				Visual: "muscle-groups",
				Text:   "Start with your hands. Make tight fists, hold, then release.",
			},
			model.LevelIntermediate: {
				Audio:  "Work through each muscle group systematically, holding tension for 7 seconds.",
				Visual: "body-progression",
				Text:   "Progress through all major muscle groups with increased awareness.",
			},
			model.LevelAdvanced: {
				Audio:  "Practice differential relaxation while maintaining necessary muscle tone.",
				Visual: "selective-tension",
				Text:   "Master selective relaxation while maintaining functional muscle activity.",
			},
		},
		Phases: []Phase{
			{Name: "Preparation", Minutes: 2, Instruction: "Get comfortable and centered"},
			{Name: "Hands & Arms", Minutes: 4, Instruction: "Tense and release upper limbs"},
			{Name: "Face & Neck", Minutes: 3, Instruction: "Work facial muscles"},
			{Name: "Torso", Minutes: 5, Instruction: "Chest, shoulders, back"},
			{Name: "Legs & Feet", Minutes: 4, Instruction: "Lower body tension release"},
			{Name: "Whole Body", Minutes: 2, Instruction: "Full body awareness"},
		},
	}

	Autogenic = Technique{
		ID:          "autogenic",
		Name:        "Autogenic Training",
		Category:    CategoryMindBody,
		Durations:   []int{12, 18, 25},
		Levels:      allLevels,
		Description: "Self-hypnosis technique using autosuggestion for deep relaxation",
		Phases: []Phase{
			{Name: "Heaviness", Minutes: 4, Instruction: "My arms and legs are heavy"},
			{Name: "Warmth", Minutes: 4, Instruction: "My arms and legs are warm"},
			{Name: "Heart", Minutes: 3, Instruction: "My heartbeat is calm and regular"},
			{Name: "Breathing", Minutes: 3, Instruction: "My breathing is calm and regular"},
			{Name: "Solar Plexus", Minutes: 3, Instruction: "My solar plexus is warm"},
			{Name: "Forehead", Minutes: 3, Instruction: "My forehead is cool"},
		},
	}

	BoxBreathing = Technique{
		ID:          "box_breathing",
		Name:        "Box Breathing (4-4-4-4)",
		Category:    CategoryBreathwork,
		Durations:   []int{5, 10, 15, 20},
		Levels:      allLevels,
		Description: "Square breathing pattern for nervous system regulation",
		Pattern:     "box",
	}

	CoherentBreathing = Technique{
		ID:          "coherent_breathing",
		Name:        "Coherent Breathing (5-5)",
		Category:    CategoryBreathwork,
		Durations:   []int{8, 12, 16, 20},
		Levels:      allLevels,
		Description: "Balanced breathing for heart rate variability optimization",
		Pattern:     "coherent",
	}

	BodyScan = Technique{
		ID:          "body_scan",
		Name:        "Body Scan Meditation",
		Category:    CategoryMindfulness,
		Durations:   []int{10, 15, 20, 30, 45},
		Levels:      allLevels,
		Description: "Systematic awareness of body sensations for mindful embodiment",
	}

	LovingKindness = Technique{
		ID:          "loving_kindness",
		Name:        "Loving-Kindness Meditation",
		Category:    CategoryCompassion,
		Durations:   []int{10, 15, 20, 30},
		Levels:      allLevels,
		Description: "Cultivation of compassion and loving-kindness towards self and others",
	}
)
