package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/tuicalm/internal/breath"
	"github.com/verte-zerg/tuicalm/internal/catalog"
)

// RenderTechniques lists the technique catalog.
func RenderTechniques(w io.Writer, techniques []catalog.Technique) error {
	rows := make([][]string, 0, len(techniques))
	for _, t := range techniques {
		durations := make([]string, 0, len(t.Durations))
		for _, d := range t.Durations {
			durations = append(durations, fmt.Sprintf("%d", d))
		}
		levels := make([]string, 0, len(t.Levels))
		for _, l := range t.Levels {
			levels = append(levels, string(l))
		}
		rows = append(rows, []string{t.ID, t.Name, string(t.Category), strings.Join(durations, "/"), strings.Join(levels, ", ")})
	}
	return writeTable(w, []string{"ID", "Name", "Category", "Minutes", "Levels"}, rows, nil)
}

// RenderPatterns lists the built-in breathing patterns.
func RenderPatterns(w io.Writer) error {
	names := breath.PatternNames()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p, _ := breath.LookupPattern(name)
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", p.Inhale),
			fmt.Sprintf("%d", p.Hold),
			fmt.Sprintf("%d", p.Exhale),
			fmt.Sprintf("%d", p.Pause),
			fmt.Sprintf("%d", p.CycleSeconds()),
		})
	}
	right := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	return writeTable(w, []string{"Pattern", "Inhale", "Hold", "Exhale", "Pause", "Cycle"}, rows, right)
}
