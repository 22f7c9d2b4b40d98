package stats

import (
	"sort"

	"github.com/verte-zerg/tuicalm/internal/achieve"
	"github.com/verte-zerg/tuicalm/internal/model"
)

// BehindGoal lists techniques that have not reached their weekly goal,
// furthest behind first.
func BehindGoal(progress map[string]model.TechniqueProgress) []string {
	ids := make([]string, 0, len(progress))
	for id, p := range progress {
		if p.WeeklyGoal > 0 && p.WeeklyProgress < p.WeeklyGoal {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		pi := achieve.WeeklyPercent(progress[ids[i]])
		pj := achieve.WeeklyPercent(progress[ids[j]])
		if pi == pj {
			return ids[i] < ids[j]
		}
		return pi < pj
	})
	return ids
}
