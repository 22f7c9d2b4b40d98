package stats

import (
	"sort"

	"github.com/verte-zerg/tuicalm/internal/model"
)

// TechniqueTotal is one technique's share of the history.
type TechniqueTotal struct {
	TechniqueID string
	Sessions    int
	Minutes     float64
}

// TopTechniques returns the n most practised techniques in history by minutes.
func TopTechniques(history []model.CompletedSession, n int) []TechniqueTotal {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	totals := map[string]*TechniqueTotal{}
	for _, rec := range history {
		t, ok := totals[rec.TechniqueID]
		if !ok {
			t = &TechniqueTotal{TechniqueID: rec.TechniqueID}
			totals[rec.TechniqueID] = t
		}
		t.Sessions++
		t.Minutes += rec.DurationMinutes
	}
	items := make([]TechniqueTotal, 0, len(totals))
	for _, t := range totals {
		items = append(items, *t)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Minutes == items[j].Minutes {
			return items[i].TechniqueID < items[j].TechniqueID
		}
		return items[i].Minutes > items[j].Minutes
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
