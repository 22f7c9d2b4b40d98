package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/tuicalm/internal/model"
)

func TestBehindGoal(t *testing.T) {
	progress := map[string]model.TechniqueProgress{
		"pmr":       {WeeklyGoal: 3, WeeklyProgress: 3},
		"mbsr":      {WeeklyGoal: 4, WeeklyProgress: 1},
		"body_scan": {WeeklyGoal: 2, WeeklyProgress: 0},
		"autogenic": {WeeklyGoal: 2, WeeklyProgress: 1},
	}
	want := []string{"body_scan", "mbsr", "autogenic"}
	if diff := cmp.Diff(want, BehindGoal(progress)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}
