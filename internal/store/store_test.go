package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/tuicalm/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "tuicalm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return st
}

func TestSaveCompletionAndLoad(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	rec := model.CompletedSession{
		ID:              "a",
		TechniqueID:     "pmr",
		Level:           model.LevelBeginner,
		DurationMinutes: 12.5,
		CompletedAt:     at,
		ProgressPercent: 100,
	}
	progress := model.TechniqueProgress{
		Level:             model.LevelBeginner,
		CompletedSessions: 1,
		TotalMinutes:      12.5,
		Streak:            1,
		LastSessionAt:     at,
		WeeklyGoal:        3,
		WeeklyProgress:    1,
	}
	if err := st.SaveCompletion(ctx, rec, progress); err != nil {
		t.Fatalf("save completion: %v", err)
	}

	loaded, err := st.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("load progress: %v", err)
	}
	if diff := cmp.Diff(map[string]model.TechniqueProgress{"pmr": progress}, loaded); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}

	history, err := st.ListHistory(ctx, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if diff := cmp.Diff([]model.CompletedSession{rec}, history); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveCompletionTrimsHistory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < HistoryLimit+5; i++ {
		rec := model.CompletedSession{
			ID:          fmt.Sprintf("s-%d", i),
			TechniqueID: "mbsr",
			Level:       model.LevelBeginner,
			CompletedAt: start.Add(time.Duration(i) * time.Hour),
		}
		if err := st.SaveCompletion(ctx, rec, model.TechniqueProgress{Level: model.LevelBeginner, CompletedSessions: i + 1}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	history, err := st.ListHistory(ctx, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != HistoryLimit {
		t.Fatalf("expected %d rows, got %d", HistoryLimit, len(history))
	}
	if history[0].ID != "s-104" || history[len(history)-1].ID != "s-5" {
		t.Fatalf("unexpected bounds %s..%s", history[0].ID, history[len(history)-1].ID)
	}
}

func TestSaveProgressUpserts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	p := model.TechniqueProgress{Level: model.LevelIntermediate, CompletedSessions: 12, WeeklyGoal: 3}
	if err := st.SaveProgress(ctx, map[string]model.TechniqueProgress{"pmr": p}); err != nil {
		t.Fatalf("save: %v", err)
	}
	p.WeeklyGoal = 6
	if err := st.SaveProgress(ctx, map[string]model.TechniqueProgress{"pmr": p}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	loaded, err := st.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := loaded["pmr"]; got.WeeklyGoal != 6 || !got.LastSessionAt.IsZero() {
		t.Fatalf("unexpected progress: %+v", got)
	}
}

func TestBreathSessionsFilter(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	for i, pattern := range []string{"box", "478", "box", "coherent"} {
		b := model.BreathSession{
			Pattern:         pattern,
			Cycles:          4,
			StartedAt:       base.AddDate(0, 0, i),
			EndedAt:         base.AddDate(0, 0, i).Add(time.Minute),
			DurationSeconds: 60,
		}
		if _, err := st.InsertBreathSession(ctx, b); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	box, err := st.ListBreathSessions(ctx, model.BreathFilter{Pattern: "box"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(box) != 2 || !box[0].EndedAt.Before(box[1].EndedAt) {
		t.Fatalf("expected 2 ascending box sessions, got %+v", box)
	}

	since := base.AddDate(0, 0, 2)
	recent, err := st.ListBreathSessions(ctx, model.BreathFilter{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 sessions since %v, got %d", since, len(recent))
	}

	last, err := st.ListBreathSessions(ctx, model.BreathFilter{Last: 1})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 1 || last[0].Pattern != "coherent" {
		t.Fatalf("expected most recent session, got %+v", last)
	}
}

func TestSyncQueue(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	first, err := st.Enqueue(ctx, "relax", []byte(`{"a":1}`), now)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := st.Enqueue(ctx, "breath", []byte(`{"b":2}`), now); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	attempts, err := st.BumpAttempts(ctx, first)
	if err != nil || attempts != 1 {
		t.Fatalf("bump: %d %v", attempts, err)
	}
	items, err := st.ListQueue(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Kind != "relax" || items[0].Attempts != 1 || string(items[1].Payload) != `{"b":2}` {
		t.Fatalf("unexpected queue: %+v", items)
	}
	if err := st.DeleteQueued(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, err = st.ListQueue(ctx, 0)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one item left, got %d (%v)", len(items), err)
	}
}

func TestWeekSeen(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	got, err := st.WeekSeen(ctx)
	if err != nil || !got.IsZero() {
		t.Fatalf("expected zero week, got %v %v", got, err)
	}
	week := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	if err := st.SetWeekSeen(ctx, week); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = st.WeekSeen(ctx)
	if err != nil || !got.Equal(week) {
		t.Fatalf("expected %v, got %v %v", week, got, err)
	}
}

func TestSaveCompletionIgnoresDuplicateID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	rec := model.CompletedSession{ID: "dup", TechniqueID: "pmr", Level: model.LevelBeginner, CompletedAt: time.Now()}
	for i := 0; i < 2; i++ {
		if err := st.SaveCompletion(ctx, rec, model.TechniqueProgress{Level: model.LevelBeginner, CompletedSessions: 1}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	history, err := st.ListHistory(ctx, 0)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected one row, got %d (%v)", len(history), err)
	}
}

func TestSaveCompletionKeepsNewerProgress(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	newer := model.TechniqueProgress{Level: model.LevelIntermediate, CompletedSessions: 10, TotalMinutes: 100, Streak: 4, LastSessionAt: at, WeeklyGoal: 3, WeeklyProgress: 3}
	older := model.TechniqueProgress{Level: model.LevelBeginner, CompletedSessions: 9, TotalMinutes: 90, Streak: 3, LastSessionAt: at.Add(-time.Hour), WeeklyGoal: 3, WeeklyProgress: 2}

	if err := st.SaveCompletion(ctx, model.CompletedSession{ID: "s10", TechniqueID: "pmr", Level: model.LevelBeginner, CompletedAt: at}, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}
	if err := st.SaveCompletion(ctx, model.CompletedSession{ID: "s9", TechniqueID: "pmr", Level: model.LevelBeginner, CompletedAt: at.Add(-time.Hour)}, older); err != nil {
		t.Fatalf("save older: %v", err)
	}
	loaded, err := st.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(newer, loaded["pmr"]); diff != "" {
		t.Fatalf("stale snapshot applied (-want +got):\n%s", diff)
	}
	history, err := st.ListHistory(ctx, 0)
	if err != nil || len(history) != 2 {
		t.Fatalf("both records must be kept, got %d (%v)", len(history), err)
	}
}

func TestSaveCompletionDuplicateDoesNotApplyProgress(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	rec := model.CompletedSession{ID: "dup", TechniqueID: "pmr", Level: model.LevelBeginner, CompletedAt: time.Now()}
	first := model.TechniqueProgress{Level: model.LevelBeginner, CompletedSessions: 1, WeeklyGoal: 3}
	if err := st.SaveCompletion(ctx, rec, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	replay := first
	replay.WeeklyGoal = 7
	if err := st.SaveCompletion(ctx, rec, replay); err != nil {
		t.Fatalf("save replay: %v", err)
	}
	loaded, err := st.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded["pmr"].WeeklyGoal != 3 {
		t.Fatalf("replayed record must not touch progress: %+v", loaded["pmr"])
	}
}

func TestSaveProgressNeverLowersLevel(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	p := model.TechniqueProgress{Level: model.LevelAdvanced, CompletedSessions: 25, WeeklyGoal: 3}
	if err := st.SaveProgress(ctx, map[string]model.TechniqueProgress{"mbsr": p}); err != nil {
		t.Fatalf("save: %v", err)
	}
	stale := p
	stale.Level = model.LevelIntermediate
	stale.WeeklyProgress = 0
	if err := st.SaveProgress(ctx, map[string]model.TechniqueProgress{"mbsr": stale}); err != nil {
		t.Fatalf("save stale: %v", err)
	}
	fewer := p
	fewer.CompletedSessions = 20
	fewer.WeeklyGoal = 9
	if err := st.SaveProgress(ctx, map[string]model.TechniqueProgress{"mbsr": fewer}); err != nil {
		t.Fatalf("save fewer: %v", err)
	}
	loaded, err := st.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := loaded["mbsr"]
	if got.Level != model.LevelAdvanced || got.CompletedSessions != 25 || got.WeeklyGoal != 3 {
		t.Fatalf("progress regressed: %+v", got)
	}
}
