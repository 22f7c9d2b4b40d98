package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/clock"
	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/relax"
)

type fakeRelaxRecorder struct {
	got []relax.Completion
}

func (f *fakeRelaxRecorder) RecordRelax(_ context.Context, c relax.Completion) error {
	f.got = append(f.got, c)
	return nil
}

func oneMinuteTechnique() catalog.Technique {
	return catalog.Technique{
		ID:        "pmr",
		Name:      "Quick PMR",
		Durations: []int{1},
		Levels:    []model.Level{model.LevelBeginner},
		Phases:    []catalog.Phase{{Name: "Torso", Minutes: 1, Instruction: "Chest, shoulders, back"}},
	}
}

func newRelaxModel(rec RelaxRecorder) (*RelaxModel, *relax.Tracker) {
	clk := &clock.Fixed{T: time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)}
	tr := relax.NewTracker(clk, relax.WithLocation(time.UTC))
	m := NewRelaxModel(RelaxConfig{
		Tracker:   tr,
		Technique: oneMinuteTechnique(),
		Level:     model.LevelBeginner,
		Recorder:  rec,
	})
	return m, tr
}

func TestRelaxModelCompletesAndRecords(t *testing.T) {
	rec := &fakeRelaxRecorder{}
	m, tr := newRelaxModel(rec)

	var cmd tea.Cmd
	for i := 0; i < 60; i++ {
		_, cmd = m.Update(tickMsg{gen: m.gen})
	}
	c, ok := m.Completion()
	if !ok {
		t.Fatalf("expected completion after one minute")
	}
	if c.Progress.CompletedSessions != 1 || len(tr.History()) != 1 {
		t.Fatalf("tracker not updated: %+v", c.Progress)
	}
	m.Update(cmd())
	if len(rec.got) != 1 || rec.got[0].Record.ID != c.Record.ID {
		t.Fatalf("expected the completion to be recorded, got %+v", rec.got)
	}
	if !strings.Contains(m.renderBody(), "Unlocked: First Steps") {
		t.Fatalf("body must announce unlocks:\n%s", m.renderBody())
	}
}

func TestRelaxModelPauseAndExit(t *testing.T) {
	rec := &fakeRelaxRecorder{}
	m, tr := newRelaxModel(rec)
	m.Update(tickMsg{gen: m.gen})

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	if m.runner.Playing() {
		t.Fatalf("space must pause")
	}
	before := m.runner.Remaining()
	m.Update(tickMsg{gen: m.gen})
	if m.runner.Remaining() != before {
		t.Fatalf("paused session advanced")
	}
	if !strings.Contains(m.renderBody(), "paused") {
		t.Fatalf("body must show paused state")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !m.exited {
		t.Fatalf("expected quit after exit")
	}
	if _, ok := tr.Current(); ok || len(tr.History()) != 0 || len(rec.got) != 0 {
		t.Fatalf("exit must abandon without recording")
	}
}

func TestRelaxModelShowsGuidance(t *testing.T) {
	m, _ := newRelaxModel(nil)
	body := m.renderBody()
	if !strings.Contains(body, catalog.PMR.Instructions[model.LevelBeginner].Text) {
		t.Fatalf("expected catalog instruction in body:\n%s", body)
	}
	if !strings.Contains(m.renderFooter(), "Progress 0%") {
		t.Fatalf("unexpected footer %q", m.renderFooter())
	}
}

func TestRelaxModelQuitWaitsForSave(t *testing.T) {
	rec := &fakeRelaxRecorder{}
	m, _ := newRelaxModel(rec)
	var save tea.Cmd
	for i := 0; i < 60; i++ {
		_, save = m.Update(tickMsg{gen: m.gen})
	}
	if _, ok := m.Completion(); !ok || save == nil {
		t.Fatalf("expected completion with a record command")
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd != nil {
		t.Fatalf("quit must wait for the pending save")
	}
	if m.exited {
		t.Fatalf("a completed session is not an exit")
	}
	m.Update(savedMsg{gen: m.gen - 1})
	if m.saved {
		t.Fatalf("save from another generation must be ignored")
	}
	_, cmd := m.Update(save())
	if cmd == nil {
		t.Fatalf("expected quit once saved")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if len(rec.got) != 1 || !m.saved {
		t.Fatalf("completion must be saved before quitting")
	}
}
