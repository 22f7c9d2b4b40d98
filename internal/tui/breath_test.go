package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuicalm/internal/breath"
	"github.com/verte-zerg/tuicalm/internal/clock"
	"github.com/verte-zerg/tuicalm/internal/model"
)

type fakeBreathRecorder struct {
	got []model.BreathSession
	err error
}

func (f *fakeBreathRecorder) RecordBreath(_ context.Context, b model.BreathSession) error {
	f.got = append(f.got, b)
	return f.err
}

func newBreathModel(t *testing.T, rec BreathRecorder) *BreathModel {
	t.Helper()
	pattern, _ := breath.LookupPattern("coherent")
	m, err := NewBreathModel(BreathConfig{
		PatternName: "coherent",
		Pattern:     pattern,
		Cycles:      1,
		Recorder:    rec,
		Clock:       &clock.Fixed{T: time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func TestBreathModelRecordsOnCompletion(t *testing.T) {
	rec := &fakeBreathRecorder{}
	m := newBreathModel(t, rec)

	var cmd tea.Cmd
	for i := 0; i < 10; i++ {
		_, cmd = m.Update(tickMsg{gen: m.gen})
	}
	if !m.done {
		t.Fatalf("expected completion after one coherent cycle")
	}
	if cmd == nil {
		t.Fatalf("expected a record command")
	}
	m.Update(cmd())
	if len(rec.got) != 1 || rec.got[0].Cycles != 1 || rec.got[0].DurationSeconds != 10 {
		t.Fatalf("unexpected recorded sessions %+v", rec.got)
	}
	if !strings.Contains(m.renderFooter(), "Saved") {
		t.Fatalf("footer must report the save: %q", m.renderFooter())
	}

	// Ticks after completion are ignored.
	if _, cmd := m.Update(tickMsg{gen: m.gen}); cmd != nil {
		t.Fatalf("no further ticks after completion")
	}
}

func TestBreathModelStaleTicksIgnored(t *testing.T) {
	m := newBreathModel(t, nil)
	m.Update(tickMsg{gen: m.gen + 1})
	if m.machine.State().Elapsed != 0 {
		t.Fatalf("stale tick advanced the machine")
	}
}

func TestBreathModelQuitStopsWithoutRecording(t *testing.T) {
	rec := &fakeBreathRecorder{}
	m := newBreathModel(t, rec)
	m.Update(tickMsg{gen: m.gen})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if m.machine.Active() || len(rec.got) != 0 {
		t.Fatalf("quit must stop without recording")
	}
}

func TestBreathModelSaveErrorShown(t *testing.T) {
	m := newBreathModel(t, &fakeBreathRecorder{err: errors.New("disk full")})
	m.Update(savedMsg{gen: m.gen, err: errors.New("disk full")})
	if !strings.Contains(m.renderFooter(), "not saved: disk full") {
		t.Fatalf("footer missing error: %q", m.renderFooter())
	}
}

func TestNewBreathModelRejectsInvalidConfig(t *testing.T) {
	_, err := NewBreathModel(BreathConfig{PatternName: "x", Pattern: breath.Pattern{}, Cycles: 3})
	if !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestOrbSizeFollowsPhase(t *testing.T) {
	inhaleStart := orbSize(breath.State{Phase: breath.PhaseInhale, PhaseDuration: 4})
	inhaleMid := orbSize(breath.State{Phase: breath.PhaseInhale, PhaseDuration: 4, SecondsIntoPhase: 2})
	hold := orbSize(breath.State{Phase: breath.PhaseHold, PhaseDuration: 4})
	exhaleMid := orbSize(breath.State{Phase: breath.PhaseExhale, PhaseDuration: 4, SecondsIntoPhase: 2})
	if !(inhaleStart < inhaleMid && inhaleMid < hold && exhaleMid < hold) {
		t.Fatalf("unexpected sizes %d %d %d %d", inhaleStart, inhaleMid, hold, exhaleMid)
	}
}

func completeBreath(m *BreathModel) tea.Cmd {
	var cmd tea.Cmd
	for i := 0; i < 10; i++ {
		_, cmd = m.Update(tickMsg{gen: m.gen})
	}
	return cmd
}

func TestBreathModelQuitWaitsForSave(t *testing.T) {
	rec := &fakeBreathRecorder{}
	m := newBreathModel(t, rec)
	save := completeBreath(m)
	if save == nil {
		t.Fatalf("expected a record command")
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd != nil {
		t.Fatalf("quit must wait for the pending save")
	}
	_, cmd := m.Update(save())
	if cmd == nil {
		t.Fatalf("expected quit once saved")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if len(rec.got) != 1 {
		t.Fatalf("session must be recorded before quitting, got %d", len(rec.got))
	}
}

func TestBreathModelIgnoresSaveFromPreviousRun(t *testing.T) {
	m := newBreathModel(t, &fakeBreathRecorder{})
	save := completeBreath(m)
	saved := save()
	m.Update(saved)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if m.done {
		t.Fatalf("r must restart a finished run")
	}
	m.Update(saved)
	if m.saved || strings.Contains(m.renderFooter(), "Saved") {
		t.Fatalf("new run marked saved by the previous run's save")
	}
}
