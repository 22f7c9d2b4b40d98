package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuicalm/internal/achieve"
	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/guidance"
	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/relax"
)

func TestParseMode(t *testing.T) {
	if m, err := parseMode(" Audio "); err != nil || m != guidance.ModeAudio {
		t.Fatalf("expected audio, got %q %v", m, err)
	}
	if _, err := parseMode("smell"); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestResolveLocation(t *testing.T) {
	loc, err := resolveLocation(nil)
	if err != nil || loc != time.Local {
		t.Fatalf("expected local, got %v %v", loc, err)
	}
	utc := "UTC"
	if loc, err = resolveLocation(&utc); err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v %v", loc, err)
	}
	bad := "Nowhere/Special"
	if _, err := resolveLocation(&bad); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{}
	var pattern string
	var cycles int
	cmd.Flags().StringVar(&pattern, "pattern", "box", "")
	cmd.Flags().IntVar(&cycles, "cycles", 4, "")
	if err := cmd.Flags().Set("cycles", "8"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	fromFile := "478"
	fileCycles := 2
	applyStringConfig(cmd, "pattern", &pattern, &fromFile)
	applyIntConfig(cmd, "cycles", &cycles, &fileCycles)
	if pattern != "478" || cycles != 8 {
		t.Fatalf("expected config pattern and flag cycles, got %s %d", pattern, cycles)
	}
}

func TestUnknownTechniqueError(t *testing.T) {
	err := unknownTechniqueError("yoga")
	if !errors.Is(err, model.ErrUnknownTechnique) || !strings.Contains(err.Error(), "pmr") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPrintCompletion(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	c := relax.Completion{
		TechniqueID:   "pmr",
		Record:        model.CompletedSession{DurationMinutes: 15},
		Progress:      model.TechniqueProgress{Level: model.LevelIntermediate, CompletedSessions: 10, Streak: 3, WeeklyGoal: 3, WeeklyProgress: 2},
		PreviousLevel: model.LevelBeginner,
		Unlocked:      []achieve.Definition{achieve.Defaults[0]},
	}
	if err := printCompletion(cmd, catalog.PMR, c); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"15 min", "streak 3", "beginner -> intermediate", "First Steps"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"relax", "techniques", "patterns", "stats", "goal", "sync", "serve", "config"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("missing command %s: %v", name, err)
		}
	}
}

func TestPatternsCommand(t *testing.T) {
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"patterns"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "coherent") {
		t.Fatalf("expected pattern list, got:\n%s", buf.String())
	}
}
