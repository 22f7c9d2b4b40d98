package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/tuicalm/internal/achieve"
	"github.com/verte-zerg/tuicalm/internal/model"
)

// DefaultHistoryDays is the daily chart span when none is configured.
const DefaultHistoryDays = 14

// ReportStore is the read side of the store the report needs.
type ReportStore interface {
	LoadProgress(ctx context.Context) (map[string]model.TechniqueProgress, error)
	ListHistory(ctx context.Context, limit int) ([]model.CompletedSession, error)
	ListBreathSessions(ctx context.Context, filter model.BreathFilter) ([]model.BreathSession, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Progress map[string]model.TechniqueProgress
	History  []model.CompletedSession
	Breath   []model.BreathSession
	Daily    []float64
	Top      []TechniqueTotal
	Behind   []string
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st ReportStore, cfg model.StatsConfig, now time.Time, loc *time.Location) (Report, error) {
	progress, err := st.LoadProgress(ctx)
	if err != nil {
		return Report{}, err
	}
	history, err := st.ListHistory(ctx, 0)
	if err != nil {
		return Report{}, err
	}
	breath, err := st.ListBreathSessions(ctx, model.BreathFilter{Since: cfg.Since, Last: cfg.Last})
	if err != nil {
		return Report{}, err
	}

	if cfg.Technique != "" {
		filtered := map[string]model.TechniqueProgress{}
		if p, ok := progress[cfg.Technique]; ok {
			filtered[cfg.Technique] = p
		}
		progress = filtered
	}
	history = filterHistory(history, cfg)

	days := cfg.HistoryDays
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return Report{
		Progress: progress,
		History:  history,
		Breath:   breath,
		Daily:    DailyMinutes(history, days, now, loc),
		Top:      TopTechniques(history, 3),
		Behind:   BehindGoal(progress),
	}, nil
}

// filterHistory keeps newest-first order.
func filterHistory(history []model.CompletedSession, cfg model.StatsConfig) []model.CompletedSession {
	out := make([]model.CompletedSession, 0, len(history))
	for _, rec := range history {
		if cfg.Technique != "" && rec.TechniqueID != cfg.Technique {
			continue
		}
		if cfg.Since != nil && rec.CompletedAt.Before(*cfg.Since) {
			continue
		}
		out = append(out, rec)
	}
	if cfg.Last > 0 && len(out) > cfg.Last {
		out = out[:cfg.Last]
	}
	return out
}

// RenderOptions controls report layout.
type RenderOptions struct {
	Location *time.Location
	Width    int
	Color    bool
	Defs     []achieve.Definition
}

// RenderReport writes every section of the report.
func RenderReport(w io.Writer, r Report, opts RenderOptions) error {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	defs := opts.Defs
	if defs == nil {
		defs = achieve.Defaults
	}
	if err := RenderSummary(w, r.Progress); err != nil {
		return err
	}
	if len(r.Behind) > 0 {
		if _, err := fmt.Fprintf(w, "Behind weekly goal: %v\n\n", r.Behind); err != nil {
			return err
		}
	}
	if len(r.Top) > 0 {
		if _, err := fmt.Fprintln(w, "Most Practised"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(r.Top))
		for _, t := range r.Top {
			rows = append(rows, []string{techniqueName(t.TechniqueID), fmt.Sprintf("%d", t.Sessions), fmt.Sprintf("%.1f", t.Minutes)})
		}
		if err := writeTable(w, []string{"Technique", "Sessions", "Minutes"}, rows, map[int]bool{1: true, 2: true}); err != nil {
			return err
		}
	}
	if len(r.History) > 0 {
		// Zero width lets the plot size itself to the terminal.
		plotWidth := 0
		if opts.Width > 0 {
			plotWidth = PlotWidthFor(opts.Width)
		}
		if err := PlotBars(w, "Daily Minutes", r.Daily, plotWidth, 0, opts.Color); err != nil {
			return err
		}
	}
	if err := RenderHistory(w, r.History, loc, 10); err != nil {
		return err
	}
	if len(r.Progress) == 1 {
		for id, p := range r.Progress {
			if err := RenderAchievements(w, id, achieve.Evaluate(p, defs)); err != nil {
				return err
			}
		}
	}
	return RenderBreath(w, r.Breath)
}
