// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/tuicalm/internal/achieve"
	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// DailyMinutes buckets history minutes into the last days calendar days
// ending today in loc, oldest first.
func DailyMinutes(history []model.CompletedSession, days int, now time.Time, loc *time.Location) []float64 {
	if days <= 0 {
		return nil
	}
	out := make([]float64, days)
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for _, rec := range history {
		ry, rm, rd := rec.CompletedAt.In(loc).Date()
		day := time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC)
		ago := int(today.Sub(day).Hours() / 24)
		if ago < 0 || ago >= days {
			continue
		}
		out[days-1-ago] += rec.DurationMinutes
	}
	return out
}

func techniqueName(id string) string {
	if t, ok := catalog.Lookup(id); ok {
		return t.Name
	}
	return id
}

// RenderSummary prints one row per technique with level, counters and goals.
func RenderSummary(w io.Writer, progress map[string]model.TechniqueProgress) error {
	if len(progress) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	ids := make([]string, 0, len(progress))
	for id := range progress {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sessions int
	var minutes float64
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		p := progress[id]
		sessions += p.CompletedSessions
		minutes += p.TotalMinutes
		next := "max"
		if lvl, need, ok := achieve.NextLevel(p.Level); ok {
			next = fmt.Sprintf("%s in %d", lvl, max(0, need-p.CompletedSessions))
		}
		rows = append(rows, []string{
			id,
			string(p.Level),
			fmt.Sprintf("%d", p.CompletedSessions),
			fmt.Sprintf("%.1f", p.TotalMinutes),
			fmt.Sprintf("%d", p.Streak),
			fmt.Sprintf("%d/%d", p.WeeklyProgress, p.WeeklyGoal),
			next,
		})
	}

	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", sessions); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Minutes: %.1f\n", minutes); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	headers := []string{"Technique", "Level", "Sessions", "Minutes", "Streak", "Week", "Next"}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true}
	return writeTable(w, headers, rows, rightAlign)
}

// RenderAchievements prints achievement statuses for one technique.
func RenderAchievements(w io.Writer, techniqueID string, statuses []achieve.Status) error {
	if _, err := fmt.Fprintf(w, "Achievements: %s (%d/%d)\n", techniqueName(techniqueID), achieve.EarnedCount(statuses), len(statuses)); err != nil {
		return err
	}
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		mark := " "
		if st.Earned {
			mark = "x"
		}
		rows = append(rows, []string{
			"[" + mark + "]",
			st.Name,
			fmt.Sprintf("%.0f/%.0f", st.Current, st.Threshold),
			fmt.Sprintf("%.0f%%", st.Percent),
		})
	}
	return writeTable(w, []string{"", "Achievement", "Progress", "Done"}, rows, map[int]bool{2: true, 3: true})
}

// RenderHistory prints the most recent completed sessions.
func RenderHistory(w io.Writer, history []model.CompletedSession, loc *time.Location, limit int) error {
	if len(history) == 0 {
		return nil
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	if _, err := fmt.Fprintln(w, "Recent Sessions"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(history))
	for _, rec := range history {
		rows = append(rows, []string{
			rec.CompletedAt.In(loc).Format("2006-01-02 15:04"),
			techniqueName(rec.TechniqueID),
			string(rec.Level),
			fmt.Sprintf("%.1f", rec.DurationMinutes),
		})
	}
	return writeTable(w, []string{"When", "Technique", "Level", "Minutes"}, rows, map[int]bool{3: true})
}

// RenderBreath prints breathing sessions grouped by pattern.
func RenderBreath(w io.Writer, sessions []model.BreathSession) error {
	if len(sessions) == 0 {
		return nil
	}
	type agg struct {
		count   int
		cycles  int
		seconds int
		last    time.Time
	}
	byPattern := map[string]*agg{}
	for _, s := range sessions {
		a, ok := byPattern[s.Pattern]
		if !ok {
			a = &agg{}
			byPattern[s.Pattern] = a
		}
		a.count++
		a.cycles += s.Cycles
		a.seconds += s.DurationSeconds
		if s.EndedAt.After(a.last) {
			a.last = s.EndedAt
		}
	}
	names := make([]string, 0, len(byPattern))
	for name := range byPattern {
		names = append(names, name)
	}
	sort.Strings(names)

	if _, err := fmt.Fprintln(w, "Breathing"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		a := byPattern[name]
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", a.count),
			fmt.Sprintf("%d", a.cycles),
			formatDuration(a.seconds),
		})
	}
	return writeTable(w, []string{"Pattern", "Sessions", "Cycles", "Time"}, rows, map[int]bool{1: true, 2: true, 3: true})
}

func formatDuration(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
