// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuicalm/internal/achieve"
	"github.com/verte-zerg/tuicalm/internal/clock"
	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/stats"
)

const (
	tabOverview = iota
	tabTechniques
	tabAchievements
	tabBreathing
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store stats.ReportStore
	cfg   model.StatsConfig
	clock clock.Clock
	loc   *time.Location

	report    stats.Report
	errMsg    string
	selected  string
	techIDs   []string
	tabs      []string
	activeTab int
	viewports []viewport.Model
	techTable table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st stats.ReportStore, cfg model.StatsConfig, clk clock.Clock, loc *time.Location) *Model {
	if clk == nil {
		clk = clock.System{}
	}
	if loc == nil {
		loc = time.Local
	}
	m := &Model{
		store: st,
		cfg:   cfg,
		clock: clk,
		loc:   loc,
		tabs:  []string{"Overview", "Techniques", "Achievements", "Breathing"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.techTable = table.New(table.WithColumns(techColumns(80)), table.WithHeight(10))
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l", "tab":
			m.moveTab(1)
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "enter":
			if m.activeTab == tabTechniques {
				if row := m.techTable.SelectedRow(); len(row) > 0 {
					m.selected = row[0]
					m.renderTabContents()
					m.setTab(tabAchievements)
				}
			}
			return m, nil
		}
		if m.activeTab == tabTechniques {
			var cmd tea.Cmd
			m.techTable, cmd = m.techTable.Update(msg)
			return m, cmd
		}
		vp := m.viewports[m.activeTab]
		var cmd tea.Cmd
		vp, cmd = vp.Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	var body string
	if m.activeTab == tabTechniques {
		body = m.techTable.View()
	} else {
		body = m.viewports[m.activeTab].View()
	}
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), m.renderFooter()}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight int) {
	headerHeight = lipgloss.Height(activeNavStyle.Render("X"))
	bodyHeight = m.height - headerHeight - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.techTable.SetColumns(techColumns(m.width))
	m.techTable.SetHeight(bodyHeight)
}

func (m *Model) moveTab(delta int) {
	next := (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	m.setTab(next)
}

func (m *Model) setTab(tab int) {
	m.activeTab = tab
	if tab == tabTechniques {
		m.techTable.Focus()
	} else {
		m.techTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFooter() string {
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	help := "Nav: left/right  Scroll: up/down  Refresh: r  Quit: q"
	if m.activeTab == tabTechniques {
		help = "Nav: left/right  Select: up/down  Achievements: enter  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg, m.clock.Now(), m.loc)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.techIDs = m.techIDs[:0]
	for id := range report.Progress {
		m.techIDs = append(m.techIDs, id)
	}
	sort.Strings(m.techIDs)
	if _, ok := report.Progress[m.selected]; !ok && len(m.techIDs) > 0 {
		m.selected = m.techIDs[0]
	}
	m.techTable.SetRows(techRows(m.techIDs, report.Progress))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabAchievements].SetContent(m.renderAchievements())
	m.viewports[tabBreathing].SetContent(renderBreathing(m.report.Breath))
}

func renderOverview(r stats.Report, width int) string {
	if len(r.Progress) == 0 {
		return "No sessions found."
	}
	var sessions, streak int
	var minutes float64
	for _, p := range r.Progress {
		sessions += p.CompletedSessions
		minutes += p.TotalMinutes
		if p.Streak > streak {
			streak = p.Streak
		}
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Sessions", fmt.Sprintf("%d", sessions)),
		metricCard("Minutes", fmt.Sprintf("%.0f", minutes)),
		metricCard("Best streak", fmt.Sprintf("%d", streak)),
		metricCard("Techniques", fmt.Sprintf("%d", len(r.Progress))),
	)
	var buf bytes.Buffer
	if err := stats.PlotBars(&buf, "Daily Minutes", r.Daily, stats.PlotWidthFor(width), 0, true); err != nil {
		return cards + "\n" + err.Error()
	}
	lines := []string{cards, "", strings.TrimRight(buf.String(), "\n")}
	if len(r.Behind) > 0 {
		lines = append(lines, "", "Behind weekly goal: "+strings.Join(r.Behind, ", "))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func (m *Model) renderAchievements() string {
	if m.selected == "" {
		return "No sessions found."
	}
	var buf bytes.Buffer
	p := m.report.Progress[m.selected]
	if err := stats.RenderAchievements(&buf, m.selected, achieve.Evaluate(p, achieve.Defaults)); err != nil {
		return err.Error()
	}
	next := "top level reached"
	if lvl, need, ok := achieve.NextLevel(p.Level); ok {
		next = fmt.Sprintf("%.0f%% toward %s (%d sessions)", achieve.LevelProgress(p), lvl, need)
	}
	return buf.String() + fmt.Sprintf("Level: %s, %s\nWeekly goal: %d/%d\n", p.Level, next, p.WeeklyProgress, p.WeeklyGoal)
}

func renderBreathing(sessions []model.BreathSession) string {
	if len(sessions) == 0 {
		return "No breathing sessions found."
	}
	var buf bytes.Buffer
	if err := stats.RenderBreath(&buf, sessions); err != nil {
		return err.Error()
	}
	return buf.String()
}

func techColumns(width int) []table.Column {
	cols := []table.Column{
		{Title: "Technique", Width: 20},
		{Title: "Level", Width: 12},
		{Title: "Sessions", Width: 8},
		{Title: "Minutes", Width: 8},
		{Title: "Streak", Width: 6},
		{Title: "Week", Width: 6},
	}
	used := 0
	for _, c := range cols {
		used += c.Width + 2
	}
	if extra := width - used; extra > 0 {
		cols[0].Width += extra
	}
	return cols
}

func techRows(ids []string, progress map[string]model.TechniqueProgress) []table.Row {
	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		p := progress[id]
		rows = append(rows, table.Row{
			id,
			string(p.Level),
			fmt.Sprintf("%d", p.CompletedSessions),
			fmt.Sprintf("%.1f", p.TotalMinutes),
			fmt.Sprintf("%d", p.Streak),
			fmt.Sprintf("%d/%d", p.WeeklyProgress, p.WeeklyGoal),
		})
	}
	return rows
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		lines[i] = truncateLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "")
}
