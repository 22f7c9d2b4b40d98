package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/guidance"
	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/relax"
)

// RelaxRecorder persists completed technique sessions.
type RelaxRecorder interface {
	RecordRelax(ctx context.Context, c relax.Completion) error
}

// RelaxConfig configures a technique session UI.
type RelaxConfig struct {
	Tracker       *relax.Tracker
	Technique     catalog.Technique
	Level         model.Level
	TargetMinutes int
	Guidance      guidance.Chain
	Recorder      RelaxRecorder
	Logger        *zap.Logger
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	phaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8FD3C8"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
)

// RelaxModel runs one technique session through its phases.
type RelaxModel struct {
	cfg    RelaxConfig
	runner *relax.Runner
	bar    progress.Model
	gen    int

	width  int
	height int

	completion *relax.Completion
	exited     bool
	saved      bool
	saveErr    error
	quitting   bool
}

// NewRelaxModel starts a live session on the tracker.
func NewRelaxModel(cfg RelaxConfig) *RelaxModel {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Guidance == nil {
		cfg.Guidance = guidance.DefaultChain(guidance.ModeText)
	}
	runner, discarded := relax.NewRunner(cfg.Tracker, cfg.Technique, cfg.Level, cfg.TargetMinutes)
	if discarded != nil {
		cfg.Logger.Info("discarded unfinished session",
			zap.String("id", discarded.ID),
			zap.String("technique", discarded.TechniqueID))
	}
	return &RelaxModel{
		cfg:    cfg,
		runner: runner,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		gen:    1,
	}
}

// Completion returns the folded result once the session has finished.
func (m *RelaxModel) Completion() (relax.Completion, bool) {
	if m.completion == nil {
		return relax.Completion{}, false
	}
	return *m.completion, true
}

// Init implements tea.Model.
func (m *RelaxModel) Init() tea.Cmd {
	return tick(m.gen)
}

// Update implements tea.Model.
func (m *RelaxModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 10; w > 10 && w < 60 {
			m.bar.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.runner.Done() {
				m.runner.Exit()
				m.exited = true
			}
			if msg.String() != "ctrl+c" && m.saving() {
				m.quitting = true
				return m, nil
			}
			return m, tea.Quit
		case " ", "p":
			if m.runner.Done() {
				return m, nil
			}
			if m.runner.Playing() {
				m.runner.Pause()
				return m, nil
			}
			m.runner.Resume()
			m.gen++
			return m, tick(m.gen)
		}
		return m, nil
	case tickMsg:
		if msg.gen != m.gen || !m.runner.Playing() {
			return m, nil
		}
		if c, done := m.runner.Tick(); done {
			m.completion = &c
			return m, m.record(c)
		}
		return m, tick(m.gen)
	case savedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.saveErr = msg.err
		m.saved = msg.err == nil
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *RelaxModel) record(c relax.Completion) tea.Cmd {
	if m.cfg.Recorder == nil {
		return nil
	}
	rec := m.cfg.Recorder
	logger := m.cfg.Logger
	gen := m.gen
	return func() tea.Msg {
		err := rec.RecordRelax(context.Background(), c)
		if err != nil {
			logger.Error("save relaxation session", zap.Error(err))
		}
		return savedMsg{gen: gen, err: err}
	}
}

// saving reports whether the completed session is still being written.
func (m *RelaxModel) saving() bool {
	return m.completion != nil && m.cfg.Recorder != nil && !m.saved && m.saveErr == nil
}

// View implements tea.Model.
func (m *RelaxModel) View() string {
	content := m.renderBody()
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *RelaxModel) renderBody() string {
	t := m.cfg.Technique
	if m.completion != nil {
		c := m.completion
		lines := []string{
			doneStyle.Render("Session complete"),
			fmt.Sprintf("%s · %.0f min · streak %d", t.Name, c.Record.DurationMinutes, c.Progress.Streak),
		}
		if c.Promoted() {
			lines = append(lines, titleStyle.Render(fmt.Sprintf("Level up: %s", c.Progress.Level)))
		}
		for _, def := range c.Unlocked {
			lines = append(lines, titleStyle.Render("Unlocked: "+def.Name))
		}
		lines = append(lines, "", footerStyle.Render("q to quit"))
		return lipgloss.JoinVertical(lipgloss.Center, lines...)
	}

	phase := m.runner.Phase()
	instruction := m.cfg.Guidance.GetInstruction(t.ID, m.cfg.Level, phase.Name)
	lines := []string{
		titleStyle.Render(t.Name),
		phaseStyle.Render(fmt.Sprintf("%s (%d/%d)", phase.Name, m.runner.PhaseIndex()+1, len(m.runner.Phases()))),
		"",
		textStyle.Render(instruction),
		"",
		m.bar.ViewAs(m.runner.Percent() / 100),
	}
	if !m.runner.Playing() {
		lines = append(lines, pausedStyle.Render("paused"))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *RelaxModel) renderFooter() string {
	remaining := m.runner.Remaining()
	segments := []string{
		fmt.Sprintf("Level %s", m.cfg.Level),
		fmt.Sprintf("Progress %.0f%%", m.runner.Percent()),
		fmt.Sprintf("Left %d:%02d", remaining/60, remaining%60),
	}
	switch {
	case m.saveErr != nil:
		return footerStyle.Render(strings.Join(segments, "  ")) + "  " + errorStyle.Render("not saved: "+m.saveErr.Error())
	case m.saved:
		segments = append(segments, "Saved")
	default:
		segments = append(segments, "space pause · q exit")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
