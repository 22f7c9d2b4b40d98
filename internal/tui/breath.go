// Package tui provides the Bubble Tea session interfaces.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuicalm/internal/breath"
	"github.com/verte-zerg/tuicalm/internal/clock"
	"github.com/verte-zerg/tuicalm/internal/guidance"
	"github.com/verte-zerg/tuicalm/internal/model"
)

const (
	minOrb = 2
	maxOrb = 12
)

// BreathRecorder persists finished breathing sessions.
type BreathRecorder interface {
	RecordBreath(ctx context.Context, b model.BreathSession) error
}

// BreathConfig configures a breathing session UI.
type BreathConfig struct {
	PatternName string
	Pattern     breath.Pattern
	Cycles      int
	Recorder    BreathRecorder
	Clock       clock.Clock
	Logger      *zap.Logger
}

type tickMsg struct {
	gen int
}

// savedMsg reports a finished save for the run started at gen.
type savedMsg struct {
	gen int
	err error
}

func tick(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

var (
	cueStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8FD3C8"))
	orbStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8D3"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0D995"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// BreathModel paces a breathing pattern one second per tick.
type BreathModel struct {
	cfg     BreathConfig
	machine *breath.Machine
	gen     int

	width  int
	height int

	startedAt time.Time
	done      bool
	summary   model.BreathSession
	saved     bool
	saveErr   error
	quitting  bool
}

// NewBreathModel validates the configuration and starts the machine.
func NewBreathModel(cfg BreathConfig) (*BreathModel, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	m := &BreathModel{cfg: cfg, machine: breath.NewMachine()}
	if err := m.start(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *BreathModel) start() error {
	if err := m.machine.Start(m.cfg.PatternName, m.cfg.Pattern, m.cfg.Cycles); err != nil {
		return err
	}
	m.gen++
	m.startedAt = m.cfg.Clock.Now()
	m.done = false
	m.saved = false
	m.saveErr = nil
	m.summary = model.BreathSession{}
	m.cfg.Logger.Debug("breath session started",
		zap.String("pattern", m.cfg.PatternName),
		zap.Int("cycles", m.cfg.Cycles))
	return nil
}

// Init implements tea.Model.
func (m *BreathModel) Init() tea.Cmd {
	return tick(m.gen)
}

// Update implements tea.Model.
func (m *BreathModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.machine.Stop()
			return m, tea.Quit
		case "q", "esc":
			m.machine.Stop()
			if m.saving() {
				m.quitting = true
				return m, nil
			}
			return m, tea.Quit
		case "r":
			if m.done && !m.saving() {
				if err := m.start(); err != nil {
					m.saveErr = err
					return m, nil
				}
				return m, tick(m.gen)
			}
		}
		return m, nil
	case tickMsg:
		if msg.gen != m.gen || !m.machine.Active() {
			return m, nil
		}
		if m.machine.Tick() == breath.EventSessionComplete {
			m.done = true
			m.summary = m.machine.Summary(m.startedAt, m.cfg.Clock.Now())
			return m, m.record(m.summary)
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

func (m *BreathModel) record(b model.BreathSession) tea.Cmd {
	if m.cfg.Recorder == nil {
		return nil
	}
	rec := m.cfg.Recorder
	logger := m.cfg.Logger
	gen := m.gen
	return func() tea.Msg {
		err := rec.RecordBreath(context.Background(), b)
		if err != nil {
			logger.Error("save breath session", zap.Error(err))
		}
		return savedMsg{gen: gen, err: err}
	}
}

// saving reports whether a finished run's record is still being written.
func (m *BreathModel) saving() bool {
	return m.done && m.cfg.Recorder != nil && !m.saved && m.saveErr == nil
}

// View implements tea.Model.
func (m *BreathModel) View() string {
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

func (m *BreathModel) renderBody() string {
	if m.done {
		lines := []string{
			doneStyle.Render("Session complete"),
			fmt.Sprintf("%d cycles of %s in %s", m.summary.Cycles, m.summary.Pattern, time.Duration(m.summary.DurationSeconds)*time.Second),
			"",
			footerStyle.Render("r to go again · q to quit"),
		}
		return lipgloss.JoinVertical(lipgloss.Center, lines...)
	}
	st := m.machine.State()
	return lipgloss.JoinVertical(lipgloss.Center,
		cueStyle.Render(guidance.PhaseCue(st.Phase)),
		"",
		orbStyle.Render(renderOrb(orbSize(st))),
		"",
		countStyle.Render(fmt.Sprintf("%d", m.machine.Remaining())),
	)
}

func (m *BreathModel) renderFooter() string {
	st := m.machine.State()
	segments := []string{fmt.Sprintf("Pattern %s", m.cfg.PatternName)}
	if m.done {
		segments = append(segments, fmt.Sprintf("Cycles %d/%d", m.summary.Cycles, m.cfg.Cycles))
	} else {
		segments = append(segments, fmt.Sprintf("Cycle %d/%d", st.Cycle+1, st.TotalCycles))
	}
	segments = append(segments, fmt.Sprintf("Elapsed %ds", st.Elapsed))
	switch {
	case m.saveErr != nil:
		return footerStyle.Render(strings.Join(segments, "  ")) + "  " + errorStyle.Render("not saved: "+m.saveErr.Error())
	case m.saved:
		segments = append(segments, "Saved")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

// orbSize grows through inhale, holds, shrinks through exhale and rests small.
func orbSize(st breath.State) int {
	span := maxOrb - minOrb
	frac := 0.0
	if st.PhaseDuration > 0 {
		frac = float64(st.SecondsIntoPhase) / float64(st.PhaseDuration)
	}
	switch st.Phase {
	case breath.PhaseInhale:
		return minOrb + int(frac*float64(span))
	case breath.PhaseHold:
		return maxOrb
	case breath.PhaseExhale:
		return maxOrb - int(frac*float64(span))
	default:
		return minOrb
	}
}

func renderOrb(size int) string {
	if size < 1 {
		size = 1
	}
	rows := make([]string, 0, size/2+1)
	for i := 0; i < size/2+1; i++ {
		rows = append(rows, strings.Repeat("●", size))
	}
	return strings.Join(rows, "\n")
}
