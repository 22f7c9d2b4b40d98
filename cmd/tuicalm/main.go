// Package main provides the CLI entrypoint for tuicalm.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuicalm/internal/breath"
	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/clock"
	"github.com/verte-zerg/tuicalm/internal/config"
	"github.com/verte-zerg/tuicalm/internal/guidance"
	"github.com/verte-zerg/tuicalm/internal/logging"
	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/recorder"
	"github.com/verte-zerg/tuicalm/internal/relax"
	"github.com/verte-zerg/tuicalm/internal/server"
	"github.com/verte-zerg/tuicalm/internal/stats"
	"github.com/verte-zerg/tuicalm/internal/statsui"
	"github.com/verte-zerg/tuicalm/internal/store"
	"github.com/verte-zerg/tuicalm/internal/syncq"
	"github.com/verte-zerg/tuicalm/internal/tui"
)

const (
	defaultPattern  = "box"
	defaultCycles   = 4
	defaultLevel    = "beginner"
	defaultMode     = "text"
	defaultAddr     = ":8080"
	defaultLogLevel = "info"
)

var (
	breathPattern string
	breathCycles  int

	relaxLevel    string
	relaxDuration int
	relaxMode     string

	statsTechnique string
	statsSince     string
	statsLast      int
	statsDays      int
	statsPlain     bool

	syncEndpoint string
	serveAddr    string
	configPrint  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuicalm",
		Short:         "TUI breathwork and relaxation trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runBreatheCmd,
	}

	rootCmd.Flags().StringVar(&breathPattern, "pattern", defaultPattern, "breathing pattern ("+strings.Join(breath.PatternNames(), ", ")+")")
	rootCmd.Flags().IntVar(&breathCycles, "cycles", defaultCycles, "number of breathing cycles")

	rootCmd.AddCommand(newRelaxCmd())
	rootCmd.AddCommand(newTechniquesCmd())
	rootCmd.AddCommand(newPatternsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newGoalCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app holds what every data command opens.
type app struct {
	logger   *zap.Logger
	store    *store.Store
	clock    clock.Clock
	loc      *time.Location
	tracker  *relax.Tracker
	recorder *recorder.Recorder
}

func loadFileConfig() (config.FileConfig, error) {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openApp(ctx context.Context, cfg config.FileConfig) (*app, error) {
	loc, err := resolveLocation(cfg.Relax.Timezone)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(stringOr(cfg.Log.Path, config.DefaultLogPath()), stringOr(cfg.Log.Level, defaultLogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to init logging: %w", err)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	clk := clock.System{}
	a := &app{
		logger:  logger,
		store:   st,
		clock:   clk,
		loc:     loc,
		tracker: relax.NewTracker(clk, relax.WithLocation(loc)),
	}
	a.recorder = recorder.New(st,
		recorder.WithSync(cfg.Sync.Enabled != nil && *cfg.Sync.Enabled),
		recorder.WithLogger(logger),
		recorder.WithClock(clk))

	if err := a.restore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) restore(ctx context.Context) error {
	progress, err := a.store.LoadProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	history, err := a.store.ListHistory(ctx, relax.HistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	a.tracker.Restore(progress, history)

	seen, err := a.store.WeekSeen(ctx)
	if err != nil {
		return fmt.Errorf("failed to load week marker: %w", err)
	}
	if a.tracker.RolloverWeek(seen) {
		a.logger.Info("new week, weekly progress reset", zap.Time("week", a.tracker.Week()))
		if err := a.recorder.SaveProgress(ctx, a.tracker.AllProgress()); err != nil {
			return err
		}
	}
	if !a.tracker.Week().Equal(seen) {
		if err := a.store.SetWeekSeen(ctx, a.tracker.Week()); err != nil {
			return fmt.Errorf("failed to save week marker: %w", err)
		}
	}
	return nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	// Sync fails on non-file outputs; nothing useful to report.
	_ = a.logger.Sync()
}

func runBreatheCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "pattern", &breathPattern, fileCfg.Breath.Pattern)
	applyIntConfig(cmd, "cycles", &breathCycles, fileCfg.Breath.Cycles)

	pattern, ok := breath.LookupPattern(breathPattern)
	if !ok {
		return fmt.Errorf("%w: unknown pattern %q (available: %s)", model.ErrInvalidConfig, breathPattern, strings.Join(breath.PatternNames(), ", "))
	}
	if breathCycles <= 0 {
		return fmt.Errorf("%w: --cycles must be > 0", model.ErrInvalidConfig)
	}

	a, err := openApp(cmd.Context(), fileCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := tui.NewBreathModel(tui.BreathConfig{
		PatternName: breathPattern,
		Pattern:     pattern,
		Cycles:      breathCycles,
		Recorder:    a.recorder,
		Clock:       a.clock,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newRelaxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relax <technique>",
		Short: "Run a guided relaxation technique session",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelaxCmd,
	}
	cmd.Flags().StringVar(&relaxLevel, "level", defaultLevel, "practice level (beginner, intermediate, advanced)")
	cmd.Flags().IntVar(&relaxDuration, "duration", 0, "session length in minutes (default: technique's shortest)")
	cmd.Flags().StringVar(&relaxMode, "mode", defaultMode, "guidance mode (text, audio, visual)")
	return cmd
}

func runRelaxCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "level", &relaxLevel, fileCfg.Relax.Level)
	applyIntConfig(cmd, "duration", &relaxDuration, fileCfg.Relax.Duration)
	applyStringConfig(cmd, "mode", &relaxMode, fileCfg.Relax.Mode)

	technique, ok := catalog.Lookup(args[0])
	if !ok {
		return unknownTechniqueError(args[0])
	}
	level, ok := model.ParseLevel(relaxLevel)
	if !ok {
		return fmt.Errorf("%w: invalid --level %q", model.ErrInvalidConfig, relaxLevel)
	}
	if !technique.SupportsLevel(level) {
		return fmt.Errorf("%w: %s is not offered at %s", model.ErrInvalidConfig, technique.Name, level)
	}
	if relaxDuration < 0 {
		return fmt.Errorf("%w: --duration must be >= 0", model.ErrInvalidConfig)
	}
	if relaxDuration == 0 {
		relaxDuration = technique.DefaultDuration()
	}
	mode, err := parseMode(relaxMode)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), fileCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	m := tui.NewRelaxModel(tui.RelaxConfig{
		Tracker:       a.tracker,
		Technique:     technique,
		Level:         level,
		TargetMinutes: relaxDuration,
		Guidance:      guidance.DefaultChain(mode),
		Recorder:      a.recorder,
		Logger:        a.logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if c, ok := m.Completion(); ok {
		return printCompletion(cmd, technique, c)
	}
	return nil
}

func printCompletion(cmd *cobra.Command, technique catalog.Technique, c relax.Completion) error {
	out := cmd.OutOrStdout()
	p := c.Progress
	lines := []string{
		fmt.Sprintf("Completed %s (%.0f min).", technique.Name, c.Record.DurationMinutes),
		fmt.Sprintf("Sessions %d, streak %d, week %d/%d.", p.CompletedSessions, p.Streak, p.WeeklyProgress, p.WeeklyGoal),
	}
	if c.Promoted() {
		lines = append(lines, fmt.Sprintf("Level up: %s -> %s", c.PreviousLevel, p.Level))
	}
	for _, d := range c.Unlocked {
		lines = append(lines, fmt.Sprintf("Achievement unlocked: %s (%s)", d.Name, d.Description))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func parseMode(s string) (guidance.Mode, error) {
	switch m := guidance.Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case guidance.ModeText, guidance.ModeAudio, guidance.ModeVisual:
		return m, nil
	default:
		return "", fmt.Errorf("%w: invalid --mode %q (text, audio, visual)", model.ErrInvalidConfig, s)
	}
}

func unknownTechniqueError(id string) error {
	ids := make([]string, 0)
	for _, t := range catalog.List() {
		ids = append(ids, t.ID)
	}
	return fmt.Errorf("%w: %q (available: %s)", model.ErrUnknownTechnique, id, strings.Join(ids, ", "))
}

func newTechniquesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "techniques",
		Short: "List relaxation techniques",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return stats.RenderTechniques(cmd.OutOrStdout(), catalog.List())
		},
	}
}

func newPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List breathing patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return stats.RenderPatterns(cmd.OutOrStdout())
		},
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show progress, history and achievements",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsTechnique, "technique", "", "technique filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsDays, "days", stats.DefaultHistoryDays, "days shown in the daily minutes chart")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), fileCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, a.loc)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsTechnique != "" {
		if _, ok := catalog.Lookup(statsTechnique); !ok {
			return unknownTechniqueError(statsTechnique)
		}
	}
	cfg := model.StatsConfig{
		Technique:   statsTechnique,
		Since:       sinceTime,
		Last:        statsLast,
		HistoryDays: statsDays,
	}

	out := cmd.OutOrStdout()
	if statsPlain || !stats.IsTerminal(out) {
		report, err := stats.BuildReport(cmd.Context(), a.store, cfg, a.clock.Now(), a.loc)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return stats.RenderReport(out, report, stats.RenderOptions{
			Location: a.loc,
			Color:    stats.IsTerminal(out),
		})
	}

	m := statsui.NewModel(a.store, cfg, a.clock, a.loc)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goal <technique> <sessions>",
		Short: "Set the weekly session goal for a technique",
		Args:  cobra.ExactArgs(2),
		RunE:  runGoalCmd,
	}
}

func runGoalCmd(cmd *cobra.Command, args []string) error {
	if _, ok := catalog.Lookup(args[0]); !ok {
		return unknownTechniqueError(args[0])
	}
	goal, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: invalid goal %q", model.ErrInvalidConfig, args[1])
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), fileCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.tracker.SetWeeklyGoal(args[0], goal)
	if err != nil {
		if errors.Is(err, model.ErrUnknownTechnique) {
			return fmt.Errorf("%w: complete a %s session first", err, args[0])
		}
		return err
	}
	if err := a.recorder.SaveProgress(cmd.Context(), map[string]model.TechniqueProgress{args[0]: p}); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Weekly goal for %s set to %d (%d done this week).\n", args[0], p.WeeklyGoal, p.WeeklyProgress)
	return err
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push queued sessions to the sync endpoint",
		Args:  cobra.NoArgs,
		RunE:  runSyncCmd,
	}
	cmd.Flags().StringVar(&syncEndpoint, "endpoint", "", "sync endpoint base URL")
	return cmd
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "endpoint", &syncEndpoint, fileCfg.Sync.Endpoint)
	if strings.TrimSpace(syncEndpoint) == "" {
		return fmt.Errorf("%w: no sync endpoint (set [sync] endpoint or --endpoint)", model.ErrInvalidConfig)
	}
	a, err := openApp(cmd.Context(), fileCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	q := syncq.New(a.store, syncq.NewHTTPSender(syncEndpoint), a.logger)
	res, err := q.Flush(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to flush sync queue: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Sent %d, failed %d, dropped %d.\n", res.Sent, res.Failed, res.Dropped)
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve progress over HTTP and accept synced sessions",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, fileCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	logErrf("Listening on %s\n", serveAddr)
	return server.NewAPI(a.store, a.logger).ListenAndServe(ctx, serveAddr)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPrint, "print", false, "print the config path and contents instead of opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := config.SaveConfig(path, config.Defaults()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	if configPrint {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	edit := exec.Command(parts[0], append(parts[1:], path)...)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func resolveLocation(name *string) (*time.Location, error) {
	if name == nil || *name == "" || *name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(*name)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid [relax] timezone %q: %w", model.ErrInvalidConfig, *name, err)
	}
	return loc, nil
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
