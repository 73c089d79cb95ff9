package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/fathom/internal/config"
	"github.com/harrison/fathom/internal/display"
	"github.com/harrison/fathom/internal/history"
	"github.com/harrison/fathom/internal/logger"
	"github.com/harrison/fathom/internal/report"
	"github.com/harrison/fathom/internal/rules"
	"github.com/harrison/fathom/internal/walker"
	"github.com/harrison/fathom/internal/watch"
)

// ErrPartialWalk is returned when a walk ended before covering the whole tree.
var ErrPartialWalk = errors.New("walk interrupted")

// NewFindCommand creates the find command
func NewFindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <path>",
		Short: "Walk a directory tree and report what it contains",
		Long: `Walk a directory tree concurrently and report every file and directory,
following symbolic links to their final target.

Links whose chains end at a missing path are reported as broken. Permission
problems and other filesystem errors are collected and reported; they never
stop the walk.

Configuration is loaded from .fathom/config.yaml in the project directory
(the nearest ancestor holding a .fathom directory, or $FATHOM_HOME).
CLI flags override configuration file settings.

Examples:
  fathom find .
  fathom find /srv/data --format json --output report.json
  fathom find ~/src --timeout 30s --max-concurrency 16
  fathom find . --history                 # Record the run in history
  fathom find . --watch                   # Re-walk whenever the tree changes`,
		Args: cobra.ExactArgs(1),
		RunE: runFind,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .fathom/config.yaml)")
	cmd.Flags().String("format", "", "Report format: text, json, yaml, markdown, html")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().Int("max-concurrency", 0, "Maximum concurrent filesystem calls (0 = default)")
	cmd.Flags().String("timeout", "", "Maximum walk time (e.g., 30s, 5m)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run logs")
	cmd.Flags().Bool("history", false, "Record the run in the history database")
	cmd.Flags().Bool("watch", false, "Keep running and re-walk when the tree changes")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress console logging (the run log is still written)")

	return cmd
}

// findRun holds everything one invocation of find needs between walks.
type findRun struct {
	root    string
	cfg     *config.Config
	project string
	filter  walker.Filter
	format  report.Format
	color   bool
	log     logger.Logger
	store   *history.Store
	stdout  io.Writer
	stderr  io.Writer
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, project, err := loadFindConfig(cmd)
	if err != nil {
		return err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor {
		color.NoColor = true
	}

	filter, err := rules.Compile(cfg.Filter)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}

	run := &findRun{
		root:    root,
		cfg:     cfg,
		project: project,
		filter:  filter,
		format:  format,
		color:   !noColor && cfg.Output == "" && isTerminal(cmd.OutOrStdout()),
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
	}

	var consoleLog logger.Logger = logger.NewConsoleLogger(run.stderr, cfg.LogLevel)
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		consoleLog = logger.NewNoOpLogger()
	}
	var fileLog *logger.FileLogger
	if cfg.LogDir != "" {
		fileLog, err = logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
	}
	run.log = logger.Multi(consoleLog, fileLogOrNil(fileLog))

	if cfg.History.Enabled {
		run.store, err = history.NewStore(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer run.store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchFlag, _ := cmd.Flags().GetBool("watch")
	if watchFlag {
		return run.watch(ctx)
	}

	_, err = run.once(ctx)
	return err
}

// loadFindConfig loads the config file, applies changed flags and resolves
// relative paths against the project directory.
func loadFindConfig(cmd *cobra.Command) (*config.Config, string, error) {
	project, err := config.FindProjectDir(".")
	if err != nil {
		return nil, "", fmt.Errorf("failed to locate project directory: %w", err)
	}

	var cfg *config.Config
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(project)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
	}
	// Paths from the config file are relative to the project; paths given as
	// flags are relative to the working directory.
	cfg.ResolvePaths(project)

	var maxConcurrencyPtr *int
	if cmd.Flags().Changed("max-concurrency") {
		v, _ := cmd.Flags().GetInt("max-concurrency")
		maxConcurrencyPtr = &v
	}

	var timeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		timeoutStr, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, "", fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		timeoutPtr = &timeout
	}

	stringFlag := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}

	var historyPtr *bool
	if cmd.Flags().Changed("history") {
		v, _ := cmd.Flags().GetBool("history")
		historyPtr = &v
	}

	cfg.MergeWithFlags(maxConcurrencyPtr, timeoutPtr,
		stringFlag("log-level"), stringFlag("log-dir"),
		stringFlag("format"), stringFlag("output"), historyPtr)

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, project, nil
}

// once runs a single walk and delivers its report. The report is returned
// even when the walk was cut short.
func (r *findRun) once(ctx context.Context) (*report.Report, error) {
	walkCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		walkCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	r.log.LogWalkStart(r.root)
	started := time.Now()
	res, walkErr := walker.Find(walkCtx, r.root, walker.Options{
		Filter:         r.filter,
		MaxConcurrency: r.cfg.MaxConcurrency,
		Logger:         r.log,
	})
	if walkErr != nil && !walker.IsCanceled(walkErr) {
		return nil, walkErr
	}
	duration := time.Since(started)

	rep := report.New(r.root, started, duration, res)
	rep.Partial = walkErr != nil
	r.log.LogWalkSummary(r.root, rep.Result, duration)

	if err := r.deliver(rep); err != nil {
		return rep, err
	}

	if r.store != nil {
		// A Ctrl+C that cut the walk short should still leave a history entry
		if err := r.store.Record(context.WithoutCancel(ctx), rep); err != nil {
			r.log.LogWarn(fmt.Sprintf("failed to record run: %v", err))
		} else {
			r.log.LogDebug(fmt.Sprintf("recorded run %s", rep.ID))
		}
	}

	display.DisplayResult(r.stderr, rep.Result)
	if rep.Partial {
		display.WarnPartial(walkErr).Display(r.stderr)
		return rep, fmt.Errorf("%w: %v", ErrPartialWalk, walkErr)
	}
	return rep, nil
}

func (r *findRun) deliver(rep *report.Report) error {
	opts := report.Options{Color: r.color}
	if r.cfg.Output == "" {
		return report.Render(r.stdout, r.format, rep, opts)
	}
	if err := report.WriteFile(r.cfg.Output, r.format, rep, opts); err != nil {
		return err
	}
	r.log.LogInfo(fmt.Sprintf("report written to %s", r.cfg.Output))
	return nil
}

// watch walks once, then again after every debounced change until ctx ends.
func (r *findRun) watch(ctx context.Context) error {
	w, err := watch.New(r.root, watch.Options{
		Debounce: r.cfg.Watch.Debounce,
		Ignore:   r.ignored,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	status := display.NewWatchIndicator(r.stderr, r.root)
	status.Start()

	walkOnce := func() error {
		started := time.Now()
		rep, err := r.once(ctx)
		if err != nil && !errors.Is(err, ErrPartialWalk) {
			return err
		}
		if rep != nil {
			status.Complete(rep.Result, time.Since(started))
		}
		return nil
	}

	if err := walkOnce(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			r.log.LogInfo(fmt.Sprintf("stopped watching %s after %d re-walk(s)", r.root, status.Runs()))
			return nil
		case change := <-w.Changes():
			status.Changed(change.Paths)
			if err := walkOnce(); err != nil {
				return err
			}
		case err := <-w.Errors():
			r.log.LogWarn(fmt.Sprintf("watch: %v", err))
		}
	}
}

// ignored keeps fathom's own writes from triggering another walk: the
// .fathom directory and the report file with its lock and temp files.
func (r *findRun) ignored(path string) bool {
	if within(path, filepath.Join(r.project, config.DirName)) {
		return true
	}
	if r.cfg.LogDir != "" && within(path, absPath(r.cfg.LogDir)) {
		return true
	}
	if r.cfg.Output != "" {
		out := absPath(r.cfg.Output)
		if path == out || path == out+".lock" {
			return true
		}
		if filepath.Dir(path) == filepath.Dir(out) &&
			strings.HasPrefix(filepath.Base(path), "."+filepath.Base(out)+".tmp-") {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// fileLogOrNil keeps a nil *FileLogger from becoming a non-nil interface.
func fileLogOrNil(fl *logger.FileLogger) logger.Logger {
	if fl == nil {
		return nil
	}
	return fl
}
