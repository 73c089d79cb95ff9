package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/fathom/internal/config"
	"github.com/harrison/fathom/internal/history"
	"github.com/harrison/fathom/internal/logger"
	"github.com/harrison/fathom/internal/rules"
)

// NewHistoryCommand creates the 'fathom history' command
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded walks",
		Long: `List walks recorded with 'fathom find --history', newest first.

Examples:
  fathom history
  fathom history --limit 5
  fathom history show 3f2a          # Show one run by id or id prefix
  fathom history prune --older-than 30d
  fathom history info               # Show the database path and schema version`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, limit)
		},
	}

	cmd.PersistentFlags().String("db", "", "Path to history database (default: .fathom/history.db)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 = all)")

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryPruneCommand())
	cmd.AddCommand(newHistoryInfoCommand())

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded walk",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func newHistoryPruneCommand() *cobra.Command {
	var olderThan string
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs from history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryPrune(cmd, olderThan, yes)
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "", "Delete runs started longer ago than this (e.g., 72h, 30d)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	_ = cmd.MarkFlagRequired("older-than")

	return cmd
}

func newHistoryInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the history database and its schema version",
		Args:  cobra.NoArgs,
		RunE:  runHistoryInfo,
	}
}

// historyDBPath returns the --db flag or the configured database path.
func historyDBPath(cmd *cobra.Command) (string, error) {
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		return dbPath, nil
	}
	project, err := config.FindProjectDir(".")
	if err != nil {
		return "", fmt.Errorf("failed to locate project directory: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(project)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ResolvePaths(project)
	return cfg.History.DBPath, nil
}

// openHistory opens the store, or returns nil when nothing was recorded yet.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	dbPath, err := historyDBPath(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded yet.\nDatabase path: %s\n", dbPath)
		return nil, nil
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, limit int) error {
	store, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "%-8s  %-19s  %8s  %7s  %6s  %6s  %6s  %s\n",
		"ID", "STARTED", "DURATION", "FILES", "DIRS", "BROKEN", "ERRORS", "ROOT")
	for _, r := range runs {
		root := r.Root
		if r.Partial {
			root += color.YellowString(" (partial)")
		}
		fmt.Fprintf(w, "%-8s  %-19s  %8s  %7d  %6d  %6d  %6d  %s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			logger.FormatDuration(r.Duration),
			r.Files, r.Dirs, r.BrokenSymlinks, r.Errors, root)
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printRunDetail(cmd.OutOrStdout(), run)
	return nil
}

func printRunDetail(w io.Writer, run *history.RunDetail) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Root:            %s\n", run.Root)
	fmt.Fprintf(w, "  Started:         %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "  Duration:        %s\n", logger.FormatDuration(run.Duration))
	if run.Partial {
		fmt.Fprintf(w, "  Status:          %s\n", color.YellowString("partial"))
	}
	fmt.Fprintf(w, "  Files:           %d\n", run.Files)
	fmt.Fprintf(w, "  Directories:     %d\n", run.Dirs)
	fmt.Fprintf(w, "  Total bytes:     %d\n", run.TotalBytes)
	fmt.Fprintf(w, "  Broken symlinks: %d\n", run.BrokenSymlinks)
	fmt.Fprintf(w, "  Errors:          %d\n", run.Errors)

	if len(run.BrokenPaths) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Broken symlinks:")
		for _, p := range run.BrokenPaths {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	if len(run.ErrorList) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Errors:")
		for _, e := range run.ErrorList {
			fmt.Fprintf(w, "  [%s] %s\n", e.Kind, e.Message)
		}
	}
}

func runHistoryInfo(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	latest, err := store.GetLatestVersion(ctx)
	if err != nil {
		return err
	}
	versions, err := store.GetAppliedVersions(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	dbPath, _ := historyDBPath(cmd)
	fmt.Fprintf(w, "Database:       %s\n", dbPath)
	fmt.Fprintf(w, "Schema version: %d\n", latest)
	fmt.Fprintln(w)
	color.New(color.Bold).Fprintln(w, "Applied migrations:")
	for _, v := range versions {
		fmt.Fprintf(w, "  %d  %s  %s\n", v.Version, v.AppliedAt.Local().Format("2006-01-02 15:04:05"), v.Description)
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, olderThan string, yes bool) error {
	age, err := rules.ParseAge(olderThan)
	if err != nil || age <= 0 {
		return fmt.Errorf("invalid --older-than %q: want a positive age like 72h or 30d", olderThan)
	}

	store, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	cutoff := time.Now().Add(-age)
	output := cmd.OutOrStdout()
	if !yes {
		fmt.Fprintf(output, "Delete all runs started before %s?\n", cutoff.Local().Format(time.RFC3339))
		if !confirmAction(cmd.InOrStdin(), output) {
			fmt.Fprintln(output, "Cancelled.")
			return nil
		}
	}

	n, err := store.DeleteRunsBefore(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "Deleted %d run(s).\n", n)
	return nil
}

// confirmAction prompts for a yes/no answer; anything but y or yes is no.
func confirmAction(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Continue? [y/N]: ")
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
