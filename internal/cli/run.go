package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/mealdb/internal/lifecycle"
	"github.com/roach88/mealdb/internal/progress"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Watch bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to lifecycle.UUIDv7Generator.
	RunIDs lifecycle.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open, check, populate and query the database",
		Long: `Open the Meal Database, check the Meals table, create and seed it if it
is missing, list every meal and close the database.

Without --watch the final progress view is printed when the run is over.
With --watch every progress line is printed as it happens.

Example:
  mealdb run --data-dir ./data
  mealdb run --watch --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "print progress lines as they are emitted")

	return cmd
}

func runLifecycle(opts *RunOptions, cmd *cobra.Command) error {
	var mopts []lifecycle.Option
	if opts.RunIDs != nil {
		mopts = append(mopts, lifecycle.WithRunIDGenerator(opts.RunIDs))
	}
	s, err := newSession(opts.RootOptions, cmd, mopts...)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	rec := &progress.Recorder{}
	cancel := s.mgr.Log().Watch(func(e progress.Entry) {
		rec.Record(e)
		s.out.VerboseLog("%s", formatEntry(e))
		if opts.Watch {
			s.out.Lines([]string{e.Text})
		}
	})
	defer cancel()

	runErr := s.mgr.OpenAndRun(ctx)
	s.logger.Debug("run complete", "run_id", s.mgr.RunID(), "state", s.mgr.State())

	if !opts.Watch {
		s.out.Lines(s.mgr.Log().Texts())
	}
	return s.finish("run", s.report("run", rec.Entries()), runErr)
}

// NewCloseCommand creates the close command.
func NewCloseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the database if this process holds it open",
		Long: `Close the database handle held by this process.

A fresh process never holds a handle, so this reports that the database
was not opened. It exists so that scripted sessions can issue the same
three commands a user would: run, close and delete.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return simpleLifecycle(rootOpts, cmd, "close", func(ctx context.Context, m *lifecycle.Manager) error {
				return m.Close(ctx)
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the database files",
		Long: `Delete the database file and its WAL and shared-memory companions.

Deleting a database that does not exist succeeds. The next run starts
from scratch and seeds the catalogue again.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return simpleLifecycle(rootOpts, cmd, "delete", func(ctx context.Context, m *lifecycle.Manager) error {
				return m.DeleteStore(ctx)
			})
		},
	}
}

func simpleLifecycle(opts *RootOptions, cmd *cobra.Command, name string, op func(context.Context, *lifecycle.Manager) error) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd)
	defer stop()

	rec := &progress.Recorder{}
	cancel := s.mgr.Log().Watch(rec.Record)
	defer cancel()

	opErr := op(ctx, s.mgr)
	s.out.Lines(rec.Texts())
	return s.finish(name, s.report(name, rec.Entries()), opErr)
}

// signalContext derives a context from the command's (if any) that is
// cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// formatEntry renders an entry for --verbose diagnostics.
func formatEntry(e progress.Entry) string {
	marker := ""
	if e.Reset {
		marker = " (reset)"
	}
	return fmt.Sprintf("#%d %s%s", e.Seq, e.Text, marker)
}
