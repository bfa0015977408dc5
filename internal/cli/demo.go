package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/mealdb/internal/lifecycle"
	"github.com/roach88/mealdb/internal/progress"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions

	// RunIDs allows overriding the run ID generator (for testing).
	RunIDs lifecycle.RunIDGenerator
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:   "demo",
		Short: "Run, close and delete the database in one session",
		Long: `Press all three buttons in order against one manager: run, close and
delete. Every progress line is printed as it is emitted.

A failing run does not stop the sequence; close and delete still run and
the first failure sets the exit code.

Example:
  mealdb demo --data-dir "$(mktemp -d)"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
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
		s.out.Lines([]string{e.Text})
	})
	defer cancel()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"run", func() error { return s.mgr.OpenAndRun(ctx) }},
		{"close", func() error { return s.mgr.Close(ctx) }},
		{"delete", func() error { return s.mgr.DeleteStore(ctx) }},
	}

	var first error
	for _, step := range steps {
		if err := step.fn(); err != nil {
			s.logger.Warn("demo step failed", "step", step.name, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return s.finish("demo", s.report("demo", rec.Entries()), first)
}
