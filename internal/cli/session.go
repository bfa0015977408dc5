package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mealdb/internal/config"
	"github.com/roach88/mealdb/internal/lifecycle"
	"github.com/roach88/mealdb/internal/logging"
	"github.com/roach88/mealdb/internal/progress"
	"github.com/roach88/mealdb/internal/store"
)

// session is everything a lifecycle command needs, built from config,
// environment and flags.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	medium *store.Medium
	mgr    *lifecycle.Manager
	out    *OutputFormatter
}

// newSession resolves configuration (file, then MEALDB_* environment, then
// flags), builds the logger and constructs a manager over the data
// directory.
func newSession(opts *RootOptions, cmd *cobra.Command, mopts ...lifecycle.Option) (*session, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg, err := config.Load(opts.ConfigPath, getenv)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Name != "" {
		cfg.Name = opts.Name
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid logging configuration", err)
	}

	medium := store.NewMedium(cfg.DataDir, store.WithLogger(logger))
	mgrOpts := append([]lifecycle.Option{
		lifecycle.WithName(cfg.Name),
		lifecycle.WithLogger(logger),
	}, mopts...)
	mgr, err := lifecycle.New(lifecycle.FromStore(medium), mgrOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create lifecycle manager", err)
	}

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	out.VerboseLog("%s: %s", cfg.DisplayName, medium.Path(cfg.Name))

	return &session{cfg: cfg, logger: logger, medium: medium, mgr: mgr, out: out}, nil
}

// Report is the JSON payload of a lifecycle command.
type Report struct {
	Command string `json:"command"`
	Store   string `json:"store"`
	State   string `json:"state"`

	// Emitted is every entry the command produced, in order.
	Emitted []progress.Entry `json:"emitted"`

	// View is the progress view when the command finished.
	View []progress.Entry `json:"view"`
}

func (s *session) report(command string, emitted []progress.Entry) Report {
	return Report{
		Command: command,
		Store:   s.cfg.DisplayName,
		State:   s.mgr.State().String(),
		Emitted: emitted,
		View:    s.mgr.Log().Snapshot(),
	}
}

// finish emits the JSON response (if selected) and maps err to an exit code.
// Text output has already been written by the caller.
func (s *session) finish(command string, rep Report, err error) error {
	if s.out.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: rep, RunID: s.mgr.RunID()}
		if err != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: errorCode(err), Message: err.Error()}
		}
		if encErr := s.out.encode(resp); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("%s failed", command), err)
	}
	return nil
}

// errorCode maps a lifecycle error to a stable CLI error code.
func errorCode(err error) string {
	return "E_" + strings.ToUpper(lifecycle.ErrorKind(err))
}
