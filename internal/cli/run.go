package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthbox/rulehub/internal/compiler"
	"github.com/hearthbox/rulehub/internal/engine"
	"github.com/hearthbox/rulehub/internal/ruleset"
	"github.com/hearthbox/rulehub/internal/simulator"
	"github.com/hearthbox/rulehub/internal/tracelog"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Events   string
	Slowdown time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <ruleset.json>",
		Short: "Run a rule script against the in-memory device simulator",
		Long: `Compile a rule script and start it against an in-memory Device API
simulator. If --events is given, the named event fixture file is replayed
against the simulator and the process exits once every instruction has
been delivered; otherwise the engine runs until interrupted.

Every event the engine emits is recorded to --db (default rulehub.db in
the current directory) via the append-only trace log.

Example:
  rulehub run --db ./rulehub.db ./rules.json
  rulehub run --db ./rulehub.db --events ./events.json --slowdown 0 ./rules.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "rulehub.db", "path to the trace log database")
	cmd.Flags().StringVar(&opts.Events, "events", "", "path to an event fixture file to replay, then exit")
	cmd.Flags().DurationVar(&opts.Slowdown, "slowdown", time.Millisecond, "per-millisecond delay multiplier applied to fixture timing")

	return cmd
}

func runEngine(opts *RunOptions, rulesetPath string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	slog.Info("loading ruleset", "path", rulesetPath)
	data, err := os.ReadFile(rulesetPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ruleset", err)
	}
	script, err := ruleset.Load(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load ruleset", err)
	}
	if _, err := compiler.Compile(script); err != nil {
		return WrapExitError(ExitFailure, "ruleset does not compile", err)
	}
	slog.Info("ruleset compiled", "rules", len(script.Rules))

	slog.Info("opening trace log", "path", opts.Database)
	trace, err := tracelog.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace log", err)
	}
	defer func() {
		if closeErr := trace.Close(); closeErr != nil {
			slog.Error("error closing trace log", "error", closeErr)
		}
	}()

	sim := simulator.New()
	ctrl := engine.New()

	sink := trace.Sink()
	if err := ctrl.Start(sim, script, sink); err != nil {
		return WrapExitError(ExitFailure, "engine failed to start", err)
	}
	slog.Info("engine started")

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	if opts.Events != "" {
		return replayAndStop(opts, ctx, sim, ctrl, cmd)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Fprintln(cmd.OutOrStdout(), "Engine started. Listening for events; press Ctrl-C to stop.")

	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}

	if err := ctrl.Stop(func(error) {}); err != nil {
		return WrapExitError(ExitFailure, "engine stop failed", err)
	}
	slog.Info("engine stopped gracefully")
	return nil
}

func replayAndStop(opts *RunOptions, ctx context.Context, sim *simulator.Simulator, ctrl *engine.Controller, cmd *cobra.Command) error {
	data, err := os.ReadFile(opts.Events)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events fixture", err)
	}
	instructions, err := simulator.LoadInstructions(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse events fixture", err)
	}

	slog.Info("replaying events", "count", len(instructions), "slowdown", opts.Slowdown)
	if err := simulator.Play(sim, instructions, opts.Slowdown); err != nil {
		_ = ctrl.Stop(func(error) {})
		return WrapExitError(ExitFailure, "event replay failed", err)
	}

	if err := ctrl.Stop(func(error) {}); err != nil {
		return WrapExitError(ExitFailure, "engine stop failed", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Replay complete.")
	slog.Info("engine stopped gracefully")
	return nil
}
