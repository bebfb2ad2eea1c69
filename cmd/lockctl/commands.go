// cmd/lockctl/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/avivl/redis-lock/client/go/redislock"
	"github.com/avivl/redis-lock/internal/config"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/spf13/cobra"
)

const (
	// Version of lockctl.
	Version = "0.1.0"

	// exitContended follows EX_TEMPFAIL from sysexits.h.
	exitContended = 75
	exitFailure   = 1
)

// app carries what the subcommands share. newClient is replaceable in tests.
type app struct {
	configPath string
	newClient  func(ctx context.Context, cfg *redislock.Config, logger *observability.SLogger) (*redislock.Client, error)

	// onConfigChange observes reloads of the watched config file.
	onConfigChange func(*config.Config)

	logger   *observability.SLogger
	client   *redislock.Client
	shutdown func(context.Context) error
}

func newApp() *app {
	return &app{
		newClient: func(ctx context.Context, cfg *redislock.Config, logger *observability.SLogger) (*redislock.Client, error) {
			return redislock.New(ctx, cfg, redislock.WithLogger(logger))
		},
	}
}

// childError reports a child process that ran to completion with a non-zero status.
type childError struct {
	code int
}

func (e *childError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.code)
}

func childExitCode(err error) (int, bool) {
	var ce *childError
	if errors.As(err, &ce) {
		return ce.code, true
	}
	return 0, false
}

func exitCode(err error) int {
	if errors.Is(err, redislock.ErrAcquireTimeout) || errors.Is(err, redislock.ErrAcquireFailed) {
		return exitContended
	}
	return exitFailure
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lockctl",
		Short: "Run commands under a distributed lock or fair semaphore",
		Long: fmt.Sprintf(`lockctl (v%s)

Runs a command while holding a Redis-backed lock or one slot of a fair
semaphore. The exit status is the command's own, or %d when the lock or
slot could not be obtained.`, Version, exitContended),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a config file or a directory holding config.yaml")

	root.AddCommand(newLockCmd(a), newSemaphoreCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of lockctl",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lockctl v%s\n", Version)
		},
	}
}

func newLockCmd(a *app) *cobra.Command {
	var acquireTimeout, lease time.Duration
	cmd := &cobra.Command{
		Use:     "lock <name> -- <command> [args...]",
		Short:   "Run a command while holding a distributed lock",
		Args:    cobra.MinimumNArgs(2),
		PreRunE: a.setup,
		RunE: a.coordinated(func(cmd *cobra.Command, args []string) (int, error) {
			return redislock.WithLock(cmd.Context(), a.client, args[0], acquireTimeout, lease,
				func(ctx context.Context, holder string) (int, error) {
					a.logger.Infow("lock held", "lock", args[0], "holder", holder)
					return runChild(ctx, cmd, args[1:])
				})
		}),
	}
	cmd.Flags().DurationVar(&acquireTimeout, "acquire-timeout", 10*time.Second, "how long to wait for the lock (0 tries once)")
	cmd.Flags().DurationVar(&lease, "lease", 60*time.Second, "how long the lock survives without release")
	return cmd
}

func newSemaphoreCmd(a *app) *cobra.Command {
	var limit int64
	var lease time.Duration
	cmd := &cobra.Command{
		Use:     "semaphore <name> -- <command> [args...]",
		Short:   "Run a command while holding one slot of a fair semaphore",
		Args:    cobra.MinimumNArgs(2),
		PreRunE: a.setup,
		RunE: a.coordinated(func(cmd *cobra.Command, args []string) (int, error) {
			return redislock.WithFairSemaphore(cmd.Context(), a.client, args[0], limit, lease,
				func(ctx context.Context, holder string) (int, error) {
					a.logger.Infow("semaphore slot held", "semaphore", args[0], "holder", holder, "limit", limit)
					return runChild(ctx, cmd, args[1:])
				})
		}),
	}
	cmd.Flags().Int64Var(&limit, "limit", 1, "number of concurrent holders")
	cmd.Flags().DurationVar(&lease, "lease", 60*time.Second, "slot lease; leases above the renewal threshold are refreshed")
	return cmd
}

// setup loads configuration and builds the client for a coordination command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	bootstrap, err := observability.NewLogger(observability.LogLevelInfo.GetZapLevel())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	loader, cfg, err := config.Load(a.configPath, bootstrap)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger.Level.GetZapLevel())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger.Named("lockctl")

	// The running command keeps its client; edits apply to the next invocation.
	if file := loader.ConfigFileUsed(); file != "" {
		loader.AddWatcher(a.configChanged)
		loader.Watch()
		a.logger.Debugw("watching configuration", "file", file)
	}

	if cfg.Metrics.Exporter == observability.MetricsOTel {
		shutdown, err := observability.InitProvider(cmd.Context(), cfg.Observability)
		if err != nil {
			return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
		a.shutdown = shutdown
	}

	client, err := a.newClient(cmd.Context(), cfg, logger)
	if err != nil {
		return errors.Join(err, a.teardown(cmd.Context()))
	}
	a.client = client
	return nil
}

func (a *app) configChanged(cfg *config.Config) {
	a.logger.Infow("configuration changed, applies to the next run",
		"backend", cfg.Backend, "logLevel", cfg.Logger.Level)
	if a.onConfigChange != nil {
		a.onConfigChange(cfg)
	}
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Close())
		a.client = nil
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(context.WithoutCancel(ctx)))
		a.shutdown = nil
	}
	return errors.Join(errs...)
}

func runChild(ctx context.Context, cmd *cobra.Command, argv []string) (int, error) {
	child := exec.CommandContext(ctx, argv[0], argv[1:]...)
	child.Stdin = cmd.InOrStdin()
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()

	err := child.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return exitFailure, fmt.Errorf("failed to run %q: %w", argv[0], err)
	}
	return 0, nil
}

// coordinated wraps a run that yields the child's exit status. The client is
// closed on every path.
func (a *app) coordinated(fn func(cmd *cobra.Command, args []string) (int, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.teardown(cmd.Context()))
		}()
		code, err := fn(cmd, args)
		if err != nil {
			return err
		}
		if code != 0 {
			return &childError{code: code}
		}
		return nil
	}
}
