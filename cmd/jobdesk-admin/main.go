// Command jobdesk-admin runs migrations and scope maintenance against the jobdesk store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/bootstrap"
	"github.com/target/jobdesk-api/internal/migrate"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 2 * time.Minute
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr)) //nolint:forbidigo // CLI exit status is the command result
}

// run dispatches args[0] and returns the process exit status: 2 for usage errors,
// 1 for configuration or command failures.
func run(args []string, stdout, stderr io.Writer) int {
	logger := bootstrap.InitLogger(false)
	if len(args) == 0 {
		_ = printUsage(stderr)
		return 2
	}

	cmd, ok := lookupCommand(args[0])
	if !ok {
		_ = writef(stderr, "unknown command %q\n\n", args[0])
		_ = printUsage(stderr)
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}
	if cfg.IsDev {
		logger = bootstrap.InitLogger(true)
	}

	cmdCtx := &commandContext{Ctx: context.Background(), Logger: logger, Config: cfg, Out: stdout}
	if err = cmd.run(cmdCtx, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		logger.Error("command failed", "command", cmd.name, "error", err)
		return 1
	}
	return 0
}

// commands lists the subcommands in the order usage prints them.
func commands() []command {
	return []command{
		{name: "migrate", description: "Run database migrations for the configured DB_DRIVER", run: runMigrations},
		{name: "list-scopes", description: "List scopes with open jobs and their rank counters", run: runListScopes},
		{name: "verify-scope", description: "Check that a scope's open priorities are exactly 1..N", run: runVerifyScope},
		{name: "compact-scope", description: "Renumber a scope's open jobs to 1..N keeping their order", run: runCompactScope},
		{name: "audit", description: "Verify every scope once, optionally repairing drift", run: runAudit},
		{name: "clear-lookup-cache", description: "Drop the cached job form lookup state from Redis", run: runClearLookupCache},
	}
}

func lookupCommand(name string) (command, bool) {
	i := slices.IndexFunc(commands(), func(c command) bool { return c.name == name })
	if i < 0 {
		return command{}, false
	}
	return commands()[i], true
}

func printUsage(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	if err := writef(tw, "Usage: jobdesk-admin <command> [flags]\n\nCommands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(tw, "  %s\t%s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, infra *adminInfra) error {
		if opts.Status {
			pending, perr := migrate.Pending(ctx, infra.DB, infra.Dialect)
			if perr != nil {
				return perr
			}
			return printPending(cmdCtx.Out, pending)
		}
		cmdCtx.Logger.Info("running database migrations", "dialect", string(infra.Dialect))
		return bootstrap.RunMigrations(ctx, infra.DB, infra.Dialect, cmdCtx.Logger)
	})
}

func printPending(w io.Writer, pending []migrate.Migration) error {
	if len(pending) == 0 {
		return writeln(w, "schema is up to date")
	}
	for _, m := range pending {
		if err := writef(w, "pending %s\n", m.Version); err != nil {
			return err
		}
	}
	return nil
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	opts := migrateOptions{}
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	fs.BoolVar(&opts.Status, "status", false, "List pending migrations without applying them")
	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

// commandTimeoutContext bounds a command and cancels it on SIGINT/SIGTERM.
func commandTimeoutContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
