package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/target/jobdesk-api/internal/bootstrap"
	"github.com/target/jobdesk-api/internal/domain/model"
)

const defaultScopeListLimit = 100

type scopeOptions struct {
	Scope  model.ScopeKey
	DryRun bool
	Yes    bool
	JSON   bool
}

func parseScopeFlags(name string, args []string, allowWrite bool) (scopeOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts  scopeOptions
		scope string
	)
	fs.StringVar(&scope, "scope", "", "Scope key, e.g. technician:12 or status:pending")
	fs.BoolVar(&opts.JSON, "json", false, "Print the result as JSON")
	if allowWrite {
		fs.BoolVar(&opts.DryRun, "dry-run", false, "Only report what would change")
		fs.BoolVar(&opts.Yes, "yes", false, "Confirm the rewrite of stored priorities")
	}

	if err := fs.Parse(args); err != nil {
		return scopeOptions{}, err
	}

	opts.Scope = model.ScopeKey(strings.TrimSpace(scope))
	if opts.Scope == "" {
		return scopeOptions{}, errors.New("--scope is required")
	}
	if allowWrite && !opts.DryRun && !opts.Yes {
		return scopeOptions{}, errors.New("compact-scope rewrites priorities; pass --yes or --dry-run")
	}
	return opts, nil
}

func runVerifyScope(cmdCtx *commandContext, args []string) error {
	opts, err := parseScopeFlags("verify-scope", args, false)
	if err != nil {
		return err
	}

	return withServices(cmdCtx, false, func(ctx context.Context, services bootstrap.ServiceContainer) error {
		health, verr := services.Audit.VerifyScope(ctx, opts.Scope)
		if verr != nil {
			return verr
		}
		if opts.JSON {
			return writeJSON(cmdCtx.Out, health)
		}
		return printHealth(cmdCtx.Out, health)
	})
}

func runCompactScope(cmdCtx *commandContext, args []string) error {
	opts, err := parseScopeFlags("compact-scope", args, true)
	if err != nil {
		return err
	}

	return withServices(cmdCtx, false, func(ctx context.Context, services bootstrap.ServiceContainer) error {
		if opts.DryRun {
			health, verr := services.Audit.VerifyScope(ctx, opts.Scope)
			if verr != nil {
				return verr
			}
			if err := writef(cmdCtx.Out, "dry run: no priorities rewritten\n"); err != nil {
				return err
			}
			return printHealth(cmdCtx.Out, health)
		}

		res, cerr := services.Audit.CompactScope(ctx, opts.Scope)
		if cerr != nil {
			return cerr
		}
		cmdCtx.Logger.Info("scope compacted", "scope", res.Scope.String(), "open", res.Open, "changed", res.Changed)
		if opts.JSON {
			return writeJSON(cmdCtx.Out, res)
		}
		return writef(cmdCtx.Out, "%s: %d open, %d renumbered\n", res.Scope, res.Open, res.Changed)
	})
}

type listScopesOptions struct {
	Limit int
	JSON  bool
}

func parseListScopesFlags(args []string) (listScopesOptions, error) {
	fs := flag.NewFlagSet("list-scopes", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listScopesOptions{Limit: defaultScopeListLimit}
	fs.IntVar(&opts.Limit, "limit", defaultScopeListLimit, "Maximum number of scopes to print")
	fs.BoolVar(&opts.JSON, "json", false, "Print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return listScopesOptions{}, err
	}
	if opts.Limit <= 0 {
		return listScopesOptions{}, errors.New("--limit must be greater than zero")
	}
	return opts, nil
}

func runListScopes(cmdCtx *commandContext, args []string) error {
	opts, err := parseListScopesFlags(args)
	if err != nil {
		return err
	}

	return withServices(cmdCtx, false, func(ctx context.Context, services bootstrap.ServiceContainer) error {
		scopes, lerr := services.Audit.ListScopes(ctx, opts.Limit)
		if lerr != nil {
			return lerr
		}
		if opts.JSON {
			return writeJSON(cmdCtx.Out, scopes)
		}
		return printScopes(cmdCtx.Out, scopes)
	})
}

type auditOptions struct {
	Repair bool
}

func parseAuditFlags(args []string) (auditOptions, error) {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts auditOptions
	fs.BoolVar(&opts.Repair, "repair", false, "Compact drifted scopes instead of only reporting them")
	if err := fs.Parse(args); err != nil {
		return auditOptions{}, err
	}
	return opts, nil
}

func runAudit(cmdCtx *commandContext, args []string) error {
	opts, err := parseAuditFlags(args)
	if err != nil {
		return err
	}

	cmdCtx.Config.Audit.Repair = opts.Repair
	return withServices(cmdCtx, false, func(ctx context.Context, services bootstrap.ServiceContainer) error {
		report, aerr := services.Audit.RunOnce(ctx)
		if werr := writef(cmdCtx.Out, "scanned %d scopes, %d drifted, %d repaired, %d corrupt\n",
			report.Scanned, len(report.Drifted), len(report.Repaired), report.Corrupted); werr != nil {
			return werr
		}
		for _, h := range report.Drifted {
			if werr := printHealth(cmdCtx.Out, h); werr != nil {
				return werr
			}
		}
		return aerr
	})
}

func runClearLookupCache(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("clear-lookup-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cmdCtx.Config.Redis.Enabled {
		return writeln(cmdCtx.Out, "redis cache disabled; nothing to clear")
	}

	return withServices(cmdCtx, true, func(ctx context.Context, services bootstrap.ServiceContainer) error {
		if err := services.Lookups.Invalidate(ctx); err != nil {
			return fmt.Errorf("invalidate lookup cache: %w", err)
		}
		return writeln(cmdCtx.Out, "lookup cache cleared")
	})
}

func printHealth(w io.Writer, h model.ScopeHealth) error {
	state := "consistent"
	if !h.Consistent {
		state = "drifted"
	}
	if err := writef(w, "%s: %s (open=%d max=%d)\n", h.Scope, state, h.OpenCount, h.MaxPriority); err != nil {
		return err
	}
	for _, line := range []struct {
		label string
		ranks []int
	}{
		{"gaps", h.Gaps},
		{"duplicates", h.Duplicates},
		{"out of range", h.OutOfRange},
	} {
		if len(line.ranks) == 0 {
			continue
		}
		if err := writef(w, "  %s: %s\n", line.label, joinInts(line.ranks)); err != nil {
			return err
		}
	}
	return nil
}

func printScopes(w io.Writer, scopes []model.ScopeStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "SCOPE\tOPEN\tMAX\tDENSE\n"); err != nil {
		return err
	}
	for _, s := range scopes {
		if err := writef(tw, "%s\t%d\t%d\t%t\n", s.Scope, s.OpenCount, s.MaxPriority, s.Dense()); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
