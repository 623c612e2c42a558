package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/checkscam/checkscam-backend/internal/adapter/postgres"
	"github.com/checkscam/checkscam-backend/internal/app"
	"github.com/checkscam/checkscam-backend/internal/auth"
	"github.com/checkscam/checkscam-backend/internal/config"
	"github.com/checkscam/checkscam-backend/internal/domain"
	"github.com/checkscam/checkscam-backend/internal/transport/rest"
	"github.com/checkscam/checkscam-backend/migrations"
)

// coreOpener connects the lookup core for commands that need storage.
type coreOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.Core, error)

func openCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.Core, error) {
	// One-shot commands gain nothing from the LRU tier.
	cfg.Lookup.MemoryCacheSize = 0
	return app.NewCore(ctx, cfg, logger)
}

type cli struct {
	out  io.Writer
	open coreOpener

	configPath string

	actor     string
	auditN    int
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
}

func newRootCmd(out io.Writer, open coreOpener) *cobra.Command {
	c := &cli{out: out, open: open}

	root := &cobra.Command{
		Use:           "lookupctl",
		Short:         "Operate the checkscam lookup cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (overrides CONFIG_PATH)")

	explain := &cobra.Command{
		Use:   "explain <type> <value>",
		Short: "Print the admin lookup report for a key",
		Args:  cobra.ExactArgs(2),
		RunE:  c.runExplain,
	}
	explain.Flags().StringVar(&c.actor, "actor", "", "operator user id recorded in the audit log")

	invalidate := &cobra.Command{
		Use:   "invalidate <type> <value>",
		Short: "Drop the cached verdict so the next lookup recomputes it",
		Args:  cobra.ExactArgs(2),
		RunE:  c.runInvalidate,
	}
	invalidate.Flags().StringVar(&c.actor, "actor", "", "operator user id recorded in the audit log")

	audit := &cobra.Command{
		Use:   "audit <type> <value>",
		Short: "Show recent admin actions on a key",
		Args:  cobra.ExactArgs(2),
		RunE:  c.runAudit,
	}
	audit.Flags().IntVarP(&c.auditN, "lines", "n", 20, "number of records to show")

	token := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token, e.g. to bootstrap the first admin",
		Args:  cobra.NoArgs,
		RunE:  c.runToken,
	}
	token.Flags().StringVar(&c.tokenUser, "user", "", "subject user id (generated when empty)")
	token.Flags().StringVar(&c.tokenRole, "role", string(domain.RoleAdmin), "role claim: user or admin")
	token.Flags().DurationVar(&c.tokenTTL, "ttl", 0, "token lifetime (defaults to auth.access_token_ttl)")

	root.AddCommand(
		&cobra.Command{
			Use:   "lookup <type> <value>",
			Short: "Look up a PHONE, BANK or URL, caching the verdict on a miss",
			Args:  cobra.ExactArgs(2),
			RunE:  c.runLookup,
		},
		explain,
		invalidate,
		audit,
		&cobra.Command{
			Use:   "stats",
			Short: "Show how many keys are cached and how many carry reports",
			Args:  cobra.NoArgs,
			RunE:  c.runStats,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			Args:  cobra.NoArgs,
			RunE:  c.runMigrate,
		},
		token,
	)
	return root
}

func (c *cli) setup() (*config.Config, *slog.Logger, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	// Keep stdout clean for command output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return cfg, logger, nil
}

func (c *cli) withCore(cmd *cobra.Command, fn func(*app.Core) error) error {
	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}
	core, err := c.open(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()
	return fn(core)
}

func (c *cli) caller() (domain.Caller, error) {
	caller := domain.Caller{Role: domain.RoleAdmin}
	if c.actor == "" {
		return caller, nil
	}
	id, err := uuid.Parse(c.actor)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("--actor: %w", err)
	}
	caller.UserID = id
	return caller, nil
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) runLookup(cmd *cobra.Command, args []string) error {
	return c.withCore(cmd, func(core *app.Core) error {
		entry, err := core.Lookup.LookupByType(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return c.print(rest.NewLookupResponse(entry))
	})
}

func (c *cli) runExplain(cmd *cobra.Command, args []string) error {
	caller, err := c.caller()
	if err != nil {
		return err
	}
	return c.withCore(cmd, func(core *app.Core) error {
		report, err := core.Admin.Lookup(cmd.Context(), caller, args[0], args[1])
		if err != nil {
			return err
		}
		return c.print(rest.NewAdminLookupResponse(report))
	})
}

func (c *cli) runInvalidate(cmd *cobra.Command, args []string) error {
	caller, err := c.caller()
	if err != nil {
		return err
	}
	et, err := domain.ParseEntityType(args[0])
	if err != nil {
		return err
	}
	return c.withCore(cmd, func(core *app.Core) error {
		removed, err := core.Lookup.Invalidate(cmd.Context(), caller, et, args[1])
		if err != nil {
			return err
		}
		return c.print(map[string]bool{"invalidated": removed})
	})
}

type auditLine struct {
	At      time.Time      `json:"at"`
	Action  string         `json:"action"`
	ActorID *uuid.UUID     `json:"actorId"`
	Details map[string]any `json:"details"`
}

func (c *cli) runAudit(cmd *cobra.Command, args []string) error {
	et, err := domain.ParseEntityType(args[0])
	if err != nil {
		return err
	}
	if c.auditN <= 0 {
		return fmt.Errorf("--lines must be positive")
	}
	return c.withCore(cmd, func(core *app.Core) error {
		records, err := core.Audit.ListByKey(cmd.Context(), et, args[1], c.auditN)
		if err != nil {
			return err
		}
		lines := make([]auditLine, 0, len(records))
		for _, r := range records {
			lines = append(lines, auditLine{At: r.CreatedAt, Action: string(r.Action), ActorID: r.ActorID, Details: r.Details})
		}
		return c.print(lines)
	})
}

func (c *cli) runStats(cmd *cobra.Command, _ []string) error {
	return c.withCore(cmd, func(core *app.Core) error {
		stats, err := core.Lookup.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return c.print(map[string]int{
			"totalLookupTargets": stats.TotalTargets,
			"riskyTargets":       stats.RiskyTargets,
		})
	})
}

func (c *cli) runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := c.setup()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)
	pool, err := postgres.NewPool(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	return postgres.Migrate(cmd.Context(), pool, migrations.FS, logger)
}

func (c *cli) runToken(_ *cobra.Command, _ []string) error {
	cfg, _, err := c.setup()
	if err != nil {
		return err
	}

	role := domain.Role(c.tokenRole)
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return fmt.Errorf("--role must be %q or %q", domain.RoleUser, domain.RoleAdmin)
	}

	userID := uuid.New()
	if c.tokenUser != "" {
		if userID, err = uuid.Parse(c.tokenUser); err != nil {
			return fmt.Errorf("--user: %w", err)
		}
	}

	ttl := cfg.Auth.AccessTokenTTL
	if c.tokenTTL > 0 {
		ttl = c.tokenTTL
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, ttl).GenerateAccessToken(userID, role)
	if err != nil {
		return err
	}
	return c.print(map[string]string{"userId": userID.String(), "role": string(role), "accessToken": token})
}
