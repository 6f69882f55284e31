package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/jetpack/pkg/db"
	"github.com/dmitrymomot/jetpack/pkg/health"
)

// CommandNotFoundMessage is printed for an unknown command.
const CommandNotFoundMessage = "Command not found!"

// runCommand dispatches args to the CLI router.
func (a *App) runCommand(ctx context.Context, args []string) error {
	root := a.commands()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// commands builds the CLI router: built-in commands plus one per task.
func (a *App) commands() *cobra.Command {
	root := &cobra.Command{
		Use:           "app",
		Short:         "Application commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintln(cmd.OutOrStdout(), CommandNotFoundMessage)
			return fmt.Errorf("%w: %s", ErrCommandNotFound, args[0])
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stdout)

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "Run readiness checks and print the report",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				resp, err := health.Run(cmd.Context(), a.readinessChecks, health.WithLogger(a.logger))
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if eerr := enc.Encode(resp); eerr != nil {
					return eerr
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "routes",
			Short: "List HTTP routes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.printRoutes(cmd)
			},
		},
	)

	for _, t := range a.tasks {
		root.AddCommand(a.taskCommand(t))
	}

	return root
}

// taskCommand exposes t as a subcommand. Flags are passed to the task untouched.
func (a *App) taskCommand(t Task) *cobra.Command {
	return &cobra.Command{
		Use:                t.Name(),
		Short:              t.Description(),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.DebugContext(cmd.Context(), "running task", "task", t.Name())
			return t.Run(cmd.Context(), a, args)
		},
	}
}

func (a *App) migrate(ctx context.Context) error {
	if len(a.writers) == 0 {
		return ErrNoDatabase
	}
	if a.migrations == nil {
		a.logger.InfoContext(ctx, "no migrations registered")
		return nil
	}
	return db.Migrate(ctx, a.writers[0], a.migrations, a.migrationsTable(), a.logger)
}

func (a *App) migrationsTable() string {
	if a.dbConfig.MigrationsTable != "" {
		return a.dbConfig.MigrationsTable
	}
	return db.DefaultConfig().MigrationsTable
}

func (a *App) printRoutes(cmd *cobra.Command) error {
	var lines []string
	err := chi.Walk(a.Handler(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		lines = append(lines, fmt.Sprintf("%-7s %s", method, strings.Replace(route, "/*/", "/", -1)))
		return nil
	})
	if err != nil {
		return err
	}

	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), l)
	}
	return nil
}
