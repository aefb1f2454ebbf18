package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/frameshop/backend/internal/infrastructure/config"
	"github.com/frameshop/backend/internal/infrastructure/logger"
	"github.com/frameshop/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// commandContext holds the flags shared by every subcommand
type commandContext struct {
	migrationsPath string
	logLevel       string
	log            *zap.Logger
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the production database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(logger.Config{Level: ctx.logLevel, Format: "console", Output: "stderr"})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			ctx.log = log
			ctx.migrationsPath, err = resolveMigrationsPath(ctx.migrationsPath)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.migrationsPath, "path", "", "Path to the migrations directory (default ./migrations)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newUpCommand(ctx),
		newDownCommand(ctx),
		newStepCommand(ctx),
		newGotoCommand(ctx),
		newVersionCommand(ctx),
		newForceCommand(ctx),
		newCreateCommand(ctx),
		newListCommand(ctx),
	)
	return rootCmd
}

// resolveMigrationsPath falls back to ./migrations, then to the directory
// two levels above the executable
func resolveMigrationsPath(path string) (string, error) {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	return abs, nil
}

// withMigrator opens the configured database and runs fn with a migrator
func (c *commandContext) withMigrator(fn func(m *migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := migration.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migration.New(db, c.migrationsPath, c.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			c.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}

func newUpCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMigrator(func(m *migration.Migrator) error { return m.Up() })
		},
	}
}

func newDownCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("down drops every production table; rerun with --confirm")
			}
			return ctx.withMigrator(func(m *migration.Migrator) error { return m.Down() })
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the rollback")
	return cmd
}

func newStepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "step <n>",
		Short: "Apply n migrations, rolling back when n is negative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return ctx.withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
		},
	}
}

func newGotoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <version>",
		Short: "Migrate up or down to a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return ctx.withMigrator(func(m *migration.Migrator) error { return m.GoTo(uint(version)) })
		},
	}
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMigrator(func(m *migration.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Version: %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	}
}

func newForceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return ctx.withMigrator(func(m *migration.Migrator) error { return m.Force(version) })
		},
	}
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(ctx.migrationsPath, args[0])
			if err != nil {
				return err
			}
			ctx.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the migrations on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := migration.ListMigrations(ctx.migrationsPath)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations found")
				return nil
			}
			rows := make([][]string, len(files))
			for i, f := range files {
				rows[i] = []string{strconv.FormatUint(uint64(f.Version), 10), f.Name, filepath.Base(f.UpPath)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Version", "Name", "File"}, rows, 0))
			return nil
		},
	}
}
