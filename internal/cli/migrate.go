package cli

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/restaurant_booking/internal/app"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command) error {
			return runMigrations(ctx, rt)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command) error {
			migrator, err := app.NewMigrator(rt.pool, rt.cfg.MigrationsPath, rt.logger)
			if err != nil {
				return err
			}
			defer migrator.Close()
			return migrator.Down(ctx)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command) error {
			migrator, err := app.NewMigrator(rt.pool, rt.cfg.MigrationsPath, rt.logger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			version, err := migrator.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		}),
	})

	return cmd
}

func runMigrations(ctx context.Context, rt *runtime) error {
	migrator, err := app.NewMigrator(rt.pool, rt.cfg.MigrationsPath, rt.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

// withRuntime поднимает конфиг, логгер и пул для одноразовой команды
func withRuntime(run func(ctx context.Context, rt *runtime, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		return run(ctx, rt, cmd)
	}
}
