package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/restaurant_booking/internal/app"
	"github.com/Freeeeeet/restaurant_booking/internal/auth"
	"github.com/Freeeeeet/restaurant_booking/internal/controller"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconciliation scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required to serve the API")
			}

			if migrateUp {
				if err := runMigrations(ctx, rt); err != nil {
					return err
				}
			}

			svc := rt.reservationService()
			// Дожидаемся отправки уведомлений, запущенных до остановки
			defer svc.Wait()

			var locker app.Locker
			if rt.cfg.RedisAddr != "" {
				client, err := app.NewRedisClient(ctx, rt.cfg.RedisAddr, rt.cfg.RedisPassword, rt.cfg.RedisDB)
				if err != nil {
					rt.logger.Warn("Redis unavailable, reconciliation lock disabled", zap.Error(err))
				} else {
					rt.closers = append(rt.closers, client.Close)
					locker = app.NewRedisLocker(client)
				}
			}

			scheduler := app.NewScheduler(svc, locker, rt.cfg.ReconcileInterval, rt.logger)
			server := controller.NewServer(svc, auth.NewResolver(rt.cfg.JWTSecret), rt.logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return server.Start(gctx, rt.cfg.HTTPAddr) })
			g.Go(func() error { return scheduler.Run(gctx) })

			rt.logger.Info("Restaurant service started",
				zap.String("env", rt.cfg.Environment),
				zap.String("addr", rt.cfg.HTTPAddr),
				zap.Duration("reconcile_interval", rt.cfg.ReconcileInterval),
			)

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			rt.logger.Info("Restaurant service stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "apply database migrations on startup")
	return cmd
}
