package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/restaurant_booking/internal/app"
	"github.com/Freeeeeet/restaurant_booking/internal/config"
	"github.com/Freeeeeet/restaurant_booking/internal/notify"
	"github.com/Freeeeeet/restaurant_booking/internal/repository"
	"github.com/Freeeeeet/restaurant_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// runtime общие зависимости всех команд
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *pgxpool.Pool
	closers []func() error
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.Environment)

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Connected to database")

	return &runtime{cfg: cfg, logger: logger, pool: pool}, nil
}

func (rt *runtime) Close() error {
	var errs error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, rt.closers[i]())
	}
	rt.pool.Close()
	_ = rt.logger.Sync()
	return errs
}

func (rt *runtime) policy() service.Policy {
	return service.Policy{
		Location:        rt.cfg.Location,
		LastBookingTime: rt.cfg.LastBookingTime,
		ClosingTime:     rt.cfg.ClosingTime,
		CompletionGrace: rt.cfg.CompletionGrace,
		SweepBatchSize:  rt.cfg.SweepBatchSize,
	}
}

// notifier собирает каналы уведомлений из конфигурации. Лог включён всегда.
func (rt *runtime) notifier(users notify.UserDirectory) service.Notifier {
	channels := notify.Multi{notify.NewLogNotifier(rt.logger)}

	if rt.cfg.RabbitMQURL != "" {
		conn, ch, err := notify.DialAMQP(rt.cfg.RabbitMQURL)
		if err != nil {
			rt.logger.Error("RabbitMQ unavailable, broker notifications disabled", zap.Error(err))
		} else {
			rt.closers = append(rt.closers, ch.Close, conn.Close)
			channels = append(channels, notify.NewAMQPNotifier(ch))
		}
	}

	if rt.cfg.TelegramToken != "" {
		b, err := bot.New(rt.cfg.TelegramToken)
		if err != nil {
			rt.logger.Error("Telegram bot unavailable, direct notifications disabled", zap.Error(err))
		} else {
			channels = append(channels, notify.NewTelegramNotifier(b, users, rt.logger))
		}
	}

	return channels
}

func (rt *runtime) reservationService() *service.ReservationService {
	reservations := repository.NewReservationRepository(rt.pool)
	users := repository.NewUserRepository(rt.pool)

	return service.NewReservationService(
		reservations,
		reservations,
		repository.NewTableRepository(rt.pool),
		repository.NewMenuRepository(rt.pool),
		repository.NewStaffRepository(rt.pool),
		rt.notifier(users),
		rt.policy(),
		rt.logger,
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
