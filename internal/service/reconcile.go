package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ReconcileResult итог одного цикла сверки
type ReconcileResult struct {
	Completed int
	Cancelled int
	Failed    int
}

// Reconcile выполняет обе независимые проверки: автозавершение и автоотмену.
// Ошибка одной проверки не мешает выполнить другую.
func (s *ReservationService) Reconcile(ctx context.Context, runID string) (ReconcileResult, error) {
	logger := s.logger.With(zap.String("run_id", runID))

	var result ReconcileResult
	var errs error

	completed, failed, err := s.autoComplete(ctx, logger)
	result.Completed = completed
	result.Failed += failed
	errs = multierr.Append(errs, err)

	cancelled, failed, err := s.autoCancelPending(ctx, logger)
	result.Cancelled = cancelled
	result.Failed += failed
	errs = multierr.Append(errs, err)

	return result, errs
}

// AutoCompleteExpired завершает подтверждённые брони, закончившиеся раньше чем grace-период назад
func (s *ReservationService) AutoCompleteExpired(ctx context.Context) (int, error) {
	completed, _, err := s.autoComplete(ctx, s.logger)
	return completed, err
}

// AutoCancelStalePending отменяет неподтверждённые брони, время начала которых уже прошло
func (s *ReservationService) AutoCancelStalePending(ctx context.Context) (int, error) {
	cancelled, _, err := s.autoCancelPending(ctx, s.logger)
	return cancelled, err
}

func (s *ReservationService) autoComplete(ctx context.Context, logger *zap.Logger) (int, int, error) {
	threshold := s.now().Add(-s.policy.CompletionGrace)

	candidates, err := s.reservations.FindConfirmedEndedBefore(ctx, threshold, s.batchSize())
	if err != nil {
		return 0, 0, fmt.Errorf("find expired reservations: %w", err)
	}

	return s.sweep(ctx, logger, candidates, model.ReservationStatusConfirmed, model.ReservationStatusCompleted,
		func(r *model.Reservation) {
			s.notify(r.ClientID, "Спасибо за визит",
				fmt.Sprintf("Бронь #%d завершена", r.ID))
		})
}

func (s *ReservationService) autoCancelPending(ctx context.Context, logger *zap.Logger) (int, int, error) {
	candidates, err := s.reservations.FindPendingStartedBefore(ctx, s.now(), s.batchSize())
	if err != nil {
		return 0, 0, fmt.Errorf("find stale pending reservations: %w", err)
	}

	cancelled, failed, err := s.sweep(ctx, logger, candidates, model.ReservationStatusPending, model.ReservationStatusCancelled,
		func(r *model.Reservation) {
			s.notify(r.ClientID, "Бронь отменена",
				fmt.Sprintf("Бронь #%d на %s не была подтверждена вовремя и отменена",
					r.ID, r.Period.Start.Format("02.01.2006 15:04")))
		})

	if cancelled > 0 {
		s.notifyAdmins("Автоотмена броней",
			fmt.Sprintf("Отменено неподтверждённых броней: %d", cancelled))
	}

	return cancelled, failed, err
}

// sweep переводит каждую бронь from -> to. Ошибка по одной строке логируется,
// обработка остальных продолжается.
func (s *ReservationService) sweep(
	ctx context.Context,
	logger *zap.Logger,
	candidates []*model.Reservation,
	from, to model.ReservationStatus,
	onChanged func(r *model.Reservation),
) (int, int, error) {
	var changed, failed int
	var errs error

	for _, r := range candidates {
		if err := ctx.Err(); err != nil {
			return changed, failed, multierr.Append(errs, err)
		}

		ok, err := s.reservations.TransitionStatus(ctx, r.ID, from, to)
		if err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("reservation %d: %w", r.ID, err))
			logger.Error("Failed to reconcile reservation",
				zap.Int64("reservation_id", r.ID),
				zap.String("from", string(from)),
				zap.String("to", string(to)),
				zap.Error(err),
			)
			continue
		}

		// Статус уже изменён параллельным запросом
		if !ok {
			continue
		}

		changed++
		logger.Info("Reservation reconciled",
			zap.Int64("reservation_id", r.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)

		onChanged(r)
	}

	return changed, failed, errs
}

func (s *ReservationService) batchSize() int {
	if s.policy.SweepBatchSize > 0 {
		return s.policy.SweepBatchSize
	}
	return DefaultPolicy().SweepBatchSize
}
