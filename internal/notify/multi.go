package notify

import (
	"context"

	"github.com/Freeeeeet/restaurant_booking/internal/service"
	"go.uber.org/multierr"
)

// Multi рассылает уведомление во все каналы. Ошибка одного канала не мешает остальным.
type Multi []service.Notifier

func (m Multi) Notify(ctx context.Context, userID int64, title, body string) error {
	var errs error
	for _, n := range m {
		errs = multierr.Append(errs, n.Notify(ctx, userID, title, body))
	}
	return errs
}

func (m Multi) NotifyAdmins(ctx context.Context, title, body string) error {
	var errs error
	for _, n := range m {
		errs = multierr.Append(errs, n.NotifyAdmins(ctx, title, body))
	}
	return errs
}
