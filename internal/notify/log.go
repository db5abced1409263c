package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier пишет уведомления в лог. Используется, когда внешние каналы не настроены.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, userID int64, title, body string) error {
	n.logger.Info("Notification", zap.Int64("user_id", userID), zap.String("title", title), zap.String("body", body))
	return nil
}

func (n *LogNotifier) NotifyAdmins(ctx context.Context, title, body string) error {
	n.logger.Info("Admin notification", zap.String("title", title), zap.String("body", body))
	return nil
}
