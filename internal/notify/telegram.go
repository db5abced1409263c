package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MessageSender часть API бота, нужная для отправки сообщений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserDirectory источник telegram id получателей
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ListAdmins(ctx context.Context) ([]*model.User, error)
}

// TelegramNotifier отправляет уведомления в личные сообщения
type TelegramNotifier struct {
	sender MessageSender
	users  UserDirectory
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, users UserDirectory, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

// Notify пользователь без привязанного telegram просто пропускается
func (n *TelegramNotifier) Notify(ctx context.Context, userID int64, title, body string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user %d: %w", userID, err)
	}

	if user == nil || user.TelegramID == nil {
		n.logger.Debug("User has no telegram chat, notification skipped", zap.Int64("user_id", userID))
		return nil
	}

	return n.send(ctx, *user.TelegramID, title, body)
}

func (n *TelegramNotifier) NotifyAdmins(ctx context.Context, title, body string) error {
	admins, err := n.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	var errs error
	for _, admin := range admins {
		if admin.TelegramID == nil {
			continue
		}
		errs = multierr.Append(errs, n.send(ctx, *admin.TelegramID, title, body))
	}

	return errs
}

func (n *TelegramNotifier) send(ctx context.Context, chatID int64, title, body string) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(body)),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message to %d: %w", chatID, err)
	}
	return nil
}
