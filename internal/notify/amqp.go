package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	Exchange        = "notifications"
	AdminRoutingKey = "admins"
)

// Publisher часть amqp.Channel, нужная для публикации
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Message тело сообщения в очереди уведомлений
type Message struct {
	UserID *int64    `json:"user_id,omitempty"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// AMQPNotifier публикует уведомления в topic exchange.
// Ключи маршрутизации: user.<id> для пользователя, admins для администраторов.
type AMQPNotifier struct {
	publisher Publisher
	now       func() time.Time
}

func NewAMQPNotifier(publisher Publisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher, now: time.Now}
}

// DialAMQP открывает соединение и объявляет exchange уведомлений
func DialAMQP(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare %s exchange: %w", Exchange, err)
	}

	return conn, ch, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, userID int64, title, body string) error {
	return n.publish(ctx, UserRoutingKey(userID), Message{UserID: &userID, Title: title, Body: body})
}

func (n *AMQPNotifier) NotifyAdmins(ctx context.Context, title, body string) error {
	return n.publish(ctx, AdminRoutingKey, Message{Title: title, Body: body})
}

func (n *AMQPNotifier) publish(ctx context.Context, routingKey string, msg Message) error {
	msg.SentAt = n.now().UTC()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.publisher.PublishWithContext(ctx,
		Exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    msg.SentAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", Exchange, routingKey, err)
	}

	return nil
}

func UserRoutingKey(userID int64) string {
	return "user." + strconv.FormatInt(userID, 10)
}
