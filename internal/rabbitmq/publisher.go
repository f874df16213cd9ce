package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Publisher публикует JSON-сообщения в обменник.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher создаёт публикатора поверх открытого канала.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish сериализует сообщение и отправляет его с ключом маршрутизации.
func (p *Publisher) Publish(ctx context.Context, routingKey string, message any) error {
	const op = "rabbitmq.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	return PublishMessage(p.ch, p.exchange, routingKey, message)
}

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
