// Package rabbitmq обслуживает обмен событиями о тарифах через RabbitMQ:
// подключение с повторами, объявление очередей, публикацию и потребление.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, повторяя попытки с задержкой.
func Connect(ctx context.Context, connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var (
		conn *amqp.Connection
		err  error
	)
	if retries < 1 {
		retries = 1
	}

	for attempt := range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if attempt == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет обменник и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err = ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err = ch.QueueBind(q.QueueName, q.RoutingKey, Exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w",
				op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
