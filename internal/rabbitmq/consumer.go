package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
)

// ErrDiscard помечает сообщение, которое нельзя обработать повторно: оно
// отбрасывается без возврата в очередь.
var ErrDiscard = errors.New("discard message")

// ConsumerMessage читает очередь и обрабатывает сообщения параллельно, не более
// prefetchCount одновременно. При ошибке обработчика сообщение возвращается в очередь.
// Возвращённая функция ждёт завершения начатых обработчиков.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	handler func(context.Context, []byte) error) (func(), error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	var wg sync.WaitGroup
	sem := make(chan struct{}, prefetchCount)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					if err := handler(ctx, d.Body); err != nil {
						if errors.Is(err, ErrDiscard) {
							log.Error("handler rejected message, drop", slog.String("message_id", d.MessageId), sl.Err(err))
							if nackErr := d.Nack(false, false); nackErr != nil {
								log.Error("failed to nack message", sl.Err(nackErr))
							}
							return
						}
						log.Error("handler failed, requeue", slog.String("message_id", d.MessageId), sl.Err(err))
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return wg.Wait, nil
}
