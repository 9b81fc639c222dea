package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
)

// ErrDiscard оборачивается обработчиком, если сообщение не имеет смысла повторять.
var ErrDiscard = errors.New("discard message")

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// Consume читает очередь queueName и обрабатывает сообщения параллельно, не более
// prefetch одновременно. Блокируется до отмены ctx или закрытия канала доставки
// и дожидается завершения начатых обработчиков.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string, handler Handler, log *slog.Logger) error {
	const op = "rabbitmq.Consume"
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, prefetch)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handleDelivery(ctx, d, handler, log)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

// handleDelivery подтверждает сообщение при успехе, отбрасывает при ErrDiscard
// и возвращает в очередь при любой другой ошибке. Повторная доставка возвращается
// в очередь только один раз.
func handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler, log *slog.Logger) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrDiscard) || d.Redelivered:
		log.Warn("message discarded", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	default:
		log.Error("message handling failed, requeue", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
