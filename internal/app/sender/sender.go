// Package sender собирает сервис рассылки писем: слушает очередь RabbitMQ и отправляет письма через SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/glanceread/internal/config"
	"github.com/magabrotheeeer/glanceread/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	senderservice "github.com/magabrotheeeer/glanceread/internal/services/sender"
)

// App процесс-потребитель очереди уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.SMTP.Host == "" {
		logger.Warn("smtp host is empty, emails will only be logged")
	}

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(cfg.SMTP, logger),
		logger:        logger,
	}, nil
}

// Run обрабатывает очередь приветственных писем до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	err := rabbitmq.Consume(ctx, a.ch, rabbitmq.WelcomeQueue.QueueName, a.senderService.HandleWelcome, a.logger)
	if err != nil {
		a.logger.Error("failed to consume welcome queue", sl.Err(err))
		return err
	}

	a.logger.Info("sender service shutting down gracefully")
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
