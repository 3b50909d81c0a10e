// Command eventlog follows the company event topic and logs every change.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/timeoverseer/overseer/internal/company/config"
	"github.com/timeoverseer/overseer/internal/company/events"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.Topic, logger)
	consumer.RegisterHandler(logEvent(logger.Named("eventlog")))
	consumer.Start(ctx)

	logger.Info("Following company events",
		zap.String("topic", cfg.Topic),
		zap.String("group", cfg.ConsumerGroup),
	)
	<-consumer.Done()
	consumer.Close()
}

func logEvent(logger *zap.Logger) func(context.Context, events.Event) error {
	return func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", string(event.Type)),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if c := event.Company; c != nil {
			fields = append(fields,
				zap.Int64("company_id", c.ID),
				zap.String("company", c.Name),
				zap.Int("customers", len(c.Customers())),
				zap.Int("employees", len(c.Employees())),
			)
		}
		logger.Info("Company event", fields...)
		return nil
	}
}
