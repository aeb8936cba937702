// The alerts worker drains the limit alert queue and logs every alert.
// It stands in for whatever delivery channel a deployment hooks up
// downstream (mail, chat, push).
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"carteira/internal/amqp"
	"carteira/internal/config"
	"carteira/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alerts worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("amqp connection failed", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("alerts worker started", "queue", cfg.AMQPQueue)
	err = client.ConsumeLimitAlerts(ctx, func(msg *amqp.LimitAlertMessage) error {
		logger.Info("limit alert",
			log.FieldUserID, msg.UserID,
			log.FieldCategory, msg.Category,
			log.FieldStatus, msg.Status,
			log.FieldLimitCents, msg.LimitCents,
			log.FieldSpentCents, msg.SpentCents,
			log.FieldPercentage, msg.Percentage,
			"message", msg.Message)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("alert consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("alerts worker stopped")
}
