package main

import (
	"context"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

const dialAttempts = 5

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.SetupLogger("info", log.ComponentAMQP).Error("Failed to load .env file", log.FieldError, err)
		os.Exit(1)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info", log.ComponentAMQP).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentAMQP)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, dialAttempts)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	// Alerts are written to the log until a push gateway exists.
	w := worker.NewAlertWorker(budget.LogNotifier{Logger: logger.Slog()})

	logger.Info("Starting alert worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := w.Run(ctx, client); err != nil {
		logger.Error("Alert consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Alert worker stopped", "delivered", w.Delivered())
}
