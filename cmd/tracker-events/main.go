package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/cli"
	"tracker/internal/log"
	"tracker/internal/services"
)

const reportInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentAMQP)

	if cfg.AMQPURL == "" {
		logger.ErrorContext(context.Background(), "AMQP_URL is required for the event consumer")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	processor := services.NewEventProcessor()
	handle := func(ctx context.Context, ev *amqp.TransactionEvent) error {
		if err := processor.Handle(ctx, ev); err != nil {
			// Requeueing a malformed event would redeliver it forever.
			logger.WarnContext(ctx, "Dropping event", log.FieldError, err, "type", ev.Type)
		}
		return nil
	}

	logger.InfoContext(ctx, "Starting tracker event consumer",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeTransactionEvents(gctx, handle)
	})
	g.Go(func() error {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				report(gctx, logger, processor)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(context.Background(), "Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	report(context.Background(), logger, processor)
	logger.InfoContext(context.Background(), "Event consumer stopped")
}

func report(ctx context.Context, logger *log.Logger, p *services.EventProcessor) {
	for _, row := range p.Overview() {
		logger.InfoContext(ctx, "Category status",
			log.FieldCategory, string(row.Category),
			"budget_cents", row.Budget.Cents,
			"spent_cents", row.Spent.Cents,
			"remaining_cents", row.Remaining.Cents,
			"over", row.Over)
	}
	logger.InfoContext(ctx, "Events processed",
		"created", p.Count(amqp.EventTransactionCreated),
		"updated", p.Count(amqp.EventTransactionUpdated),
		"deleted", p.Count(amqp.EventTransactionDeleted),
		"budget_set", p.Count(amqp.EventBudgetSet))
}
