// Command invalidator consumes report events from Kafka and deletes the
// cached verdict of every key they touch, so the next lookup recomputes it.
// After each delete it publishes an invalidation notice on
// kafka.invalidated_topic; server replicas evict their LRU copies on it.
//
// It uses the same configuration as the server; the kafka section is
// required here.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/checkscam/checkscam-backend/internal/adapter/kafka/reportevents"
	"github.com/checkscam/checkscam-backend/internal/app"
	"github.com/checkscam/checkscam-backend/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "invalidator: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Kafka.ValidateKafka(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := app.NewLogger(cfg.Log)

	// The worker deletes from the shared store; a local LRU would only
	// hold entries nobody reads.
	cfg.Lookup.MemoryCacheSize = 0

	core, err := app.NewCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	reader, err := reportevents.NewKafkaReader(cfg.Kafka.BrokerList(), cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		return err
	}

	consumer := reportevents.NewConsumer(logger, reader, core.Lookup)
	defer consumer.Close() //nolint:errcheck

	logger.Info("invalidator started",
		slog.String("version", app.BuildVersion()),
		slog.String("topic", cfg.Kafka.Topic),
		slog.String("group_id", cfg.Kafka.GroupID),
	)
	return consumer.Run(ctx)
}
