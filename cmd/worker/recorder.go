package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/db"
	"github.com/jmehdipour/unit-notifier/internal/kafka"
	"github.com/jmehdipour/unit-notifier/internal/logger"
	"github.com/jmehdipour/unit-notifier/internal/metrics"
	"github.com/jmehdipour/unit-notifier/internal/repository"
	"github.com/jmehdipour/unit-notifier/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var recorderCmd = &cobra.Command{
	Use:   "recorder",
	Short: "Record delivery events from Kafka into ClickHouse",
	RunE:  runRecorder,
}

func runRecorder(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lg := logger.Init(cfg.Log.Level)
	defer func() { _ = lg.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.DeliveriesTopic == "" {
		return fmt.Errorf("kafka brokers and deliveries_topic are required")
	}

	// 2) reporting store
	chDB, err := db.OpenClickHouse(cfg.ClickHouse)
	if err != nil {
		return fmt.Errorf("clickhouse connect: %w", err)
	}
	defer chDB.Close()

	// 3) kafka consumer
	consumer := kafka.NewConsumer(cfg.Kafka)
	defer consumer.Close()

	w := worker.NewRecorder(consumer, repository.NewDeliveriesRepository(chDB), lg)
	if cfg.Recorder.BatchSize > 0 {
		w.BatchSize = cfg.Recorder.BatchSize
	}
	if cfg.Recorder.BatchWait > 0 {
		w.BatchWait = cfg.Recorder.BatchWait
	}

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("recorder started",
		zap.String("topic", cfg.Kafka.DeliveriesTopic),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Int("batch_size", w.BatchSize),
		zap.Duration("batch_wait", w.BatchWait),
	)

	return w.Run(ctx)
}
