package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/db"
	httpSrv "github.com/jmehdipour/unit-notifier/internal/http"
	"github.com/jmehdipour/unit-notifier/internal/kafka"
	"github.com/jmehdipour/unit-notifier/internal/logger"
	"github.com/jmehdipour/unit-notifier/internal/service/notify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		lg := logger.Init(cfg.Log.Level)
		defer func() { _ = lg.Sync() }()

		mysqlDB, err := db.OpenMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		redisClient, err := db.OpenRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		chDB, err := db.OpenClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() {
			_ = chDB.Close()
		}()

		var publisher notify.DeliveryPublisher
		if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.DeliveriesTopic != "" {
			producer := kafka.NewProducer(cfg.Kafka)
			defer func() { _ = producer.Close() }()
			publisher = producer
		} else {
			lg.Warn("kafka not configured, delivery history is disabled")
		}

		server, err := httpSrv.NewServer(cfg, mysqlDB, chDB, redisClient, publisher, lg)
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			lg.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
