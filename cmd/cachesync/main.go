package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vinhtranngoc35/e-commerce-app/internal/cachesync"
	"github.com/vinhtranngoc35/e-commerce-app/internal/config"
	kafkax "github.com/vinhtranngoc35/e-commerce-app/internal/kafka"
	"github.com/vinhtranngoc35/e-commerce-app/internal/logging"
	"github.com/vinhtranngoc35/e-commerce-app/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName+"-cachesync", cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logging.Sync(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	handler := &cachesync.Consumer{
		Cache: &redisx.QuantityCache{RDB: rdb, Log: logger},
		Log:   logger,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.CacheSyncGroup, cfg.TopicProductCDC,
		cfg.CacheSyncWorkers, logger)
	go func() {
		logger.Info("CDC consumer started",
			zap.String("topic", cfg.TopicProductCDC), zap.String("group", cfg.CacheSyncGroup))
		if err := cons.Start(ctx, handler.Handle); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	cancel()
}
