package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vinhtranngoc35/e-commerce-app/internal/config"
	kafkax "github.com/vinhtranngoc35/e-commerce-app/internal/kafka"
	"github.com/vinhtranngoc35/e-commerce-app/internal/logging"
	"github.com/vinhtranngoc35/e-commerce-app/internal/payment"
	"github.com/vinhtranngoc35/e-commerce-app/internal/postgres"
	"github.com/vinhtranngoc35/e-commerce-app/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName+"-payments", cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logging.Sync(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prodCompleted := kafkax.NewProducer(cfg.KafkaBrokers, cfg.TopicPaymentCompleted, 1024, logger)
	prodCompleted.Start()
	prodFailed := kafkax.NewProducer(cfg.KafkaBrokers, cfg.TopicPaymentFailed, 1024, logger)
	prodFailed.Start()

	handler := &payment.Consumer{
		Ledger:            &payment.Service{Repo: &payment.PGRepo{DB: db}, Log: logger},
		Dedup:             &redisx.Dedup{RDB: rdb, Service: "payment", Log: logger},
		ProducerCompleted: prodCompleted,
		ProducerFailed:    prodFailed,
		ServiceName:       cfg.ServiceName + "-payments",
		Log:               logger,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.PaymentGroup, cfg.TopicOrderCreated,
		cfg.PaymentWorkers, logger)
	go func() {
		logger.Info("payment consumer started",
			zap.String("topic", cfg.TopicOrderCreated),
			zap.String("group", cfg.PaymentGroup),
			zap.Int("workers", cfg.PaymentWorkers))
		if err := cons.Start(ctx, handler.HandleOrderCreated); err != nil {
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
	time.Sleep(500 * time.Millisecond)
	prodCompleted.Close()
	prodFailed.Close()
	prodCompleted.WaitClosed()
	prodFailed.WaitClosed()
}
